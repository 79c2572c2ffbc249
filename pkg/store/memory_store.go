package store

import (
	"sort"
	"sync"

	"docstudy/pkg/domain"
)

// MemoryStore keeps all records in-process. It is used by tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	email      map[string]string // email -> user ID
	documents  map[string]domain.Document
	docOrder   []string
	notes      map[string]domain.Note
	noteOrder  []string
	chatLogs   []domain.ChatLog
	searchLogs []domain.SearchLog
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		email:     make(map[string]string),
		documents: make(map[string]domain.Document),
		notes:     make(map[string]domain.Note),
	}
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// SaveDocument stores or replaces a document and tracks insertion order.
func (m *MemoryStore) SaveDocument(d domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.documents[d.ID]; !exists {
		m.docOrder = append(m.docOrder, d.ID)
	}
	m.documents[d.ID] = d
	return nil
}

// GetDocument retrieves a document scoped to its owner.
func (m *MemoryStore) GetDocument(id, ownerID string) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok || d.OwnerID != ownerID {
		return domain.Document{}, false, nil
	}
	return d, true, nil
}

// ListDocumentsByOwner returns documents filtered by owner, newest first.
func (m *MemoryStore) ListDocumentsByOwner(ownerID string) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Document, 0, len(m.docOrder))
	for _, id := range m.docOrder {
		if d, ok := m.documents[id]; ok && d.OwnerID == ownerID {
			res = append(res, d)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].UploadedAt.After(res[j].UploadedAt)
	})
	return res, nil
}

// SetDocumentStatus updates only the status field.
func (m *MemoryStore) SetDocumentStatus(id string, status domain.DocumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return nil
	}
	d.Status = status
	m.documents[id] = d
	return nil
}

// DeleteDocument removes a document record.
func (m *MemoryStore) DeleteDocument(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	filtered := m.docOrder[:0]
	for _, item := range m.docOrder {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.docOrder = filtered
	return nil
}

// SaveNote stores or replaces a note.
func (m *MemoryStore) SaveNote(n domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.notes[n.ID]; !exists {
		m.noteOrder = append(m.noteOrder, n.ID)
	}
	m.notes[n.ID] = n
	return nil
}

// GetNote retrieves a note scoped to its owner.
func (m *MemoryStore) GetNote(id, ownerID string) (domain.Note, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok || n.OwnerID != ownerID {
		return domain.Note{}, false, nil
	}
	return n, true, nil
}

// ListNotesByDocument returns a user's notes for one document in insertion order.
func (m *MemoryStore) ListNotesByDocument(documentID, ownerID string) ([]domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Note, 0)
	for _, id := range m.noteOrder {
		if n, ok := m.notes[id]; ok && n.DocumentID == documentID && n.OwnerID == ownerID {
			res = append(res, n)
		}
	}
	return res, nil
}

// DeleteNote removes a note record.
func (m *MemoryStore) DeleteNote(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, id)
	filtered := m.noteOrder[:0]
	for _, item := range m.noteOrder {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.noteOrder = filtered
	return nil
}

// AppendChatLog records a chat exchange.
func (m *MemoryStore) AppendChatLog(entry domain.ChatLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatLogs = append(m.chatLogs, entry)
	return nil
}

// ListChatLogs returns chat history newest first, optionally filtered by document.
func (m *MemoryStore) ListChatLogs(ownerID, documentID string, limit int) ([]domain.ChatLog, error) {
	if limit <= 0 {
		return []domain.ChatLog{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ChatLog, 0)
	for _, entry := range m.chatLogs {
		if entry.OwnerID != ownerID {
			continue
		}
		if documentID != "" && entry.DocumentID != documentID {
			continue
		}
		res = append(res, entry)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Timestamp.After(res[j].Timestamp)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// AppendSearchLog records a search query.
func (m *MemoryStore) AppendSearchLog(entry domain.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchLogs = append(m.searchLogs, entry)
	return nil
}

// SearchLogs returns all recorded search logs (test helper).
func (m *MemoryStore) SearchLogs() []domain.SearchLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.SearchLog, len(m.searchLogs))
	copy(out, m.searchLogs)
	return out
}
