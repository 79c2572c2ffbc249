package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docstudy/pkg/domain"
)

// CreateNote attaches a note to one of the caller's documents.
func (a *App) CreateNote(owner domain.User, documentID, content string) (domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Note{}, ErrContentRequired
	}
	if strings.TrimSpace(documentID) == "" {
		return domain.Note{}, ErrDocumentRequired
	}
	_, ok, err := a.store.GetDocument(documentID, owner.ID)
	if err != nil {
		return domain.Note{}, fmt.Errorf("fetch document: %w", err)
	}
	if !ok {
		return domain.Note{}, ErrNotFound
	}
	now := time.Now().UTC()
	note := domain.Note{
		ID:         uuid.NewString(),
		OwnerID:    owner.ID,
		DocumentID: documentID,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.SaveNote(note); err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

// ListNotesByDocument returns the caller's notes for one of their documents.
func (a *App) ListNotesByDocument(owner domain.User, documentID string) ([]domain.Note, error) {
	_, ok, err := a.store.GetDocument(documentID, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return a.store.ListNotesByDocument(documentID, owner.ID)
}

// UpdateNote replaces the content of one of the caller's notes.
func (a *App) UpdateNote(owner domain.User, id, content string) (domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Note{}, ErrContentRequired
	}
	note, ok, err := a.store.GetNote(id, owner.ID)
	if err != nil {
		return domain.Note{}, fmt.Errorf("fetch note: %w", err)
	}
	if !ok {
		return domain.Note{}, ErrNotFound
	}
	note.Content = content
	note.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveNote(note); err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

// DeleteNote removes one of the caller's notes.
func (a *App) DeleteNote(owner domain.User, id string) error {
	note, ok, err := a.store.GetNote(id, owner.ID)
	if err != nil {
		return fmt.Errorf("fetch note: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if err := a.store.DeleteNote(note.ID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// LogSearch records a search query. foundResults reports whether the optional
// document context resolved to one of the caller's documents.
func (a *App) LogSearch(owner domain.User, query, documentContext string) (domain.SearchLog, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.SearchLog{}, ErrQueryRequired
	}
	found := false
	if documentContext != "" {
		_, ok, err := a.store.GetDocument(documentContext, owner.ID)
		if err != nil {
			return domain.SearchLog{}, fmt.Errorf("fetch document: %w", err)
		}
		found = ok
	}
	log := domain.SearchLog{
		ID:              uuid.NewString(),
		OwnerID:         owner.ID,
		Query:           query,
		Timestamp:       time.Now().UTC(),
		DocumentContext: documentContext,
		FoundResults:    found,
	}
	if err := a.store.AppendSearchLog(log); err != nil {
		return domain.SearchLog{}, fmt.Errorf("append search log: %w", err)
	}
	return log, nil
}
