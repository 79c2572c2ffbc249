package store

import "docstudy/pkg/domain"

// Store defines persistence operations for users, documents, notes and logs.
//
// Document, note and chat-log reads are owner-scoped: lookups take the
// requesting user's ID and treat rows owned by someone else the same as
// missing rows, so callers cannot tell another user's resource apart from a
// nonexistent one.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// documents
	SaveDocument(domain.Document) error
	GetDocument(id, ownerID string) (domain.Document, bool, error)
	ListDocumentsByOwner(ownerID string) ([]domain.Document, error)
	SetDocumentStatus(id string, status domain.DocumentStatus) error
	DeleteDocument(id string) error

	// notes
	SaveNote(domain.Note) error
	GetNote(id, ownerID string) (domain.Note, bool, error)
	ListNotesByDocument(documentID, ownerID string) ([]domain.Note, error)
	DeleteNote(id string) error

	// chat logs (append-only)
	AppendChatLog(domain.ChatLog) error
	ListChatLogs(ownerID, documentID string, limit int) ([]domain.ChatLog, error)

	// search logs (append-only)
	AppendSearchLog(domain.SearchLog) error
}

// SessionStore issues and validates session tokens bound to a user ID.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
}
