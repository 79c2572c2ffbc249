package domain

import "time"

type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)

// Supported upload MIME types.
const (
	FileTypePDF  = "application/pdf"
	FileTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	FileTypeText = "text/plain"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// QAPair is one generated question/answer item.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizQuestion is one generated multiple-choice item.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type Document struct {
	ID                 string         `json:"id"`
	OwnerID            string         `json:"ownerId"`
	OriginalFilename   string         `json:"originalFilename"`
	StoragePath        string         `json:"-"`
	FileType           string         `json:"fileType"`
	Status             DocumentStatus `json:"status"`
	Summary            string         `json:"summary,omitempty"`
	GeneratedQuestions []QAPair       `json:"generatedQuestions,omitempty"`
	GeneratedQuiz      []QuizQuestion `json:"generatedQuiz,omitempty"`
	UploadedAt         time.Time      `json:"uploadedAt"`
}

type Note struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	DocumentID string    `json:"documentId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ChatLog is an append-only record of one chat exchange.
// DocumentID is empty when the chat had no document context.
type ChatLog struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	DocumentID string    `json:"documentId,omitempty"`
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
}

// SearchLog is an append-only record of one search query.
// FoundResults is true iff DocumentContext resolved to a document owned by
// the requester at log time.
type SearchLog struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	DocumentContext string    `json:"documentContext,omitempty"`
	FoundResults    bool      `json:"foundResults"`
}
