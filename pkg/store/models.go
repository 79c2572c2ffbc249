package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type DocumentModel struct {
	ID                 string `gorm:"primaryKey"`
	OwnerID            string `gorm:"not null;index"`
	OriginalFilename   string `gorm:"not null"`
	StoragePath        string `gorm:"not null"`
	FileType           string `gorm:"not null"`
	Status             string `gorm:"not null"`
	Summary            string `gorm:"type:text"`
	GeneratedQuestions datatypes.JSON `gorm:"type:jsonb"`
	GeneratedQuiz      datatypes.JSON `gorm:"type:jsonb"`
	UploadedAt         time.Time `gorm:"not null"`
	UpdatedAt          time.Time
}

type NoteModel struct {
	ID         string    `gorm:"primaryKey"`
	OwnerID    string    `gorm:"not null;index"`
	DocumentID string    `gorm:"not null;index"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type ChatLogModel struct {
	ID         string  `gorm:"primaryKey"`
	OwnerID    string  `gorm:"not null;index"`
	DocumentID *string `gorm:"index"`
	Query      string  `gorm:"type:text;not null"`
	Response   string  `gorm:"type:text;not null"`
	Timestamp  time.Time `gorm:"not null;index"`
}

type SearchLogModel struct {
	ID              string `gorm:"primaryKey"`
	OwnerID         string `gorm:"not null;index"`
	Query           string `gorm:"type:text;not null"`
	Timestamp       time.Time `gorm:"not null;index"`
	DocumentContext *string
	FoundResults    bool `gorm:"not null"`
}
