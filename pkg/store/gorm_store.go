package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"docstudy/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &DocumentModel{}, &NoteModel{}, &ChatLogModel{}, &SearchLogModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "password_hash"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SaveDocument stores or updates a document.
func (s *GormStore) SaveDocument(d domain.Document) error {
	model := documentToModel(d)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "summary", "generated_questions", "generated_quiz", "updated_at"}),
	}).Create(&model).Error
}

// GetDocument retrieves a document scoped to its owner.
func (s *GormStore) GetDocument(id, ownerID string) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// ListDocumentsByOwner returns documents filtered by owner, newest first.
func (s *GormStore) ListDocumentsByOwner(ownerID string) ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("uploaded_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		res = append(res, documentFromModel(m))
	}
	return res, nil
}

// SetDocumentStatus updates only the status column.
func (s *GormStore) SetDocumentStatus(id string, status domain.DocumentStatus) error {
	return s.db.Model(&DocumentModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteDocument removes a document record.
func (s *GormStore) DeleteDocument(id string) error {
	return s.db.Delete(&DocumentModel{}, "id = ?", id).Error
}

// SaveNote stores or updates a note.
func (s *GormStore) SaveNote(n domain.Note) error {
	model := noteToModel(n)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&model).Error
}

// GetNote retrieves a note scoped to its owner.
func (s *GormStore) GetNote(id, ownerID string) (domain.Note, bool, error) {
	var model NoteModel
	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Note{}, false, nil
		}
		return domain.Note{}, false, err
	}
	return noteFromModel(model), true, nil
}

// ListNotesByDocument returns a user's notes for one document.
func (s *GormStore) ListNotesByDocument(documentID, ownerID string) ([]domain.Note, error) {
	var models []NoteModel
	if err := s.db.Where("document_id = ? AND owner_id = ?", documentID, ownerID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Note, 0, len(models))
	for _, m := range models {
		res = append(res, noteFromModel(m))
	}
	return res, nil
}

// DeleteNote removes a note record.
func (s *GormStore) DeleteNote(id string) error {
	return s.db.Delete(&NoteModel{}, "id = ?", id).Error
}

// AppendChatLog records a chat exchange.
func (s *GormStore) AppendChatLog(entry domain.ChatLog) error {
	model := chatLogToModel(entry)
	return s.db.Create(&model).Error
}

// ListChatLogs returns a user's chat history, newest first, optionally
// filtered by document.
func (s *GormStore) ListChatLogs(ownerID, documentID string, limit int) ([]domain.ChatLog, error) {
	if limit <= 0 {
		return []domain.ChatLog{}, nil
	}
	tx := s.db.Where("owner_id = ?", ownerID)
	if documentID != "" {
		tx = tx.Where("document_id = ?", documentID)
	}
	var models []ChatLogModel
	if err := tx.Order("timestamp DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ChatLog, 0, len(models))
	for _, m := range models {
		res = append(res, chatLogFromModel(m))
	}
	return res, nil
}

// AppendSearchLog records a search query.
func (s *GormStore) AppendSearchLog(entry domain.SearchLog) error {
	model := searchLogToModel(entry)
	return s.db.Create(&model).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func documentToModel(d domain.Document) DocumentModel {
	model := DocumentModel{
		ID:               d.ID,
		OwnerID:          d.OwnerID,
		OriginalFilename: d.OriginalFilename,
		StoragePath:      d.StoragePath,
		FileType:         d.FileType,
		Status:           string(d.Status),
		Summary:          d.Summary,
		UploadedAt:       d.UploadedAt,
		UpdatedAt:        time.Now().UTC(),
	}
	if len(d.GeneratedQuestions) > 0 {
		raw, _ := json.Marshal(d.GeneratedQuestions)
		model.GeneratedQuestions = raw
	}
	if len(d.GeneratedQuiz) > 0 {
		raw, _ := json.Marshal(d.GeneratedQuiz)
		model.GeneratedQuiz = raw
	}
	return model
}

func documentFromModel(m DocumentModel) domain.Document {
	doc := domain.Document{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		OriginalFilename: m.OriginalFilename,
		StoragePath:      m.StoragePath,
		FileType:         m.FileType,
		Status:           domain.DocumentStatus(m.Status),
		Summary:          m.Summary,
		UploadedAt:       m.UploadedAt,
	}
	if len(m.GeneratedQuestions) > 0 {
		_ = json.Unmarshal(m.GeneratedQuestions, &doc.GeneratedQuestions)
	}
	if len(m.GeneratedQuiz) > 0 {
		_ = json.Unmarshal(m.GeneratedQuiz, &doc.GeneratedQuiz)
	}
	return doc
}

func noteToModel(n domain.Note) NoteModel {
	return NoteModel{
		ID:         n.ID,
		OwnerID:    n.OwnerID,
		DocumentID: n.DocumentID,
		Content:    n.Content,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func noteFromModel(m NoteModel) domain.Note {
	return domain.Note{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		DocumentID: m.DocumentID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func chatLogToModel(entry domain.ChatLog) ChatLogModel {
	var documentID *string
	if strings.TrimSpace(entry.DocumentID) != "" {
		value := strings.TrimSpace(entry.DocumentID)
		documentID = &value
	}
	return ChatLogModel{
		ID:         entry.ID,
		OwnerID:    entry.OwnerID,
		DocumentID: documentID,
		Query:      entry.Query,
		Response:   entry.Response,
		Timestamp:  entry.Timestamp,
	}
}

func chatLogFromModel(m ChatLogModel) domain.ChatLog {
	documentID := ""
	if m.DocumentID != nil {
		documentID = *m.DocumentID
	}
	return domain.ChatLog{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		DocumentID: documentID,
		Query:      m.Query,
		Response:   m.Response,
		Timestamp:  m.Timestamp,
	}
}

func searchLogToModel(entry domain.SearchLog) SearchLogModel {
	var documentContext *string
	if strings.TrimSpace(entry.DocumentContext) != "" {
		value := strings.TrimSpace(entry.DocumentContext)
		documentContext = &value
	}
	return SearchLogModel{
		ID:              entry.ID,
		OwnerID:         entry.OwnerID,
		Query:           entry.Query,
		Timestamp:       entry.Timestamp,
		DocumentContext: documentContext,
		FoundResults:    entry.FoundResults,
	}
}
