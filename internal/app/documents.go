package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docstudy/pkg/ai"
	"docstudy/pkg/domain"
	"docstudy/pkg/storage"
)

// UploadDocument stores a new document file and creates its record in
// processing state. Processing itself happens through the process actions.
func (a *App) UploadDocument(ctx context.Context, owner domain.User, filename, fileType string, r io.Reader, size int64) (domain.Document, error) {
	if strings.TrimSpace(filename) == "" {
		return domain.Document{}, fmt.Errorf("filename required")
	}
	id := uuid.NewString()
	storageKey := id + "/" + filepath.Base(filename)
	doc := domain.Document{
		ID:               id,
		OwnerID:          owner.ID,
		OriginalFilename: filepath.Base(filename),
		StoragePath:      storageKey,
		FileType:         fileType,
		Status:           domain.StatusProcessing,
		UploadedAt:       time.Now().UTC(),
	}
	if err := a.objects.Save(ctx, storageKey, r, size, fileType); err != nil {
		return domain.Document{}, fmt.Errorf("save file: %w", err)
	}
	if err := a.store.SaveDocument(doc); err != nil {
		_ = a.objects.Delete(ctx, storageKey)
		return domain.Document{}, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns the caller's documents.
func (a *App) ListDocuments(owner domain.User) ([]domain.Document, error) {
	return a.store.ListDocumentsByOwner(owner.ID)
}

// GetDocument returns one of the caller's documents.
func (a *App) GetDocument(owner domain.User, id string) (domain.Document, error) {
	doc, ok, err := a.store.GetDocument(id, owner.ID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch document: %w", err)
	}
	if !ok {
		return domain.Document{}, ErrNotFound
	}
	return doc, nil
}

// GetQuiz returns the generated quiz for one of the caller's documents.
func (a *App) GetQuiz(owner domain.User, id string) ([]domain.QuizQuestion, error) {
	doc, err := a.GetDocument(owner, id)
	if err != nil {
		return nil, err
	}
	return doc.GeneratedQuiz, nil
}

// DeleteDocument removes the backing file and then the record. When the file
// cannot be removed the record is kept so the failure stays visible.
func (a *App) DeleteDocument(ctx context.Context, owner domain.User, id string) error {
	doc, ok, err := a.store.GetDocument(id, owner.ID)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if err := a.objects.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if err := a.store.DeleteDocument(doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// ProcessSummary extracts the document text and generates a summary.
func (a *App) ProcessSummary(ctx context.Context, owner domain.User, id string) (domain.Document, error) {
	return a.process(ctx, owner, id, func(ctx context.Context, text string, doc *domain.Document) error {
		summary, err := a.ai.Summary(ctx, text)
		if err != nil {
			return translateAIError(err)
		}
		doc.Summary = summary
		return nil
	})
}

// ProcessQA extracts the document text and generates question/answer pairs.
func (a *App) ProcessQA(ctx context.Context, owner domain.User, id string) (domain.Document, error) {
	return a.process(ctx, owner, id, func(ctx context.Context, text string, doc *domain.Document) error {
		pairs, err := a.ai.QuestionsAnswers(ctx, text)
		if err != nil {
			return translateAIError(err)
		}
		doc.GeneratedQuestions = pairs
		return nil
	})
}

// ProcessQuiz extracts the document text and generates a multiple-choice quiz.
func (a *App) ProcessQuiz(ctx context.Context, owner domain.User, id string) (domain.Document, error) {
	return a.process(ctx, owner, id, func(ctx context.Context, text string, doc *domain.Document) error {
		quiz, err := a.ai.Quiz(ctx, text)
		if err != nil {
			return translateAIError(err)
		}
		doc.GeneratedQuiz = quiz
		return nil
	})
}

// process runs one generation action under the shared protocol: mark the
// document processing, extract its text, generate, then mark it ready. Any
// failure after the processing mark leaves the document in error state.
func (a *App) process(ctx context.Context, owner domain.User, id string, generate func(context.Context, string, *domain.Document) error) (domain.Document, error) {
	unlock := a.lockDocument(id)
	defer unlock()

	doc, ok, err := a.store.GetDocument(id, owner.ID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch document: %w", err)
	}
	if !ok {
		return domain.Document{}, ErrNotFound
	}
	doc.Status = domain.StatusProcessing
	if err := a.store.SaveDocument(doc); err != nil {
		return domain.Document{}, fmt.Errorf("mark processing: %w", err)
	}

	text, err := a.documentText(ctx, doc)
	if err != nil {
		a.markError(doc.ID)
		return domain.Document{}, translateExtractionError(err)
	}
	if strings.TrimSpace(text) == "" {
		a.markError(doc.ID)
		return domain.Document{}, fmt.Errorf("%w: document has no extractable text", ErrExtraction)
	}

	if err := generate(ctx, text, &doc); err != nil {
		a.markError(doc.ID)
		return domain.Document{}, err
	}

	doc.Status = domain.StatusReady
	if err := a.store.SaveDocument(doc); err != nil {
		return domain.Document{}, fmt.Errorf("persist result: %w", err)
	}
	return doc, nil
}

// markError is best-effort: the original failure is what the caller needs to
// see, not a second persistence error.
func (a *App) markError(id string) {
	_ = a.store.SetDocumentStatus(id, domain.StatusError)
}

// documentText extracts plain text for a document. Stores whose objects live
// on the local filesystem are read in place; others are copied to a temp file
// first.
func (a *App) documentText(ctx context.Context, doc domain.Document) (string, error) {
	if p, ok := a.objects.(storage.Pather); ok {
		return a.extractor.Text(p.Path(doc.StoragePath), doc.FileType)
	}
	obj, err := a.objects.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open object: %w", err)
	}
	defer obj.Close()
	tmp, err := os.CreateTemp("", "docstudy-extract-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, obj); err != nil {
		tmp.Close()
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return a.extractor.Text(tmp.Name(), doc.FileType)
}

func translateExtractionError(err error) error {
	return fmt.Errorf("%w: %v", ErrExtraction, err)
}

func translateAIError(err error) error {
	if errors.Is(err, ai.ErrMalformedResponse) {
		return fmt.Errorf("%w: %v", ErrAIMalformed, err)
	}
	return fmt.Errorf("%w: %v", ErrAIRequest, err)
}
