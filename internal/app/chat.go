package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"docstudy/pkg/domain"
)

const chatHistoryLimit = 50

// Chat answers a prompt, optionally grounded on one of the caller's
// documents. When the document text cannot be extracted, the stored summary
// (possibly empty) is used as context instead. Successful exchanges are
// recorded in the chat history.
func (a *App) Chat(ctx context.Context, owner domain.User, prompt, documentID string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrPromptRequired
	}
	docContext := ""
	if documentID != "" {
		doc, ok, err := a.store.GetDocument(documentID, owner.ID)
		if err != nil {
			return "", fmt.Errorf("fetch document: %w", err)
		}
		if !ok {
			return "", ErrNotFound
		}
		text, err := a.documentText(ctx, doc)
		if err != nil || strings.TrimSpace(text) == "" {
			// Degrade to whatever summary was generated earlier.
			docContext = doc.Summary
		} else {
			docContext = text
		}
	}
	answer, err := a.ai.Chat(ctx, prompt, docContext)
	if err != nil {
		return "", translateAIError(err)
	}
	log := domain.ChatLog{
		ID:         uuid.NewString(),
		OwnerID:    owner.ID,
		DocumentID: documentID,
		Query:      prompt,
		Response:   answer,
		Timestamp:  time.Now().UTC(),
	}
	if err := a.store.AppendChatLog(log); err != nil {
		slog.Warn("append chat log failed", "error", err, "user_id", owner.ID)
	}
	return answer, nil
}

// Ask answers a prompt without any history side effects. Unlike Chat it
// hard-fails when the document text cannot be extracted.
func (a *App) Ask(ctx context.Context, owner domain.User, prompt, documentID string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrPromptRequired
	}
	docContext := ""
	if documentID != "" {
		doc, ok, err := a.store.GetDocument(documentID, owner.ID)
		if err != nil {
			return "", fmt.Errorf("fetch document: %w", err)
		}
		if !ok {
			return "", ErrNotFound
		}
		text, err := a.documentText(ctx, doc)
		if err != nil {
			return "", translateExtractionError(err)
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrExtraction
		}
		docContext = text
	}
	answer, err := a.ai.Chat(ctx, prompt, docContext)
	if err != nil {
		return "", translateAIError(err)
	}
	return answer, nil
}

// ChatHistory returns the caller's newest chat exchanges, optionally filtered
// by document.
func (a *App) ChatHistory(owner domain.User, documentID string) ([]domain.ChatLog, error) {
	return a.store.ListChatLogs(owner.ID, documentID, chatHistoryLimit)
}
