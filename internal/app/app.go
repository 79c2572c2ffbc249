// Package app holds the core application logic behind the HTTP layer.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docstudy/pkg/ai"
	"docstudy/pkg/domain"
	"docstudy/pkg/extract"
	"docstudy/pkg/storage"
	"docstudy/pkg/store"
)

// AI generates text and structured study material from document text.
type AI interface {
	Summary(ctx context.Context, text string) (string, error)
	QuestionsAnswers(ctx context.Context, text string) ([]domain.QAPair, error)
	Quiz(ctx context.Context, text string) ([]domain.QuizQuestion, error)
	Chat(ctx context.Context, prompt, docContext string) (string, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL  string
	JWTSecret    string
	SessionTTL   time.Duration
	UploadDir    string
	GeminiAPIKey string
	GeminiModel  string

	// Injection points; built from the fields above when nil.
	Store     store.Store
	Sessions  store.SessionStore
	Objects   storage.ObjectStore
	AI        AI
	Extractor extract.Extractor
}

// App is the core application service wiring storage, extraction and AI.
type App struct {
	store     store.Store
	sessions  store.SessionStore
	objects   storage.ObjectStore
	ai        AI
	extractor extract.Extractor

	// Serializes processing actions per document so concurrent summary/qa/quiz
	// calls cannot overwrite each other's persisted fields.
	procMu    sync.Mutex
	procLocks map[string]*sync.Mutex
}

// New constructs the application. Collaborators not supplied in cfg are built
// from the remaining configuration.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		var err error
		sessionStore, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
	}

	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}

	aiClient := cfg.AI
	if aiClient == nil {
		var err error
		aiClient, err = ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init ai client: %w", err)
		}
	}

	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extract.FileExtractor{}
	}

	return &App{
		store:     dataStore,
		sessions:  sessionStore,
		objects:   objects,
		ai:        aiClient,
		extractor: extractor,
		procLocks: make(map[string]*sync.Mutex),
	}, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, ok, err := a.store.GetUserByID(uid)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return user, true
}

func (a *App) lockDocument(id string) func() {
	a.procMu.Lock()
	mu, ok := a.procLocks[id]
	if !ok {
		mu = &sync.Mutex{}
		a.procLocks[id] = mu
	}
	a.procMu.Unlock()
	mu.Lock()
	return mu.Unlock
}
