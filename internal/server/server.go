// Package server exposes the HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"docstudy/internal/app"
	"docstudy/internal/ratelimit"
	"docstudy/internal/util"
	"docstudy/pkg/auth"
	"docstudy/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App             *app.App
	MaxUploadBytes  int64
	TrustedProxies  *util.TrustedProxies
	RegisterLimiter *ratelimit.FixedWindowLimiter
	LoginLimiter    *ratelimit.FixedWindowLimiter
	ChatLimiter     *ratelimit.FixedWindowLimiter
}

// Server routes HTTP requests to the application.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	maxUploadBytes  int64
	trustedProxies  *util.TrustedProxies
	registerLimiter *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
	chatLimiter     *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		maxUploadBytes:  maxUploadBytes,
		trustedProxies:  cfg.TrustedProxies,
		registerLimiter: cfg.RegisterLimiter,
		loginLimiter:    cfg.LoginLimiter,
		chatLimiter:     cfg.ChatLimiter,
	}
	s.routes()
	return s
}

// Router returns the configured handler wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public
	s.mux.Handle("/api/auth/register", s.withLimit(s.registerLimiter, http.HandlerFunc(s.handleRegister)))
	s.mux.Handle("/api/auth/login", s.withLimit(s.loginLimiter, http.HandlerFunc(s.handleLogin)))

	// documents
	s.mux.Handle("/api/documents", s.withUser(s.handleDocuments))
	s.mux.Handle("/api/documents/", s.withUser(s.handleDocumentSubpath))

	// notes
	s.mux.Handle("/api/notes", s.withUser(s.handleCreateNote))
	s.mux.Handle("/api/notes/", s.withUser(s.handleNoteSubpath))

	// chat
	s.mux.Handle("/api/chat", s.withLimit(s.chatLimiter, s.withUser(s.handleChat)))
	s.mux.Handle("/api/chat/history", s.withUser(s.handleChatHistory))
	s.mux.Handle("/api/ai/chat", s.withLimit(s.chatLimiter, s.withUser(s.handleAsk)))

	// search log
	s.mux.Handle("/api/log/search", s.withUser(s.handleLogSearch))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) withLimit(limiter *ratelimit.FixedWindowLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(util.ClientIP(r, s.trustedProxies)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// auth

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, token, err := s.app.Register(req.Name, req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// documents

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	docs, err := s.app.ListDocuments(user)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": docs,
		"count": len(docs),
	})
}

// /api/documents/upload, /api/documents/{id}, /api/documents/{id}/quiz,
// /api/documents/{id}/process/{summary|qa|quiz}
func (s *Server) handleDocumentSubpath(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1 && parts[0] == "upload":
		s.handleUploadDocument(w, r, user)
	case len(parts) == 1 && parts[0] != "":
		s.handleDocumentByID(w, r, user, parts[0])
	case len(parts) == 2 && parts[1] == "quiz":
		s.handleGetQuiz(w, r, user, parts[0])
	case len(parts) == 3 && parts[1] == "process":
		s.handleProcess(w, r, user, parts[0], parts[2])
	default:
		notFound(w)
	}
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	if header.Size > s.maxUploadBytes {
		writeError(w, http.StatusBadRequest, "file too large")
		return
	}
	fileType, ok := canonicalFileType(header.Filename, header.Header.Get("Content-Type"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}
	doc, err := s.app.UploadDocument(r.Context(), user, header.Filename, fileType, file, header.Size)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	switch r.Method {
	case http.MethodGet:
		doc, err := s.app.GetDocument(user, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := s.app.DeleteDocument(r.Context(), user, id); err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	quiz, err := s.app.GetQuiz(user, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if quiz == nil {
		quiz = []domain.QuizQuestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz": quiz})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request, user domain.User, id, action string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var (
		doc domain.Document
		err error
	)
	switch action {
	case "summary":
		doc, err = s.app.ProcessSummary(r.Context(), user, id)
	case "qa":
		doc, err = s.app.ProcessQA(r.Context(), user, id)
	case "quiz":
		doc, err = s.app.ProcessQuiz(r.Context(), user, id)
	default:
		notFound(w)
		return
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// notes

type noteRequest struct {
	DocumentID string `json:"documentId"`
	Content    string `json:"content"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := s.app.CreateNote(user, req.DocumentID, req.Content)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// /api/notes/{id} or /api/notes/document/{documentId}
func (s *Server) handleNoteSubpath(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 2 && parts[0] == "document":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		notes, err := s.app.ListNotesByDocument(user, parts[1])
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if notes == nil {
			notes = []domain.Note{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": notes,
			"count": len(notes),
		})
	case len(parts) == 1 && parts[0] != "":
		s.handleNoteByID(w, r, user, parts[0])
	default:
		notFound(w)
	}
}

func (s *Server) handleNoteByID(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	switch r.Method {
	case http.MethodPut:
		var req noteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		note, err := s.app.UpdateNote(user, id, req.Content)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodDelete:
		if err := s.app.DeleteNote(user, id); err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// chat

type chatRequest struct {
	Prompt     string `json:"prompt"`
	DocumentID string `json:"documentId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	answer, err := s.app.Chat(r.Context(), user, req.Prompt, req.DocumentID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	answer, err := s.app.Ask(r.Context(), user, req.Prompt, req.DocumentID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	history, err := s.app.ChatHistory(user, r.URL.Query().Get("documentId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if history == nil {
		history = []domain.ChatLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": history,
		"count": len(history),
	})
}

// search log

type searchLogRequest struct {
	Query           string `json:"query"`
	DocumentContext string `json:"documentContext"`
}

func (s *Server) handleLogSearch(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req searchLogRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := s.app.LogSearch(user, req.Query, req.DocumentContext)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// helpers

func canonicalFileType(filename, contentType string) (string, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return domain.FileTypePDF, true
	case ".docx":
		return domain.FileTypeDOCX, true
	case ".txt":
		return domain.FileTypeText, true
	}
	switch strings.TrimSpace(strings.Split(contentType, ";")[0]) {
	case domain.FileTypePDF:
		return domain.FileTypePDF, true
	case domain.FileTypeDOCX:
		return domain.FileTypeDOCX, true
	case domain.FileTypeText:
		return domain.FileTypeText, true
	}
	return "", false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

var validationErrors = []error{
	app.ErrNameRequired,
	app.ErrEmailRequired,
	app.ErrEmailInvalid,
	app.ErrPasswordRequired,
	app.ErrPromptRequired,
	app.ErrQueryRequired,
	app.ErrContentRequired,
	app.ErrDocumentRequired,
	auth.ErrPasswordTooShort,
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	for _, verr := range validationErrors {
		if errors.Is(err, verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
	}
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, app.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, "email already exists")
	case errors.Is(err, app.ErrNotFound):
		notFound(w)
	case errors.Is(err, app.ErrExtraction):
		writeError(w, http.StatusInternalServerError, "text extraction failed")
	case errors.Is(err, app.ErrAIMalformed):
		writeError(w, http.StatusInternalServerError, "ai response malformed")
	case errors.Is(err, app.ErrAIRequest):
		writeError(w, http.StatusInternalServerError, "ai request failed")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == "invalid credentials":
		return "AUTH_INVALID_CREDENTIALS"
	case message == "email already exists":
		return "AUTH_EMAIL_EXISTS"
	case message == "file too large":
		return "DOC_FILE_TOO_LARGE"
	case message == "unsupported file type":
		return "DOC_UNSUPPORTED_FILE_TYPE"
	case strings.Contains(message, "file is required"):
		return "DOC_FILE_REQUIRED"
	case message == "text extraction failed":
		return "DOC_EXTRACTION_FAILED"
	case message == "ai response malformed":
		return "AI_RESPONSE_MALFORMED"
	case message == "ai request failed":
		return "AI_REQUEST_FAILED"
	case message == "too many requests":
		return "RATE_LIMITED"
	}
	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusNotFound:
		return "RESOURCE_NOT_FOUND"
	case http.StatusConflict:
		return "RESOURCE_CONFLICT"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
