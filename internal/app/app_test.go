package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"docstudy/pkg/ai"
	"docstudy/pkg/domain"
	"docstudy/pkg/storage"
	"docstudy/pkg/store"
)

// fakeAI returns canned values and records whether it was called.
type fakeAI struct {
	summary    string
	pairs      []domain.QAPair
	quiz       []domain.QuizQuestion
	chatAnswer string
	err        error

	calls       int
	lastPrompt  string
	lastContext string
}

func (f *fakeAI) Summary(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.summary, f.err
}

func (f *fakeAI) QuestionsAnswers(_ context.Context, _ string) ([]domain.QAPair, error) {
	f.calls++
	return f.pairs, f.err
}

func (f *fakeAI) Quiz(_ context.Context, _ string) ([]domain.QuizQuestion, error) {
	f.calls++
	return f.quiz, f.err
}

func (f *fakeAI) Chat(_ context.Context, prompt, docContext string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastContext = docContext
	return f.chatAnswer, f.err
}

// fakeExtractor serves fixed text per file type regardless of path.
type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Text(_, _ string) (string, error) {
	return f.text, f.err
}

func newTestApp(t *testing.T, aiClient AI, extractor fakeExtractor) (*App, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	objects, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	sessions, err := store.NewJWTSessionStore("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	a, err := New(Config{
		Store:     mem,
		Sessions:  sessions,
		Objects:   objects,
		AI:        aiClient,
		Extractor: extractor,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, mem
}

func registerUser(t *testing.T, a *App, email string) domain.User {
	t.Helper()
	user, _, err := a.Register("Test User", email, "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func uploadDoc(t *testing.T, a *App, owner domain.User) domain.Document {
	t.Helper()
	doc, err := a.UploadDocument(context.Background(), owner, "doc.txt", domain.FileTypeText, strings.NewReader("some text"), 9)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return doc
}

func TestRegisterAndLogin(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{}, fakeExtractor{})
	user, token, err := a.Register("Ada", "Ada@Example.COM", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email not lowercased: %q", user.Email)
	}
	if token == "" {
		t.Fatal("expected session token")
	}
	got, ok := a.UserFromToken(token)
	if !ok || got.ID != user.ID {
		t.Fatalf("token did not resolve to user: %v %v", got, ok)
	}
	if _, _, err := a.Login("ada@example.com", "secret123"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{}, fakeExtractor{})
	cases := []struct {
		name, userName, email, password string
		want                            error
	}{
		{"missing name", "", "a@b.com", "secret123", ErrNameRequired},
		{"missing email", "Ada", "", "secret123", ErrEmailRequired},
		{"bad email", "Ada", "not-an-email", "secret123", ErrEmailInvalid},
		{"missing password", "Ada", "a@b.com", "", ErrPasswordRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := a.Register(tc.userName, tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("register = %v, want %v", err, tc.want)
			}
		})
	}
	if _, _, err := a.Register("Ada", "a@b.com", "short"); err == nil {
		t.Fatal("expected short password rejection")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{}, fakeExtractor{})
	registerUser(t, a, "dup@example.com")
	_, _, err := a.Register("Other", "DUP@example.com", "secret123")
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLoginGenericFailure(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{}, fakeExtractor{})
	registerUser(t, a, "user@example.com")
	_, _, unknownErr := a.Login("nobody@example.com", "secret123")
	_, _, wrongErr := a.Login("user@example.com", "wrong-password")
	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected identical invalid credential errors, got %v and %v", unknownErr, wrongErr)
	}
}

func TestUploadCreatesProcessingDocument(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{}, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)
	if doc.Status != domain.StatusProcessing {
		t.Fatalf("status = %q, want processing", doc.Status)
	}
	if doc.OwnerID != owner.ID {
		t.Fatalf("owner = %q, want %q", doc.OwnerID, owner.ID)
	}
}

func TestProcessSummaryHappyPath(t *testing.T) {
	aiClient := &fakeAI{summary: "a short summary"}
	a, _ := newTestApp(t, aiClient, fakeExtractor{text: "document body"})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	got, err := a.ProcessSummary(context.Background(), owner, doc.ID)
	if err != nil {
		t.Fatalf("process summary: %v", err)
	}
	if got.Status != domain.StatusReady {
		t.Fatalf("status = %q, want ready", got.Status)
	}
	if got.Summary != "a short summary" {
		t.Fatalf("summary = %q", got.Summary)
	}
}

func TestProcessEmptyTextNeverCallsAI(t *testing.T) {
	aiClient := &fakeAI{summary: "should not be used"}
	a, mem := newTestApp(t, aiClient, fakeExtractor{text: "   \n\t "})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	_, err := a.ProcessSummary(context.Background(), owner, doc.ID)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if aiClient.calls != 0 {
		t.Fatalf("ai called %d times, want 0", aiClient.calls)
	}
	stored, _, _ := mem.GetDocument(doc.ID, owner.ID)
	if stored.Status != domain.StatusError {
		t.Fatalf("status = %q, want error", stored.Status)
	}
}

func TestProcessAIFailureMarksError(t *testing.T) {
	aiClient := &fakeAI{err: fmt.Errorf("%w: nothing usable", ai.ErrMalformedResponse)}
	a, mem := newTestApp(t, aiClient, fakeExtractor{text: "document body"})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	_, err := a.ProcessQA(context.Background(), owner, doc.ID)
	if !errors.Is(err, ErrAIMalformed) {
		t.Fatalf("expected ErrAIMalformed, got %v", err)
	}
	stored, _, _ := mem.GetDocument(doc.ID, owner.ID)
	if stored.Status != domain.StatusError {
		t.Fatalf("status = %q, want error", stored.Status)
	}
}

func TestProcessQuizPersistsQuestions(t *testing.T) {
	quiz := []domain.QuizQuestion{{Question: "Q?", Options: []string{"a", "b"}, CorrectAnswer: "a"}}
	a, _ := newTestApp(t, &fakeAI{quiz: quiz}, fakeExtractor{text: "body"})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	if _, err := a.ProcessQuiz(context.Background(), owner, doc.ID); err != nil {
		t.Fatalf("process quiz: %v", err)
	}
	got, err := a.GetQuiz(owner, doc.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(got) != 1 || got[0].Question != "Q?" {
		t.Fatalf("quiz = %+v", got)
	}
}

func TestProcessForeignDocumentNotFound(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{summary: "s"}, fakeExtractor{text: "body"})
	owner := registerUser(t, a, "owner@example.com")
	other := registerUser(t, a, "other@example.com")
	doc := uploadDoc(t, a, owner)

	_, err := a.ProcessSummary(context.Background(), other, doc.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign document, got %v", err)
	}
}

func TestDeleteDocumentRemovesFileAndRecord(t *testing.T) {
	a, mem := newTestApp(t, &fakeAI{}, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	if err := a.DeleteDocument(context.Background(), owner, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := mem.GetDocument(doc.ID, owner.ID); ok {
		t.Fatal("document record should be gone")
	}
}

func TestDeleteDocumentKeepsRecordWhenFileMissing(t *testing.T) {
	a, mem := newTestApp(t, &fakeAI{}, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	// Remove the backing file behind the store's back.
	if err := a.objects.Delete(context.Background(), doc.StoragePath); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	if err := a.DeleteDocument(context.Background(), owner, doc.ID); err == nil {
		t.Fatal("expected delete to fail with missing file")
	}
	if _, ok, _ := mem.GetDocument(doc.ID, owner.ID); !ok {
		t.Fatal("document record should be kept after failed delete")
	}
}

func TestChatFallsBackToSummaryAndLogs(t *testing.T) {
	aiClient := &fakeAI{chatAnswer: "the answer"}
	a, _ := newTestApp(t, aiClient, fakeExtractor{err: errors.New("boom")})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)
	doc.Summary = "stored summary"
	if err := a.store.SaveDocument(doc); err != nil {
		t.Fatalf("save document: %v", err)
	}

	answer, err := a.Chat(context.Background(), owner, "what is this?", doc.ID)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("answer = %q", answer)
	}
	if aiClient.lastContext != "stored summary" {
		t.Fatalf("context = %q, want stored summary fallback", aiClient.lastContext)
	}
	history, err := a.ChatHistory(owner, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Query != "what is this?" || history[0].Response != "the answer" {
		t.Fatalf("history = %+v", history)
	}
}

func TestChatWithoutContextHasNoPreamble(t *testing.T) {
	aiClient := &fakeAI{chatAnswer: "ok"}
	a, _ := newTestApp(t, aiClient, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")

	if _, err := a.Chat(context.Background(), owner, "plain question", ""); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if aiClient.lastContext != "" {
		t.Fatalf("context = %q, want empty", aiClient.lastContext)
	}
}

func TestChatFailureDoesNotLog(t *testing.T) {
	aiClient := &fakeAI{err: errors.New("model down")}
	a, _ := newTestApp(t, aiClient, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")

	if _, err := a.Chat(context.Background(), owner, "q", ""); err == nil {
		t.Fatal("expected chat failure")
	}
	history, _ := a.ChatHistory(owner, "")
	if len(history) != 0 {
		t.Fatalf("history should stay empty on failure, got %+v", history)
	}
}

func TestAskHardFailsOnExtraction(t *testing.T) {
	aiClient := &fakeAI{chatAnswer: "nope"}
	a, _ := newTestApp(t, aiClient, fakeExtractor{err: errors.New("boom")})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	_, err := a.Ask(context.Background(), owner, "q", doc.ID)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if aiClient.calls != 0 {
		t.Fatalf("ai called %d times, want 0", aiClient.calls)
	}
	history, _ := a.ChatHistory(owner, "")
	if len(history) != 0 {
		t.Fatal("ask must not write history")
	}
}

func TestChatHistoryCapAndOrder(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{chatAnswer: "a"}, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 60; i++ {
		entry := domain.ChatLog{
			ID:        fmt.Sprintf("log-%d", i),
			OwnerID:   owner.ID,
			Query:     fmt.Sprintf("q-%d", i),
			Response:  "r",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := a.store.AppendChatLog(entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	history, err := a.ChatHistory(owner, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 50 {
		t.Fatalf("history len = %d, want 50", len(history))
	}
	if history[0].Query != "q-59" {
		t.Fatalf("newest first expected, got %q", history[0].Query)
	}
	if history[49].Query != "q-10" {
		t.Fatalf("oldest kept should be q-10, got %q", history[49].Query)
	}
}

func TestNotesLifecycle(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{}, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	note, err := a.CreateNote(owner, doc.ID, "first thought")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	updated, err := a.UpdateNote(owner, note.ID, "second thought")
	if err != nil {
		t.Fatalf("update note: %v", err)
	}
	if updated.Content != "second thought" {
		t.Fatalf("content = %q", updated.Content)
	}
	notes, err := a.ListNotesByDocument(owner, doc.ID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notes len = %d", len(notes))
	}
	if err := a.DeleteNote(owner, note.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	notes, _ = a.ListNotesByDocument(owner, doc.ID)
	if len(notes) != 0 {
		t.Fatalf("notes should be empty, got %+v", notes)
	}
}

func TestNotesOwnership(t *testing.T) {
	a, _ := newTestApp(t, &fakeAI{}, fakeExtractor{})
	owner := registerUser(t, a, "owner@example.com")
	other := registerUser(t, a, "other@example.com")
	doc := uploadDoc(t, a, owner)
	note, err := a.CreateNote(owner, doc.ID, "mine")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	if _, err := a.CreateNote(other, doc.ID, "not yours"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign document note create should be not found, got %v", err)
	}
	if _, err := a.UpdateNote(other, note.ID, "hijack"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign note update should be not found, got %v", err)
	}
	if err := a.DeleteNote(other, note.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign note delete should be not found, got %v", err)
	}
	if _, err := a.ListNotesByDocument(other, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign document note list should be not found, got %v", err)
	}
}

func TestLogSearchFoundResults(t *testing.T) {
	a, mem := newTestApp(t, &fakeAI{}, fakeExtractor{})
	owner := registerUser(t, a, "u@example.com")
	doc := uploadDoc(t, a, owner)

	entry, err := a.LogSearch(owner, "mitochondria", doc.ID)
	if err != nil {
		t.Fatalf("log search: %v", err)
	}
	if !entry.FoundResults {
		t.Fatal("expected foundResults for owned document context")
	}
	entry, err = a.LogSearch(owner, "mitochondria", "missing-doc")
	if err != nil {
		t.Fatalf("log search: %v", err)
	}
	if entry.FoundResults {
		t.Fatal("expected foundResults=false for unknown document context")
	}
	if len(mem.SearchLogs()) != 2 {
		t.Fatalf("search logs = %d, want 2", len(mem.SearchLogs()))
	}
}
