package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeGemini returns a client pointed at a test server that replies to every
// generateContent call with the given text.
func fakeGemini(t *testing.T, reply func(prompt string) (string, int)) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := ""
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			prompt = req.Contents[0].Parts[0].Text
		}
		text, status := reply(prompt)
		w.WriteHeader(status)
		if status >= 400 {
			json.NewEncoder(w).Encode(errorResponse{})
			return
		}
		resp := generateResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content content `json:"content"`
		}{Content: content{Parts: []part{{Text: text}}}})
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	client, err := NewGeminiClient("test-key", "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.baseURL = srv.URL
	return client
}

func TestQuestionsAnswers(t *testing.T) {
	client := fakeGemini(t, func(prompt string) (string, int) {
		if !strings.Contains(prompt, "generate 5 relevant question and answer pairs") {
			t.Errorf("unexpected prompt: %q", prompt)
		}
		return "Here you go:\n" + `[{"question":"What is X?","answer":"Y."}]`, http.StatusOK
	})
	pairs, err := client.QuestionsAnswers(context.Background(), "some document text")
	if err != nil {
		t.Fatalf("QuestionsAnswers: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Question != "What is X?" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestQuizRejectsIncompleteQuestions(t *testing.T) {
	client := fakeGemini(t, func(string) (string, int) {
		return `[{"question":"Q?","options":[],"correctAnswer":"A"}]`, http.StatusOK
	})
	if _, err := client.Quiz(context.Background(), "text"); err == nil {
		t.Fatal("expected error for quiz question without options")
	}
}

func TestChatWithContextPrompt(t *testing.T) {
	var got string
	client := fakeGemini(t, func(prompt string) (string, int) {
		got = prompt
		return "answer", http.StatusOK
	})
	if _, err := client.Chat(context.Background(), "why?", "the context"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	want := "Given the following context:\n\nthe context\n\nAnswer the question: why?"
	if got != want {
		t.Fatalf("prompt = %q, want %q", got, want)
	}
}

func TestChatWithoutContextPrompt(t *testing.T) {
	var got string
	client := fakeGemini(t, func(prompt string) (string, int) {
		got = prompt
		return "answer", http.StatusOK
	})
	if _, err := client.Chat(context.Background(), "why?", ""); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "Answer the question: why?" {
		t.Fatalf("prompt = %q", got)
	}
}

func TestGenerateTextServerError(t *testing.T) {
	client := fakeGemini(t, func(string) (string, int) {
		return "", http.StatusInternalServerError
	})
	if _, err := client.GenerateText(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
