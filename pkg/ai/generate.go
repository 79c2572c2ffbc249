package ai

import (
	"context"
	"fmt"

	"docstudy/pkg/domain"
)

// Summary asks the model for a plain-text summary of the document text.
func (c *GeminiClient) Summary(ctx context.Context, text string) (string, error) {
	return c.GenerateText(ctx, "Summarize the following text:\n\n"+text)
}

// QuestionsAnswers asks the model for five question and answer pairs.
func (c *GeminiClient) QuestionsAnswers(ctx context.Context, text string) ([]domain.QAPair, error) {
	prompt := `Based on the following text, generate 5 relevant question and answer pairs in JSON format like [{ "question": "...", "answer": "..." }]:` + "\n\n" + text
	raw, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var pairs []domain.QAPair
	if err := firstJSONArray(raw, &pairs); err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if p.Question == "" || p.Answer == "" {
			return nil, fmt.Errorf("%w: incomplete question pair", ErrMalformedResponse)
		}
	}
	return pairs, nil
}

// Quiz asks the model for three multiple-choice questions.
func (c *GeminiClient) Quiz(ctx context.Context, text string) ([]domain.QuizQuestion, error) {
	prompt := `Based on the following text, generate 3 multiple-choice quiz questions in JSON format like [{ "question": "...", "options": ["...", "...", "..."], "correctAnswer": "..." }]:` + "\n\n" + text
	raw, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var questions []domain.QuizQuestion
	if err := firstJSONArray(raw, &questions); err != nil {
		return nil, err
	}
	for _, q := range questions {
		if q.Question == "" || len(q.Options) == 0 || q.CorrectAnswer == "" {
			return nil, fmt.Errorf("%w: incomplete quiz question", ErrMalformedResponse)
		}
	}
	return questions, nil
}

// Chat answers a free-form question, optionally grounded on document context.
func (c *GeminiClient) Chat(ctx context.Context, prompt, docContext string) (string, error) {
	full := "Answer the question: " + prompt
	if docContext != "" {
		full = "Given the following context:\n\n" + docContext + "\n\nAnswer the question: " + prompt
	}
	return c.GenerateText(ctx, full)
}
