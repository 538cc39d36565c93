package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/recall/internal/models"
)

// Answer assembles the context for question and asks the Answerer. When no
// item matches, NoMatchAnswer is returned and the Answerer is not called.
func (e *Engine) Answer(ctx context.Context, question string, scope models.OwnerScope) (*models.AnswerResult, error) {
	window, items, err := e.Assemble(ctx, question, scope)
	if err != nil {
		return nil, err
	}
	if len(window) == 0 {
		return &models.AnswerResult{Answer: NoMatchAnswer, Sources: []models.Source{}}, nil
	}

	answer, err := e.answerer.AnswerFromContext(ctx, strings.TrimSpace(question), window)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("answer composed", slog.Int("sources", len(items)))

	return &models.AnswerResult{Answer: answer, Sources: Sources(items)}, nil
}

// Sources builds citation records for items in order.
func Sources(items []models.Item) []models.Source {
	out := make([]models.Source, len(items))
	for i, it := range items {
		text := it.SummaryText()
		if text == "" {
			text = it.Body
		}
		out[i] = models.Source{ID: it.ID, Title: it.Title, Snippet: truncate(text, SnippetLength)}
	}
	return out
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
