package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/recall/internal/apperr"
	"github.com/starford/recall/internal/models"
)

// Assemble turns a question into a bounded context window. It searches scope
// for the question's keyword (or the whole trimmed question when no keyword
// can be extracted), newest first, and keeps at most the context limit.
// The returned items are exactly the ones projected into the window.
func (e *Engine) Assemble(ctx context.Context, question string, scope models.OwnerScope) (models.ContextWindow, []models.Item, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, nil, fmt.Errorf("%w: question is required", apperr.ErrValidation)
	}

	term := ExtractKeyword(q)
	if term == "" {
		term = q
	}
	e.logger.Debug("assembling context",
		slog.String("term", term),
		slog.String("scope", scope.String()))

	items, err := e.Search(ctx, models.SearchFilter{
		Scope: scope,
		Text:  term,
		Sort:  models.SortNewest,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(items) > e.contextLimit {
		items = items[:e.contextLimit]
	}

	window := make(models.ContextWindow, len(items))
	for i, it := range items {
		window[i] = models.ContextItem{
			Title:   it.Title,
			Body:    it.Body,
			Summary: it.SummaryText(),
		}
	}
	return window, items, nil
}
