// Package engine implements retrieval and context assembly: tag resolution,
// filtered item search, keyword extraction from questions, context window
// assembly and answer composition.
//
// The engine holds no mutable state of its own; every call reads from the
// Store and may run concurrently with any other call.
package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/starford/recall/internal/models"
)

const (
	// DefaultContextLimit is the maximum number of items in a context window.
	DefaultContextLimit = 10

	// SnippetLength is the maximum length, in characters, of a source snippet.
	SnippetLength = 200

	// NoMatchAnswer is returned when no item matches a question.
	NoMatchAnswer = "I don't have any notes that match your question. Try adding more items or using different keywords."
)

// Store is the item store consumed by the engine.
type Store interface {
	FindItems(ctx context.Context, f models.SearchFilter) ([]models.Item, error)
	FindItemByID(ctx context.Context, id string, scope models.OwnerScope) (*models.Item, error)
	ListTagsForItems(ctx context.Context, itemIDs []string) ([]models.ItemTag, error)
	// CreateTag returns apperr.ErrConflict when the slug is already taken.
	CreateTag(ctx context.Context, name, slug string) (*models.Tag, error)
	FindTagBySlug(ctx context.Context, slug string) (*models.Tag, error)
	LinkItemTag(ctx context.Context, itemID, tagID string) error
}

// Answerer produces an answer to question grounded in window.
type Answerer interface {
	AnswerFromContext(ctx context.Context, question string, window models.ContextWindow) (string, error)
}

// Engine wires a Store and an Answerer.
type Engine struct {
	store        Store
	answerer     Answerer
	contextLimit int
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithContextLimit overrides DefaultContextLimit. Non-positive values are ignored.
func WithContextLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.contextLimit = n
		}
	}
}

// New creates an Engine.
func New(store Store, answerer Answerer, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		answerer:     answerer,
		contextLimit: DefaultContextLimit,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
