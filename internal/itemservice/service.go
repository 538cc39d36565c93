// Package itemservice implements the item flows around the retrieval engine:
// capture, update, tagging, AI summaries and question answering.
package itemservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/starford/recall/internal/ai"
	"github.com/starford/recall/internal/apperr"
	"github.com/starford/recall/internal/engine"
	"github.com/starford/recall/internal/models"
	"github.com/starford/recall/internal/store"
)

// Item event kinds passed to an EventFunc.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventTagged  = "tagged"
)

// EventFunc is called with the item as stored after a successful mutation.
type EventFunc func(kind string, it *models.Item)

// CreateItemInput is the payload for a new item.
type CreateItemInput struct {
	Title     string   `json:"title"`
	Body      string   `json:"content"`
	Kind      string   `json:"type"`
	SourceURL string   `json:"sourceUrl"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
}

// Validate trims the text fields and checks required values.
func (in *CreateItemInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.SourceURL = strings.TrimSpace(in.SourceURL)
	in.Summary = strings.TrimSpace(in.Summary)
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Body, validation.Required),
		validation.Field(&in.Kind, validation.Required,
			validation.In(string(models.KindNote), string(models.KindLink), string(models.KindInsight))),
		validation.Field(&in.SourceURL, is.URL),
	)
}

// UpdateItemInput is a partial update. Nil fields are left unchanged.
type UpdateItemInput struct {
	Title     *string
	Body      *string
	SourceURL *string
	Summary   *string
}

// Validate rejects updates that would blank the title or body.
func (in *UpdateItemInput) Validate() error {
	for _, f := range []struct {
		name string
		v    *string
	}{{"title", in.Title}, {"content", in.Body}} {
		if f.v != nil && strings.TrimSpace(*f.v) == "" {
			return fmt.Errorf("%s: cannot be blank", f.name)
		}
	}
	return nil
}

// Service coordinates the store, the retrieval engine and the AI provider.
type Service struct {
	db       *store.DB
	engine   *engine.Engine
	provider ai.Provider
	onEvent  EventFunc
	now      func() time.Time
}

// NewService creates a new item service. onEvent may be nil.
func NewService(db *store.DB, eng *engine.Engine, provider ai.Provider, onEvent EventFunc) *Service {
	return &Service{
		db:       db,
		engine:   eng,
		provider: provider,
		onEvent:  onEvent,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateItem validates in, stores the item for scope's owner (or as a public
// item for the public scope) and attaches its tags.
func (s *Service) CreateItem(ctx context.Context, scope models.OwnerScope, in CreateItemInput) (*models.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if scope.IsUnscoped() {
		return nil, fmt.Errorf("%w: an owner or public scope is required", apperr.ErrValidation)
	}

	now := s.now()
	it := &models.Item{
		ID:        uuid.NewString(),
		Kind:      models.ItemKind(in.Kind),
		Title:     in.Title,
		Body:      in.Body,
		SourceURL: optional(in.SourceURL),
		Summary:   optional(in.Summary),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if owner, ok := scope.Owner(); ok {
		it.OwnerID = &owner
	}
	if err := s.db.CreateItem(ctx, it); err != nil {
		return nil, err
	}
	if err := s.engine.AttachTags(ctx, it.ID, in.Tags); err != nil {
		return nil, err
	}
	return s.reload(ctx, EventCreated, it.ID, scope)
}

// GetItem returns one item with its tags.
func (s *Service) GetItem(ctx context.Context, id string, scope models.OwnerScope) (*models.Item, error) {
	return s.engine.GetItem(ctx, id, scope)
}

// UpdateItem applies a partial update.
func (s *Service) UpdateItem(ctx context.Context, id string, scope models.OwnerScope, in UpdateItemInput) (*models.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	patch := store.ItemPatch{
		Title:     trimmed(in.Title),
		Body:      trimmed(in.Body),
		SourceURL: in.SourceURL,
		Summary:   in.Summary,
	}
	if err := s.db.UpdateItem(ctx, id, scope, patch, s.now()); err != nil {
		return nil, err
	}
	return s.reload(ctx, EventUpdated, id, scope)
}

// AddTags resolves names and links them to the item.
func (s *Service) AddTags(ctx context.Context, id string, scope models.OwnerScope, names []string) (*models.Item, error) {
	if _, err := s.engine.GetItem(ctx, id, scope); err != nil {
		return nil, err
	}
	if err := s.engine.AttachTags(ctx, id, names); err != nil {
		return nil, err
	}
	return s.reload(ctx, EventTagged, id, scope)
}

// ListItems runs a filtered search.
func (s *Service) ListItems(ctx context.Context, f models.SearchFilter) ([]models.Item, error) {
	return s.engine.Search(ctx, f)
}

// ListTags returns every tag.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.db.ListTags(ctx)
}

// Summarize asks the provider for a summary and stores it on the item.
func (s *Service) Summarize(ctx context.Context, id string, scope models.OwnerScope) (string, *models.Item, error) {
	it, err := s.engine.GetItem(ctx, id, scope)
	if err != nil {
		return "", nil, err
	}
	summary, err := s.provider.Summarize(ctx, it.Title, it.Body)
	if err != nil {
		return "", nil, err
	}
	updated, err := s.UpdateItem(ctx, id, scope, UpdateItemInput{Summary: &summary})
	if err != nil {
		return "", nil, err
	}
	return summary, updated, nil
}

// AutoTag asks the provider for tag suggestions and attaches them.
func (s *Service) AutoTag(ctx context.Context, id string, scope models.OwnerScope) ([]string, *models.Item, error) {
	it, err := s.engine.GetItem(ctx, id, scope)
	if err != nil {
		return nil, nil, err
	}
	tags, err := s.provider.SuggestTags(ctx, it.Title, it.Body)
	if err != nil {
		return nil, nil, err
	}
	updated, err := s.AddTags(ctx, id, scope, tags)
	if err != nil {
		return nil, nil, err
	}
	return tags, updated, nil
}

// Ask answers question from the items visible in scope.
func (s *Service) Ask(ctx context.Context, question string, scope models.OwnerScope) (*models.AnswerResult, error) {
	return s.engine.Answer(ctx, question, scope)
}

// reload reads the item back with its tags and announces the change.
func (s *Service) reload(ctx context.Context, kind, id string, scope models.OwnerScope) (*models.Item, error) {
	it, err := s.engine.GetItem(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	if s.onEvent != nil {
		s.onEvent(kind, it)
	}
	return it, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
