package engine

import (
	"context"

	"github.com/starford/recall/internal/models"
)

// Search returns the items matching f, each with its full tag list attached.
func (e *Engine) Search(ctx context.Context, f models.SearchFilter) ([]models.Item, error) {
	if f.Sort == "" {
		f.Sort = models.SortNewest
	}
	items, err := e.store.FindItems(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := e.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem returns one item inside scope with its tags, or apperr.ErrNotFound.
func (e *Engine) GetItem(ctx context.Context, id string, scope models.OwnerScope) (*models.Item, error) {
	it, err := e.store.FindItemByID(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	items := []models.Item{*it}
	if err := e.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (e *Engine) attachTags(ctx context.Context, items []models.Item) error {
	for i := range items {
		items[i].Tags = []models.Tag{}
	}
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	pos := make(map[string]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
		pos[it.ID] = i
	}
	links, err := e.store.ListTagsForItems(ctx, ids)
	if err != nil {
		return err
	}
	for _, l := range links {
		i, ok := pos[l.ItemID]
		if !ok {
			continue
		}
		items[i].Tags = append(items[i].Tags, models.Tag{ID: l.TagID, Name: l.TagName, Slug: l.TagSlug})
	}
	return nil
}
