package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/recall/internal/apperr"
)

// ResolveTag maps a free-text tag name to a tag id, creating the tag when no
// tag with the same slug exists. Names that are blank or have an empty slug
// are skipped: ok is false and err is nil.
//
// Concurrent calls for the same slug all return the same id. The store's
// unique slug constraint decides the winner; losers read the row back.
func (e *Engine) ResolveTag(ctx context.Context, name string) (id string, ok bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, nil
	}
	slug := Slugify(name)
	if slug == "" {
		return "", false, nil
	}

	tag, err := e.store.CreateTag(ctx, name, slug)
	if err == nil {
		e.logger.Debug("tag created", slog.String("slug", slug), slog.String("id", tag.ID))
		return tag.ID, true, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return "", false, err
	}

	tag, err = e.store.FindTagBySlug(ctx, slug)
	if err != nil {
		return "", false, fmt.Errorf("engine: read back tag %q: %w", slug, err)
	}
	return tag.ID, true, nil
}

// ResolveTags resolves every name and returns the distinct ids in first-seen order.
func (e *Engine) ResolveTags(ctx context.Context, names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		id, ok, err := e.ResolveTag(ctx, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// AttachTags resolves names and links the resulting tags to itemID.
// Links that already exist are left as they are.
func (e *Engine) AttachTags(ctx context.Context, itemID string, names []string) error {
	ids, err := e.ResolveTags(ctx, names)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := e.store.LinkItemTag(ctx, itemID, id); err != nil {
			return err
		}
	}
	return nil
}
