package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/recall/internal/apperr"
	"github.com/starford/recall/internal/models"
)

// CreateTag inserts a tag with a fresh id. When a tag with the same slug
// already exists nothing is written and apperr.ErrConflict is returned.
func (db *DB) CreateTag(ctx context.Context, name, slug string) (*models.Tag, error) {
	var t models.Tag
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO tags (id, name, slug) VALUES (?, ?, ?)
		ON CONFLICT(slug) DO NOTHING
		RETURNING id, name, slug
	`, uuid.NewString(), name, slug).Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("store: create tag: %w", err)
	}
	return &t, nil
}

// FindTagBySlug returns the tag with the given slug, or apperr.ErrNotFound.
func (db *DB) FindTagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var t models.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug FROM tags WHERE slug = ?`, slug).Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find tag: %w", err)
	}
	return &t, nil
}

// LinkItemTag associates an item with a tag. Re-linking is a no-op.
func (db *DB) LinkItemTag(ctx context.Context, itemID, tagID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)`, itemID, tagID)
	if err != nil {
		return fmt.Errorf("store: link item tag: %w", err)
	}
	return nil
}

// ListTagsForItems returns every association of the given items joined with
// its tag, ordered by tag name.
func (db *DB) ListTagsForItems(ctx context.Context, itemIDs []string) ([]models.ItemTag, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT it.item_id, t.id, t.name, t.slug
		FROM item_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.item_id IN (`+placeholders(len(itemIDs))+`)
		ORDER BY t.name, t.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list item tags: %w", err)
	}
	defer rows.Close()

	var out []models.ItemTag
	for rows.Next() {
		var r models.ItemTag
		if err := rows.Scan(&r.ItemID, &r.TagID, &r.TagName, &r.TagSlug); err != nil {
			return nil, fmt.Errorf("store: list item tags: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTags returns all tags ordered by name.
func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("store: list tags: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountTagsBySlug returns how many tag rows carry slug.
func (db *DB) CountTagsBySlug(ctx context.Context, slug string) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM tags WHERE slug = ?`, slug).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count tags: %w", err)
	}
	return n, nil
}
