package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/recall/internal/apperr"
	"github.com/starford/recall/internal/models"
)

const itemColumns = `id, owner_id, kind, title, body, source_url, summary, created_at, updated_at`

// ItemPatch holds the fields of a partial item update. Nil fields are left unchanged.
type ItemPatch struct {
	Title     *string
	Body      *string
	SourceURL *string
	Summary   *string
}

// CreateItem inserts a new item. ID and timestamps must already be set.
func (db *DB) CreateItem(ctx context.Context, it *models.Item) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.OwnerID, string(it.Kind), it.Title, it.Body, it.SourceURL, it.Summary,
		it.CreatedAt.UnixNano(), it.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("store: create item: %w", err)
	}
	return nil
}

// UpdateItem applies p to the item with the given id inside scope and bumps
// updated_at. Items outside scope are reported as apperr.ErrNotFound.
func (db *DB) UpdateItem(ctx context.Context, id string, scope models.OwnerScope, p ItemPatch, now time.Time) error {
	sets := []string{"updated_at = ?"}
	args := []any{now.UnixNano()}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *p.Body)
	}
	if p.SourceURL != nil {
		sets = append(sets, "source_url = ?")
		args = append(args, *p.SourceURL)
	}
	if p.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *p.Summary)
	}

	where, whereArgs := scopeClause(scope)
	where = append([]string{"id = ?"}, where...)
	args = append(args, id)
	args = append(args, whereArgs...)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return fmt.Errorf("store: update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update item: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// FindItems returns the items matching f ordered by creation time. Tags are not
// attached; see ListTagsForItems.
func (db *DB) FindItems(ctx context.Context, f models.SearchFilter) ([]models.Item, error) {
	where, args := scopeClause(f.Scope)

	if text := strings.TrimSpace(f.Text); text != "" {
		where = append(where,
			"(contains_fold(title, ?) = 1 OR contains_fold(body, ?) = 1 OR contains_fold(COALESCE(summary, ''), ?) = 1)")
		args = append(args, text, text, text)
	}
	if f.Kind != nil {
		where = append(where, "kind = ?")
		args = append(args, string(*f.Kind))
	}
	if len(f.TagIDs) > 0 {
		where = append(where,
			"id IN (SELECT item_id FROM item_tags WHERE tag_id IN ("+placeholders(len(f.TagIDs))+"))")
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}

	q := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.Sort == models.SortOldest {
		q += ` ORDER BY created_at ASC, id ASC`
	} else {
		q += ` ORDER BY created_at DESC, id DESC`
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: find items: %w", err)
	}
	defer rows.Close()

	out := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("store: find items: %w", err)
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: find items: %w", err)
	}
	return out, nil
}

// FindItemByID returns the item with id inside scope, or apperr.ErrNotFound.
// An item owned by someone else is indistinguishable from a missing one.
func (db *DB) FindItemByID(ctx context.Context, id string, scope models.OwnerScope) (*models.Item, error) {
	where, args := scopeClause(scope)
	where = append([]string{"id = ?"}, where...)
	args = append([]any{id}, args...)

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+strings.Join(where, " AND ")+` LIMIT 1`, args...)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find item: %w", err)
	}
	return it, nil
}

func scopeClause(scope models.OwnerScope) ([]string, []any) {
	if owner, ok := scope.Owner(); ok {
		return []string{"owner_id = ?"}, []any{owner}
	}
	if scope.IsPublic() {
		return []string{"owner_id IS NULL"}, nil
	}
	return nil, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (*models.Item, error) {
	var (
		it                   models.Item
		owner, source, summ  sql.NullString
		kind                 string
		createdAt, updatedAt int64
	)
	if err := r.Scan(&it.ID, &owner, &kind, &it.Title, &it.Body, &source, &summ, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	it.Kind = models.ItemKind(kind)
	it.OwnerID = nullable(owner)
	it.SourceURL = nullable(source)
	it.Summary = nullable(summ)
	it.CreatedAt = time.Unix(0, createdAt).UTC()
	it.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &it, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
