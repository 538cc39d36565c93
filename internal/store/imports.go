package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/recall/internal/apperr"
)

// ImportRecord links a vault file to the item it was imported as.
type ImportRecord struct {
	Path     string
	ItemID   string
	Checksum string
}

// GetImport returns the import record for path, or apperr.ErrNotFound.
func (db *DB) GetImport(ctx context.Context, path string) (*ImportRecord, error) {
	rec := ImportRecord{Path: path}
	err := db.conn.QueryRowContext(ctx,
		`SELECT item_id, checksum FROM imports WHERE path = ?`, path).Scan(&rec.ItemID, &rec.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get import: %w", err)
	}
	return &rec, nil
}

// PutImport inserts or replaces the import record for rec.Path.
func (db *DB) PutImport(ctx context.Context, rec ImportRecord) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO imports (path, item_id, checksum) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			item_id  = excluded.item_id,
			checksum = excluded.checksum
	`, rec.Path, rec.ItemID, rec.Checksum)
	if err != nil {
		return fmt.Errorf("store: put import: %w", err)
	}
	return nil
}

// AllImportChecksums returns path → checksum for every imported file.
func (db *DB) AllImportChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM imports`)
	if err != nil {
		return nil, fmt.Errorf("store: all imports: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
