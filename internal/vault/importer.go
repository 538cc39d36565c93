// Package vault imports a directory of Markdown files as items and keeps
// them in step with the files while the server runs.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/recall/internal/apperr"
	"github.com/starford/recall/internal/itemservice"
	"github.com/starford/recall/internal/models"
	"github.com/starford/recall/internal/parser"
	"github.com/starford/recall/internal/storage"
	"github.com/starford/recall/internal/store"
)

// Outcome of importing one file.
const (
	Created   = "created"
	Updated   = "updated"
	Unchanged = "unchanged"
)

// Stats counts the outcomes of a Sync pass.
type Stats struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

// Importer turns vault files into items owned by a single scope.
type Importer struct {
	files  storage.Provider
	db     *store.DB
	items  *itemservice.Service
	scope  models.OwnerScope
	logger *slog.Logger
}

// NewImporter creates an importer that writes items into scope.
func NewImporter(files storage.Provider, db *store.DB, items *itemservice.Service, scope models.OwnerScope, logger *slog.Logger) *Importer {
	return &Importer{files: files, db: db, items: items, scope: scope, logger: logger}
}

// Sync walks the vault and imports every new or changed file. Files that
// fail to parse or validate are logged and counted; they do not stop the pass.
// Items whose files have been removed are kept.
func (im *Importer) Sync(ctx context.Context) (Stats, error) {
	var st Stats
	metas, err := im.files.List("")
	if err != nil {
		return st, err
	}
	known, err := im.db.AllImportChecksums(ctx)
	if err != nil {
		return st, err
	}

	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if known[m.Path] == m.Checksum {
			st.Unchanged++
			continue
		}
		data, err := im.files.Read(m.Path)
		if err != nil {
			im.logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			st.Failed++
			continue
		}
		outcome, err := im.ImportFile(ctx, m.Path, data)
		if err != nil {
			im.logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			st.Failed++
			continue
		}
		im.logger.Debug("sync: imported", slog.String("path", m.Path), slog.String("op", outcome))
		switch outcome {
		case Created:
			st.Created++
		case Updated:
			st.Updated++
		default:
			st.Unchanged++
		}
	}
	return st, nil
}

// ImportFile creates or updates the item backing path from data. A file whose
// checksum matches the last import is left alone.
func (im *Importer) ImportFile(ctx context.Context, filePath string, data []byte) (string, error) {
	sum := storage.Checksum(data)
	prev, err := im.db.GetImport(ctx, filePath)
	switch {
	case err == nil && prev.Checksum == sum:
		return Unchanged, nil
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return "", err
	}

	res, err := parser.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filePath, err)
	}
	if res.Title == "" {
		res.Title = strings.TrimSuffix(path.Base(filePath), ".md")
	}

	outcome := Created
	var it *models.Item
	if prev != nil {
		it, err = im.update(ctx, prev.ItemID, res)
		if errors.Is(err, apperr.ErrNotFound) {
			it, err = nil, nil
		} else {
			outcome = Updated
		}
	}
	if err != nil {
		return "", err
	}
	if it == nil {
		outcome = Created
		it, err = im.items.CreateItem(ctx, im.scope, itemservice.CreateItemInput{
			Title:     res.Title,
			Body:      res.Body,
			Kind:      res.Kind,
			SourceURL: res.SourceURL,
			Summary:   res.Summary,
			Tags:      res.Tags,
		})
		if err != nil {
			return "", err
		}
	}

	if err := im.db.PutImport(ctx, store.ImportRecord{Path: filePath, ItemID: it.ID, Checksum: sum}); err != nil {
		return "", err
	}
	return outcome, nil
}

func (im *Importer) update(ctx context.Context, id string, res *parser.Result) (*models.Item, error) {
	in := itemservice.UpdateItemInput{Title: &res.Title, Body: &res.Body}
	if res.SourceURL != "" {
		in.SourceURL = &res.SourceURL
	}
	if res.Summary != "" {
		in.Summary = &res.Summary
	}
	it, err := im.items.UpdateItem(ctx, id, im.scope, in)
	if err != nil {
		return nil, err
	}
	if len(res.Tags) == 0 {
		return it, nil
	}
	return im.items.AddTags(ctx, id, im.scope, res.Tags)
}
