package vault_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/recall/internal/engine"
	"github.com/starford/recall/internal/itemservice"
	"github.com/starford/recall/internal/models"
	"github.com/starford/recall/internal/store"
	"github.com/starford/recall/internal/testutil"
	"github.com/starford/recall/internal/vault"
)

type env struct {
	dir   string
	db    *store.DB
	items *itemservice.Service
	imp   *vault.Importer
}

func newEnv(t *testing.T, scope models.OwnerScope) *env {
	t.Helper()
	dir, files := testutil.TestVault(t)
	db := testutil.TestDB(t)
	p := &testutil.FakeProvider{}
	items := itemservice.NewService(db, engine.New(db, p), p, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &env{dir: dir, db: db, items: items, imp: vault.NewImporter(files, db, items, scope, logger)}
}

func (e *env) write(t *testing.T, rel, content string) {
	t.Helper()
	abs := filepath.Join(e.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func (e *env) list(t *testing.T, scope models.OwnerScope) []models.Item {
	t.Helper()
	items, err := e.items.ListItems(context.Background(), models.SearchFilter{Scope: scope, Sort: models.SortOldest})
	require.NoError(t, err)
	return items
}

const sleepNote = `---
title: Sleep log
summary: Poor sleep this week.
tags: [sleep, health]
---
I didn't sleep well on Tuesday.
`

func TestSync_ImportsAndSkipsUnchanged(t *testing.T) {
	e := newEnv(t, models.ScopeOwner("u1"))
	e.write(t, "journal/sleep.md", sleepNote)
	e.write(t, "article.md", "---\nsource: https://example.com/x\n---\n# Great article\nWorth reading.\n")
	e.write(t, "empty.md", "---\ntitle: nothing here\n---\n")

	st, err := e.imp.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vault.Stats{Created: 2, Failed: 1}, st)

	items := e.list(t, models.ScopeOwner("u1"))
	require.Len(t, items, 2)
	byTitle := map[string]models.Item{}
	for _, it := range items {
		byTitle[it.Title] = it
	}
	sleep := byTitle["Sleep log"]
	assert.Equal(t, "Poor sleep this week.", sleep.SummaryText())
	assert.Len(t, sleep.Tags, 2)
	article := byTitle["Great article"]
	assert.Equal(t, models.KindLink, article.Kind)

	st, err = e.imp.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Unchanged)
	assert.Equal(t, 0, st.Created)
}

func TestSync_ChangedFileUpdatesItem(t *testing.T) {
	e := newEnv(t, models.ScopeOwner("u1"))
	e.write(t, "sleep.md", sleepNote)
	_, err := e.imp.Sync(context.Background())
	require.NoError(t, err)
	before := e.list(t, models.ScopeOwner("u1"))
	require.Len(t, before, 1)

	e.write(t, "sleep.md", "---\ntitle: Sleep log\ntags: [rest]\n---\nSlept better.\n")
	st, err := e.imp.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Updated)

	after := e.list(t, models.ScopeOwner("u1"))
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, "Slept better.", after[0].Body)
	assert.Len(t, after[0].Tags, 3)
}

func TestSync_PublicScope(t *testing.T) {
	e := newEnv(t, models.ScopePublic())
	e.write(t, "idea.md", "Insights are fun\n")
	_, err := e.imp.Sync(context.Background())
	require.NoError(t, err)

	items := e.list(t, models.ScopePublic())
	require.Len(t, items, 1)
	assert.Equal(t, "idea", items[0].Title)
	assert.Nil(t, items[0].OwnerID)
	assert.Empty(t, e.list(t, models.ScopeOwner("u1")))
}

func TestWatch_ImportsNewFile(t *testing.T) {
	e := newEnv(t, models.ScopeOwner("u1"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.imp.Watch(ctx) }()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)
	e.write(t, "new.md", sleepNote)

	assert.Eventually(t, func() bool {
		items, err := e.items.ListItems(context.Background(), models.SearchFilter{Scope: models.ScopeOwner("u1")})
		return err == nil && len(items) == 1
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
