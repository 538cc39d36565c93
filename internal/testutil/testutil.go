// Package testutil provides shared test helpers for databases, vaults and fake providers.
package testutil

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/starford/recall/internal/models"
	"github.com/starford/recall/internal/storage"
	"github.com/starford/recall/internal/store"
)

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "recall-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	fs, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, fs
}

// FakeProvider is an in-memory ai.Provider that records how often it is called.
type FakeProvider struct {
	Answer  string
	Summary string
	Tags    []string
	Err     error

	answerCalls atomic.Int64

	mu         sync.Mutex
	LastWindow models.ContextWindow
}

// AnswerFromContext records the window and returns Answer.
func (f *FakeProvider) AnswerFromContext(_ context.Context, _ string, window models.ContextWindow) (string, error) {
	f.answerCalls.Add(1)
	f.mu.Lock()
	f.LastWindow = window
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Answer, nil
}

// Summarize returns Summary.
func (f *FakeProvider) Summarize(_ context.Context, _, _ string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.Summary, nil
}

// SuggestTags returns Tags.
func (f *FakeProvider) SuggestTags(_ context.Context, _, _ string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Tags, nil
}

// AnswerCalls returns how many times AnswerFromContext ran.
func (f *FakeProvider) AnswerCalls() int {
	return int(f.answerCalls.Load())
}
