package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/recall/internal/apperr"
	"github.com/starford/recall/internal/engine"
	"github.com/starford/recall/internal/models"
	"github.com/starford/recall/internal/store"
	"github.com/starford/recall/internal/testutil"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *store.DB
	provider *testutil.FakeProvider
	eng      *engine.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.TestDB(t)
	p := &testutil.FakeProvider{Answer: "grounded answer"}
	return &fixture{db: db, provider: p, eng: engine.New(db, p)}
}

func (f *fixture) item(t *testing.T, owner string, title, body, summary string, at time.Time) *models.Item {
	t.Helper()
	it := &models.Item{
		ID:        uuid.NewString(),
		Kind:      models.KindNote,
		Title:     title,
		Body:      body,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if owner != "" {
		it.OwnerID = &owner
	}
	if summary != "" {
		it.Summary = &summary
	}
	require.NoError(t, f.db.CreateItem(context.Background(), it))
	return it
}

func TestResolveTag_SameSlugSameIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id1, ok, err := f.eng.ResolveTag(ctx, "Deep Work")
	require.NoError(t, err)
	require.True(t, ok)
	id2, ok, err := f.eng.ResolveTag(ctx, "  deep   work ")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, id1, id2)
	n, err := f.db.CountTagsBySlug(ctx, "deep-work")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResolveTag_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	variants := []string{"Deep Work", "deep work", "DEEP WORK", "deep   work"}

	const workers = 16
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _, errs[i] = f.eng.ResolveTag(ctx, variants[i%len(variants)])
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	n, err := f.db.CountTagsBySlug(ctx, "deep-work")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResolveTag_SkipsBlankAndEmptySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"", "   ", "!!!", "日本"} {
		id, ok, err := f.eng.ResolveTag(ctx, name)
		require.NoError(t, err)
		assert.False(t, ok, "name %q", name)
		assert.Empty(t, id)
	}
	tags, err := f.db.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestResolveTags_Dedupes(t *testing.T) {
	f := newFixture(t)
	ids, err := f.eng.ResolveTags(context.Background(), []string{"Go", "go", "", "Rust"})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestSearch_SubstringSemantics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shout := f.item(t, "u1", "Tuesday", "I didn't SLEEP well", "", t0)
	partial := f.item(t, "u1", "Weekend", "sleeping in", "", t0.Add(time.Minute))
	f.item(t, "u1", "Unrelated", "groceries", "", t0.Add(2*time.Minute))

	items, err := f.eng.Search(ctx, models.SearchFilter{Scope: models.ScopeOwner("u1"), Text: "sleep"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, partial.ID, items[0].ID)
	assert.Equal(t, shout.ID, items[1].ID)
	for _, it := range items {
		assert.NotNil(t, it.Tags)
		assert.Empty(t, it.Tags)
	}
}

func TestSearch_TagUnionAndAttachedTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	onlyA := f.item(t, "u1", "a", "x", "", t0)
	both := f.item(t, "u1", "ab", "x", "", t0.Add(time.Second))
	f.item(t, "u1", "none", "x", "", t0.Add(2*time.Second))

	require.NoError(t, f.eng.AttachTags(ctx, onlyA.ID, []string{"Alpha"}))
	require.NoError(t, f.eng.AttachTags(ctx, both.ID, []string{"Alpha", "Beta"}))
	alpha, _ := f.db.FindTagBySlug(ctx, "alpha")
	beta, _ := f.db.FindTagBySlug(ctx, "beta")

	items, err := f.eng.Search(ctx, models.SearchFilter{
		Scope:  models.ScopeOwner("u1"),
		TagIDs: []string{alpha.ID, beta.ID},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, both.ID, items[0].ID)
	assert.Len(t, items[0].Tags, 2)
	assert.Equal(t, onlyA.ID, items[1].ID)
	require.Len(t, items[1].Tags, 1)
	assert.Equal(t, models.Tag{ID: alpha.ID, Name: "Alpha", Slug: "alpha"}, items[1].Tags[0])

	// Filtering by B alone must still include the item tagged A and B, but not A only.
	items, err = f.eng.Search(ctx, models.SearchFilter{Scope: models.ScopeOwner("u1"), TagIDs: []string{beta.ID}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, both.ID, items[0].ID)
}

func TestGetItem_NotOwned(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "u1", "mine", "x", "", t0)

	_, err := f.eng.GetItem(context.Background(), it.ID, models.ScopeOwner("u2"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.eng.GetItem(context.Background(), it.ID, models.ScopeOwner("u1"))
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
}

func TestAssemble_LimitsWindow(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 15; i++ {
		f.item(t, "u1", fmt.Sprintf("sleep log %d", i), "slept", "", t0.Add(time.Duration(i)*time.Minute))
	}

	window, items, err := f.eng.Assemble(context.Background(), "What have I saved about sleep?", models.ScopeOwner("u1"))
	require.NoError(t, err)
	assert.Len(t, window, engine.DefaultContextLimit)
	require.Len(t, items, engine.DefaultContextLimit)
	assert.Equal(t, "sleep log 14", items[0].Title)
	for i := range window {
		assert.Equal(t, items[i].Title, window[i].Title)
	}
}

func TestAssemble_FallsBackToWholeQuestion(t *testing.T) {
	f := newFixture(t)
	f.item(t, "u1", "phrase", "a note saying is it", "", t0)

	window, _, err := f.eng.Assemble(context.Background(), "is it", models.ScopeOwner("u1"))
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestAnswer_NoMatchesSkipsProvider(t *testing.T) {
	f := newFixture(t)
	f.item(t, "u1", "cooking", "pasta", "", t0)

	res, err := f.eng.Answer(context.Background(), "What have I saved about sleep?", models.ScopeOwner("u1"))
	require.NoError(t, err)
	assert.Equal(t, engine.NoMatchAnswer, res.Answer)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0, f.provider.AnswerCalls())
}

func TestAnswer_BuildsSourcesFromWindow(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("é", 250)
	older := f.item(t, "u1", "old sleep", long, "", t0)
	newer := f.item(t, "u1", "new sleep", "body text", "short summary", t0.Add(time.Hour))

	res, err := f.eng.Answer(context.Background(), "  sleep  ", models.ScopeOwner("u1"))
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", res.Answer)
	assert.Equal(t, 1, f.provider.AnswerCalls())

	require.Len(t, res.Sources, 2)
	assert.Equal(t, models.Source{ID: newer.ID, Title: "new sleep", Snippet: "short summary"}, res.Sources[0])
	assert.Equal(t, older.ID, res.Sources[1].ID)
	assert.Equal(t, engine.SnippetLength, utf8.RuneCountInString(res.Sources[1].Snippet))
	assert.Len(t, f.provider.LastWindow, 2)
	assert.Equal(t, "short summary", f.provider.LastWindow[0].Summary)
}

func TestAnswer_BlankQuestionIsValidationError(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.Answer(context.Background(), "   ", models.ScopeOwner("u1"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.provider.AnswerCalls())
}

func TestAnswer_ProviderErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.item(t, "u1", "sleep", "x", "", t0)
	f.provider.Err = errors.New("provider down")

	_, err := f.eng.Answer(context.Background(), "sleep", models.ScopeOwner("u1"))
	assert.EqualError(t, err, "provider down")
}

type failingStore struct {
	engine.Store
	err error
}

func (s failingStore) FindItems(context.Context, models.SearchFilter) ([]models.Item, error) {
	return nil, s.err
}

func TestAnswer_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("disk on fire")
	p := &testutil.FakeProvider{}
	eng := engine.New(failingStore{err: boom}, p)

	_, err := eng.Answer(context.Background(), "sleep", models.ScopePublic())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.AnswerCalls())
}
