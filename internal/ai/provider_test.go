package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/recall/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openAIStub answers chat completions with reply and records the last prompt.
func openAIStub(t *testing.T, reply string, lastPrompt *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req openAIRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if lastPrompt != nil && len(req.Messages) > 0 {
			*lastPrompt = req.Messages[0].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_AnswerFromContext(t *testing.T) {
	var prompt string
	srv := openAIStub(t, "  You slept badly.  ", &prompt)
	p, err := New(Config{Provider: "openai", APIKey: "sk-test", BaseURL: srv.URL}, quietLogger())
	require.NoError(t, err)

	answer, err := p.AnswerFromContext(context.Background(), "How did I sleep?", models.ContextWindow{
		{Title: "Tuesday", Body: "I didn't sleep well", Summary: "Poor sleep"},
		{Title: "Wednesday", Body: "better"},
	})
	require.NoError(t, err)
	assert.Equal(t, "You slept badly.", answer)
	assert.Contains(t, prompt, "Title: Tuesday\nSummary: Poor sleep\nContent: I didn't sleep well")
	assert.Contains(t, prompt, "\n\n---\n\nTitle: Wednesday\nContent: better")
	assert.True(t, strings.HasSuffix(prompt, "Question: How did I sleep?"))
}

func TestOpenAI_EmptyAnswerFallsBack(t *testing.T) {
	srv := openAIStub(t, "", nil)
	p, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL}, quietLogger())
	require.NoError(t, err)

	answer, err := p.AnswerFromContext(context.Background(), "q", models.ContextWindow{{Title: "t", Body: "b"}})
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, answer)
}

func TestOpenAI_SuggestTags(t *testing.T) {
	srv := openAIStub(t, "Sleep, Health , , habits,routine,rest,extra", nil)
	p, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL}, quietLogger())
	require.NoError(t, err)

	tags, err := p.SuggestTags(context.Background(), "title", "body")
	require.NoError(t, err)
	assert.Equal(t, []string{"sleep", "health", "habits", "routine", "rest"}, tags)
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := newOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL})
	c.baseBackoff = time.Millisecond

	out, err := c.complete(context.Background(), "hi", 10)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAI_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c := newOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL})
	c.baseBackoff = time.Millisecond

	_, err := c.complete(context.Background(), "hi", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_MissingKeyFailsAtCallTime(t *testing.T) {
	p, err := New(Config{Provider: "openai"}, quietLogger())
	require.NoError(t, err)

	_, err = p.Summarize(context.Background(), "t", "b")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOllama_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "mistral", req.Model)
		assert.Equal(t, summarizeMaxTokens, req.Options.NumPredict)
		assert.Contains(t, req.Messages[0].Content, "Title\n\nBody")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" A short summary. "},"done":true}`))
	}))
	defer srv.Close()

	p, err := New(Config{Provider: "ollama", BaseURL: srv.URL, Model: "mistral"}, quietLogger())
	require.NoError(t, err)

	out, err := p.Summarize(context.Background(), "Title", "Body")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "gemini"}, quietLogger())
	assert.Error(t, err)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abcdef", 3))
	assert.Equal(t, "ab", clip("ab", 3))
	assert.Equal(t, "éé", clip("ééé", 2))
}
