// Package ai provides the language-model capabilities used by recall:
// answering from a context window, summarising an item and suggesting tags.
// Exactly one implementation is selected at startup by New.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/recall/internal/models"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ErrNotConfigured is returned by every call of a provider that lacks credentials.
var ErrNotConfigured = errors.New("ai: provider is not configured")

// Provider is the capability set every language-model backend implements.
type Provider interface {
	AnswerFromContext(ctx context.Context, question string, window models.ContextWindow) (string, error)
	Summarize(ctx context.Context, title, body string) (string, error)
	SuggestTags(ctx context.Context, title, body string) ([]string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// New builds the provider named by cfg.Provider. An OpenAI provider without an
// API key is still returned, but all of its calls fail with ErrNotConfigured.
func New(cfg Config, logger *slog.Logger) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		if cfg.APIKey == "" {
			logger.Warn("ai: openai api key is not set; AI features will fail at runtime")
			return &promptProvider{c: unconfigured{}}, nil
		}
		return &promptProvider{c: newOpenAIClient(cfg)}, nil
	case ProviderOllama:
		return &promptProvider{c: newOllamaClient(cfg)}, nil
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", cfg.Provider)
	}
}

// completer sends a single user prompt and returns the model's reply.
type completer interface {
	complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type unconfigured struct{}

func (unconfigured) complete(context.Context, string, int) (string, error) {
	return "", ErrNotConfigured
}

// promptProvider implements Provider on top of any completer.
type promptProvider struct {
	c completer
}

func (p *promptProvider) AnswerFromContext(ctx context.Context, question string, window models.ContextWindow) (string, error) {
	out, err := p.c.complete(ctx, answerPrompt(question, window), answerMaxTokens)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return fallbackAnswer, nil
	}
	return out, nil
}

func (p *promptProvider) Summarize(ctx context.Context, title, body string) (string, error) {
	out, err := p.c.complete(ctx, summarizePrompt(title, body), summarizeMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *promptProvider) SuggestTags(ctx context.Context, title, body string) ([]string, error) {
	out, err := p.c.complete(ctx, tagsPrompt(title, body), tagsMaxTokens)
	if err != nil {
		return nil, err
	}
	return parseTags(out), nil
}

// parseTags splits a comma-separated reply into at most maxSuggestedTags
// trimmed, lowercased, non-empty tags.
func parseTags(raw string) []string {
	out := []string{}
	for _, t := range strings.Split(strings.TrimSpace(raw), ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == maxSuggestedTags {
			break
		}
	}
	return out
}
