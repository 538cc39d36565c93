package ai

import (
	"strings"

	"github.com/starford/recall/internal/models"
)

const (
	summarizeMaxTokens = 150
	tagsMaxTokens      = 80
	answerMaxTokens    = 500

	summarizeInputLimit = 8000
	tagsInputLimit      = 6000
	contextLimit        = 12000
	contextBodyLimit    = 1500

	maxSuggestedTags = 5

	fallbackAnswer = "I couldn't generate an answer."
)

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func summarizePrompt(title, body string) string {
	return "Summarize the following in 2-3 concise sentences. Output only the summary, no preamble.\n\n" +
		clip(joinNonEmpty(title, body), summarizeInputLimit)
}

func tagsPrompt(title, body string) string {
	return "Suggest 3-5 short tags (single words or two words) for this content. " +
		"Output only the tags, comma-separated, lowercase.\n\n" +
		clip(joinNonEmpty(title, body), tagsInputLimit)
}

func answerPrompt(question string, window models.ContextWindow) string {
	blocks := make([]string, len(window))
	for i, it := range window {
		var b strings.Builder
		b.WriteString("Title: ")
		b.WriteString(it.Title)
		b.WriteString("\n")
		if it.Summary != "" {
			b.WriteString("Summary: ")
			b.WriteString(it.Summary)
			b.WriteString("\n")
		}
		b.WriteString("Content: ")
		b.WriteString(clip(it.Body, contextBodyLimit))
		blocks[i] = b.String()
	}
	notes := clip(strings.Join(blocks, "\n\n---\n\n"), contextLimit)
	return "Answer the question using only the following notes. If the notes don't contain enough information, say so. Be concise.\n\n" +
		"Notes:\n" + notes + "\n\nQuestion: " + question
}

// clip keeps the first n characters of s.
func clip(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
