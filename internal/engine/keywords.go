package engine

import (
	"strings"
	"unicode/utf8"
)

const minKeywordLength = 2

var stopWords = toSet(
	"what", "have", "has", "i", "me", "my", "saved", "about", "the", "a", "an",
	"is", "are", "was", "were", "do", "does", "did", "can", "could", "would",
	"should", "will", "all", "any", "our", "your", "their", "this", "that",
	"these", "those", "it", "its", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "from", "by", "as", "into", "through", "during", "before",
	"after", "above", "below", "between", "under", "again", "further", "then",
	"once", "here", "there", "when", "where", "why", "how", "which", "who",
	"whom", "if", "than", "so", "just", "only", "also", "more", "most", "other",
	"some", "such", "no", "not", "own", "same", "too", "very", "you", "we", "they",
)

var punctuation = strings.NewReplacer(
	"?", " ", "!", " ", ".", " ", ",", " ", ";", " ", ":", " ", "'", " ", `"`, " ",
)

// ExtractKeyword reduces a question to its longest non-stop-word token,
// preferring the earliest token on a tie. When nothing survives filtering the
// trimmed question is returned unchanged so callers can fall back to it.
func ExtractKeyword(question string) string {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return ""
	}

	best := ""
	bestLen := 0
	for _, w := range strings.Fields(punctuation.Replace(strings.ToLower(trimmed))) {
		n := utf8.RuneCountInString(w)
		if n < minKeywordLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if n > bestLen {
			best, bestLen = w, n
		}
	}
	if best == "" {
		return trimmed
	}
	return best
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
