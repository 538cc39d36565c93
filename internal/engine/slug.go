package engine

import "strings"

// Slugify derives the URL-safe tag slug of name: lowercase, whitespace runs
// joined by a single hyphen, anything outside [a-z0-9-] dropped.
func Slugify(name string) string {
	joined := strings.Join(strings.Fields(strings.ToLower(name)), "-")
	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
