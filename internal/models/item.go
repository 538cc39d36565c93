// Package models defines the domain types for recall.
package models

import (
	"fmt"
	"time"
)

// ItemKind is the closed set of item types.
type ItemKind string

const (
	KindNote    ItemKind = "note"
	KindLink    ItemKind = "link"
	KindInsight ItemKind = "insight"
)

// ItemKinds lists every valid kind.
var ItemKinds = []ItemKind{KindNote, KindLink, KindInsight}

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case KindNote, KindLink, KindInsight:
		return true
	}
	return false
}

// ParseItemKind converts s into an ItemKind.
func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("invalid item kind %q", s)
	}
	return k, nil
}

// Item is a stored note, link or insight.
type Item struct {
	ID        string    `json:"id"`
	OwnerID   *string   `json:"-"`
	Kind      ItemKind  `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"content"`
	SourceURL *string   `json:"sourceUrl"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tags      []Tag     `json:"tags"`
}

// SummaryText returns the summary or an empty string.
func (i *Item) SummaryText() string {
	if i.Summary == nil {
		return ""
	}
	return *i.Summary
}

// Tag is a named label normalised to a unique slug.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ItemTag is one item–tag association joined with its tag.
type ItemTag struct {
	ItemID  string
	TagID   string
	TagName string
	TagSlug string
}
