package models

import "fmt"

type scopeKind int

const (
	scopeUnscoped scopeKind = iota
	scopeOwner
	scopePublic
)

// OwnerScope is the access boundary of a search: one owner, public (ownerless)
// items only, or no restriction at all.
type OwnerScope struct {
	kind    scopeKind
	ownerID string
}

// ScopeOwner restricts to items owned by id.
func ScopeOwner(id string) OwnerScope { return OwnerScope{kind: scopeOwner, ownerID: id} }

// ScopePublic restricts to items without an owner.
func ScopePublic() OwnerScope { return OwnerScope{kind: scopePublic} }

// ScopeUnscoped applies no owner restriction. Administrative use only.
func ScopeUnscoped() OwnerScope { return OwnerScope{kind: scopeUnscoped} }

// Owner returns the owner id and whether the scope is owner-bound.
func (s OwnerScope) Owner() (string, bool) { return s.ownerID, s.kind == scopeOwner }

// IsPublic reports whether only ownerless items are eligible.
func (s OwnerScope) IsPublic() bool { return s.kind == scopePublic }

// IsUnscoped reports whether no owner restriction applies.
func (s OwnerScope) IsUnscoped() bool { return s.kind == scopeUnscoped }

// String implements fmt.Stringer for logging.
func (s OwnerScope) String() string {
	switch s.kind {
	case scopeOwner:
		return "owner:" + s.ownerID
	case scopePublic:
		return "public"
	}
	return "unscoped"
}

// SortOrder controls creation-time ordering.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder accepts "newest"/"oldest" and the "date-desc"/"date-asc"
// aliases. An empty string means newest first.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "newest", "date-desc":
		return SortNewest, nil
	case "oldest", "date-asc":
		return SortOldest, nil
	}
	return "", fmt.Errorf("invalid sort order %q", s)
}

// SearchFilter selects items. All set fields are combined with AND;
// TagIDs match when an item carries at least one of them.
type SearchFilter struct {
	Scope  OwnerScope
	Text   string
	Kind   *ItemKind
	TagIDs []string
	Sort   SortOrder
}

// ContextItem is the projection of an item handed to the answering provider.
type ContextItem struct {
	Title   string
	Body    string
	Summary string
}

// ContextWindow is the bounded, ordered grounding set for an answer.
type ContextWindow []ContextItem

// Source is a citation returned alongside an answer.
type Source struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// AnswerResult is an answer plus the sources it was grounded on.
type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
