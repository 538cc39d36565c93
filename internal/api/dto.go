package api

import "github.com/starford/recall/internal/models"

// CreateItemRequest is the request body for creating an item.
type CreateItemRequest struct {
	Title     string   `json:"title" example:"Sleep log" validate:"required"`
	Content   string   `json:"content" example:"Slept six hours." validate:"required"`
	Type      string   `json:"type" example:"note" validate:"required"`
	SourceURL string   `json:"sourceUrl,omitempty" example:"https://example.com/article"`
	Tags      []string `json:"tags,omitempty" example:"sleep,health"`
}

// UpdateItemRequest is the request body for a partial item update.
type UpdateItemRequest struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	SourceURL *string `json:"sourceUrl,omitempty"`
	Summary   *string `json:"summary,omitempty"`
}

// QueryRequest is the body of POST /api/ai/query.
type QueryRequest struct {
	Question string `json:"question" example:"What have I saved about sleep?" validate:"required"`
}

// ItemRefRequest names the item an AI action applies to.
type ItemRefRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}

// SummarizeResponse is returned by POST /api/ai/summarize.
type SummarizeResponse struct {
	Summary string       `json:"summary"`
	Item    *models.Item `json:"item"`
}

// AutoTagResponse is returned by POST /api/ai/tag.
type AutoTagResponse struct {
	Tags []string     `json:"tags"`
	Item *models.Item `json:"item"`
}
