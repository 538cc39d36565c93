package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/recall/internal/itemservice"
	"github.com/starford/recall/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *itemservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *itemservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ownerScope returns the scope of the authenticated owner.
func ownerScope(r *http.Request) models.OwnerScope {
	owner, _ := OwnerFrom(r.Context())
	return models.ScopeOwner(owner)
}

// ListItems handles GET /api/items.
//
//	@Summary		List the caller's items with optional filters
//	@Tags			items
//	@Produce		json
//	@Param			q		query		string	false	"Case-insensitive substring"
//	@Param			type	query		string	false	"Item kind"	Enums(note, link, insight)
//	@Param			tagId	query		[]string	false	"Tag ids (any match)"
//	@Param			sort	query		string	false	"Order"	Enums(date-desc, date-asc)
//	@Success		200		{array}		models.Item
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.SearchFilter{Scope: ownerScope(r), Text: q.Get("q")}

	if raw := q.Get("type"); raw != "" {
		kind, err := models.ParseItemKind(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid type"))
			return
		}
		f.Kind = &kind
	}
	sort, err := models.ParseSortOrder(q.Get("sort"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid sort"))
		return
	}
	f.Sort = sort
	for _, id := range q["tagId"] {
		if _, err := uuid.Parse(id); err == nil {
			f.TagIDs = append(f.TagIDs, id)
		}
	}

	items, err := h.svc.ListItems(r.Context(), f)
	if err != nil {
		writeError(w, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItem handles POST /api/items.
//
//	@Summary		Capture a new item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateItemRequest	true	"Item to create"
//	@Success		201		{object}	models.Item
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.CreateItem(r.Context(), ownerScope(r), itemservice.CreateItemInput{
		Title:     req.Title,
		Body:      req.Content,
		Kind:      req.Type,
		SourceURL: req.SourceURL,
		Tags:      req.Tags,
	})
	if err != nil {
		writeError(w, "create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get one of the caller's items
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	models.Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.GetItem(r.Context(), chi.URLParam(r, "id"), ownerScope(r))
	if err != nil {
		writeError(w, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// UpdateItem handles PATCH /api/items/{id}.
//
//	@Summary		Partially update an item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item id"
//	@Param			body	body		UpdateItemRequest	true	"Fields to change"
//	@Success		200		{object}	models.Item
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [patch]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.UpdateItem(r.Context(), chi.URLParam(r, "id"), ownerScope(r), itemservice.UpdateItemInput{
		Title:     req.Title,
		Body:      req.Content,
		SourceURL: req.SourceURL,
		Summary:   req.Summary,
	})
	if err != nil {
		writeError(w, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// Query handles POST /api/ai/query.
//
//	@Summary		Answer a question from the caller's items
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		QueryRequest	true	"Question"
//	@Success		200		{object}	models.AnswerResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ai/query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Ask(r.Context(), req.Question, ownerScope(r))
	if err != nil {
		writeError(w, "query", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Summarize handles POST /api/ai/summarize.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req ItemRefRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("itemId is required"))
		return
	}
	summary, it, err := h.svc.Summarize(r.Context(), req.ItemID, ownerScope(r))
	if err != nil {
		writeError(w, "summarize", err)
		return
	}
	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: summary, Item: it})
}

// AutoTag handles POST /api/ai/tag.
func (h *Handler) AutoTag(w http.ResponseWriter, r *http.Request) {
	var req ItemRefRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("itemId is required"))
		return
	}
	tags, it, err := h.svc.AutoTag(r.Context(), req.ItemID, ownerScope(r))
	if err != nil {
		writeError(w, "auto tag", err)
		return
	}
	writeJSON(w, http.StatusOK, AutoTagResponse{Tags: tags, Item: it})
}

// PublicQuery handles GET /api/public/brain/query.
//
//	@Summary		Answer a question from public items
//	@Tags			public
//	@Produce		json
//	@Param			q			query		string	true	"Question"
//	@Param			x-api-key	header		string	false	"Public API key, when configured"
//	@Success		200			{object}	models.AnswerResult
//	@Failure		400			{object}	errResponse
//	@Failure		401			{object}	errResponse
//	@Router			/public/brain/query [get]
func (h *Handler) PublicQuery(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	res, err := h.svc.Ask(r.Context(), q, models.ScopePublic())
	if err != nil {
		writeError(w, "public query", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
