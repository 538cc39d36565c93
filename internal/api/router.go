package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/recall/internal/itemservice"
	"github.com/starford/recall/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// The public brain route is guarded by publicAPIKey (when set) instead of auth.
// broker, if non-nil, serves GET /events inside the auth group.
func NewRouter(svc *itemservice.Service, auth AuthConfig, publicAPIKey string, broker *sse.Broker) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.With(APIKeyMiddleware(publicAPIKey)).Get("/public/brain/query", h.PublicQuery)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		r.Get("/items", h.ListItems)
		r.Post("/items", h.CreateItem)
		r.Get("/items/{id}", h.GetItem)
		r.Patch("/items/{id}", h.UpdateItem)

		r.Get("/tags", h.ListTags)

		r.Post("/ai/query", h.Query)
		r.Post("/ai/summarize", h.Summarize)
		r.Post("/ai/tag", h.AutoTag)

		if broker != nil {
			r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
				owner, _ := OwnerFrom(r.Context())
				broker.Handler(owner).ServeHTTP(w, r)
			})
		}
	})

	return r
}
