package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Template index.
	r.Get("/templates", h.ListTemplates)
	r.Post("/templates/reload", h.ReloadTemplates)
	r.Get("/templates/*", h.GetTemplate)

	// Frontmatter merge and preset matching.
	r.Post("/merge", h.Merge)
	r.Post("/match", h.Match)

	// Preset configuration.
	r.Get("/presets", h.ListPresets)
	r.Get("/presets/{id}", h.GetPreset)
	r.Put("/presets/{id}", h.PutPreset)
	r.Delete("/presets/{id}", h.DeletePreset)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
