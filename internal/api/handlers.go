package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/match"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/presets"
	"github.com/starford/ansuz/internal/templates"
)

// Handler serves the template, merge, match, and preset routes.
type Handler struct {
	index    *templates.Index
	store    *presets.Store
	matchOpt match.Options
}

// NewHandler creates an API handler.
func NewHandler(index *templates.Index, store *presets.Store, matchOpt match.Options) *Handler {
	return &Handler{index: index, store: store, matchOpt: matchOpt}
}

// ListTemplates handles GET /api/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	snap := h.index.Snapshot()
	items := make([]TemplateListItem, len(snap.Documents))
	for i, d := range snap.Documents {
		items[i] = TemplateListItem{ID: d.ID, Name: d.Name, Path: d.Path}
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{
		Templates:    items,
		Status:       string(snap.Status),
		Message:      snap.Message,
		ReadFailures: snap.ReadFailures,
	})
}

// GetTemplate handles GET /api/templates/*. The template content digest is
// returned as an ETag; If-None-Match short-circuits with 304.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := templatePath(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("template id is required"))
		return
	}
	doc, ok := h.index.TemplateByID(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	etag := checksum.ETag([]byte(doc.Content))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, doc)
}

// ReloadTemplates handles POST /api/templates/reload.
func (h *Handler) ReloadTemplates(w http.ResponseWriter, r *http.Request) {
	snap := h.index.Reload(r.Context(), true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        string(snap.Status),
		"message":       snap.Message,
		"templates":     len(snap.Documents),
		"read_failures": snap.ReadFailures,
	})
}

// Merge handles POST /api/merge.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	preset, err := h.resolvePreset(req)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("preset not found"))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}

	record, err := frontmatter.Resolve(preset,
		recordFromPairs(req.Note),
		recordFromPairs(req.Template),
		recordFromPairs(req.User))
	if err != nil {
		var dateErr *apperr.DateFieldError
		if errors.As(err, &dateErr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(dateErr.Error()))
			return
		}
		slog.Error("merge failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	block, err := frontmatter.EncodeBlock(record)
	if err != nil {
		slog.Error("encode block failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, MergeResponse{Record: pairsFromRecord(record), Block: block})
}

// Match handles POST /api/match.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.TemplateID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("template_id is required"))
		return
	}
	tpl, ok := h.index.TemplateByID(req.TemplateID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("template not found"))
		return
	}

	candidates, err := h.candidatePresets(req.PresetIDs)
	if err != nil {
		slog.Error("load presets failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	if req.BestOnly {
		best, ok := match.BestMatch(tpl, candidates, h.matchOpt)
		if !ok {
			writeJSON(w, http.StatusOK, MatchResponse{Results: []models.PresetMatchResult{}})
			return
		}
		writeJSON(w, http.StatusOK, MatchResponse{Results: []models.PresetMatchResult{best}})
		return
	}
	writeJSON(w, http.StatusOK, MatchResponse{Results: match.MatchPresets(tpl, candidates, h.matchOpt)})
}

// ListPresets handles GET /api/presets.
func (h *Handler) ListPresets(w http.ResponseWriter, _ *http.Request) {
	all, err := h.store.List()
	if err != nil {
		slog.Error("list presets failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if all == nil {
		all = []models.FrontmatterPreset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": all})
}

// GetPreset handles GET /api/presets/{id}.
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get preset failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PutPreset handles PUT /api/presets/{id}.
func (h *Handler) PutPreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p models.FrontmatterPreset
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p.ID = id
	if err := validatePreset(p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.store.Save(p); err != nil {
		slog.Error("save preset failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePreset handles DELETE /api/presets/{id}.
func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete preset failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resolvePreset(req MergeRequest) (models.FrontmatterPreset, error) {
	if req.Preset != nil {
		return *req.Preset, nil
	}
	if req.PresetID == "" {
		return models.FrontmatterPreset{}, errors.New("preset_id or preset is required")
	}
	return h.store.Get(req.PresetID)
}

func (h *Handler) candidatePresets(ids []string) ([]models.FrontmatterPreset, error) {
	if len(ids) == 0 {
		return h.store.List()
	}
	out := make([]models.FrontmatterPreset, 0, len(ids))
	for _, id := range ids {
		p, err := h.store.Get(id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func recordFromPairs(pairs []Pair) *frontmatter.Record {
	rec := frontmatter.NewRecord()
	for _, p := range pairs {
		rec.Set(p.Key, p.Value)
	}
	return rec
}

func pairsFromRecord(rec *frontmatter.Record) []Pair {
	out := make([]Pair, 0, rec.Len())
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		out = append(out, Pair{Key: k, Value: v})
	}
	return out
}

// templatePath extracts the wildcard path segment after /templates/.
func templatePath(r *http.Request) string {
	return strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}
