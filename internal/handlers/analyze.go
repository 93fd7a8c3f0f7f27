package handlers

import (
	"errors"
	"net/http"

	"github.com/RustColeone/TradingAgents-web-managed/internal/analysis"
	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/store"
)

// AnalyzeHandler serves the batch analysis, snapshot, and summary
// operations.
type AnalyzeHandler struct {
	store    *store.Store
	pipeline *analysis.Pipeline
	logger   *common.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(st *store.Store, pipeline *analysis.Pipeline, logger *common.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{store: st, pipeline: pipeline, logger: logger}
}

// ServeAnalyze handles POST /api/analyze/{id}: one batch run, returning
// the post in its final state.
func (h *AnalyzeHandler) ServeAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	id := PathID(r, "/api/analyze/")
	if id == "" {
		WriteNotFound(w)
		return
	}

	post, err := h.pipeline.RunBatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("post", id).Msg("Batch analysis failed")
		WriteError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	WriteJSON(w, http.StatusOK, post)
}

// ServeAnalyzeAll handles POST /api/analyze-all: batch run over every
// post. Per-post failures are embedded in the result list, not fatal.
func (h *AnalyzeHandler) ServeAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	out := []any{}
	for _, post := range h.store.List() {
		updated, err := h.pipeline.RunBatch(r.Context(), post.ID)
		if err != nil {
			h.logger.Error().Err(err).Str("post", post.ID).Msg("Batch analysis failed for post")
			out = append(out, map[string]string{"id": post.ID, "error": err.Error()})
			continue
		}
		out = append(out, updated)
	}

	WriteJSON(w, http.StatusOK, out)
}

// ServeRefreshSnapshot handles GET /api/refresh-snapshot/{id}: price
// snapshot only, no analysis run.
func (h *AnalyzeHandler) ServeRefreshSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := PathID(r, "/api/refresh-snapshot/")
	if id == "" {
		WriteNotFound(w)
		return
	}

	post, err := h.pipeline.RefreshSnapshot(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("post", id).Msg("Snapshot refresh failed")
		WriteError(w, http.StatusInternalServerError, "Snapshot refresh failed")
		return
	}

	WriteJSON(w, http.StatusOK, post)
}

// ServeSummarize handles GET /api/summarize/{id}: recompute and persist
// the summary from the current analysis state.
func (h *AnalyzeHandler) ServeSummarize(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := PathID(r, "/api/summarize/")
	if id == "" {
		WriteNotFound(w)
		return
	}

	post, err := h.pipeline.Summarize(id)
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("post", id).Msg("Summary rebuild failed")
		WriteError(w, http.StatusInternalServerError, "Summary rebuild failed")
		return
	}

	WriteJSON(w, http.StatusOK, post)
}
