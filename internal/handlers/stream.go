package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/RustColeone/TradingAgents-web-managed/internal/analysis"
	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/store"
)

// StreamHandler serves GET /api/analyze-stream/{id}: a streaming analysis
// run delivered over Server-Sent Events, one event per frame.
type StreamHandler struct {
	pipeline *analysis.Pipeline
	logger   *common.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(pipeline *analysis.Pipeline, logger *common.Logger) *StreamHandler {
	return &StreamHandler{pipeline: pipeline, logger: logger}
}

// ServeHTTP runs the streaming pipeline and forwards every event as an
// SSE frame, flushing per event. A missing post 404s before the stream
// starts.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := PathID(r, "/api/analyze-stream/")
	if id == "" {
		WriteNotFound(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	events, err := h.pipeline.Run(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("post", id).Msg("Failed to start streaming analysis")
		WriteError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error().Err(err).Str("post", id).Msg("Failed to encode stream event")
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// Client went away; the pipeline keeps persisting on its own
			h.logger.Warn().Err(err).Str("post", id).Msg("Stream client disconnected")
			return
		}
		flusher.Flush()
	}
}
