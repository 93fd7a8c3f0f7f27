package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/models"
	"github.com/RustColeone/TradingAgents-web-managed/internal/store"
)

// PostsHandler serves the post CRUD surface under /api/stocks.
type PostsHandler struct {
	store  *store.Store
	logger *common.Logger
}

// NewPostsHandler creates a new posts handler.
func NewPostsHandler(st *store.Store, logger *common.Logger) *PostsHandler {
	return &PostsHandler{store: st, logger: logger}
}

// ServeCollection handles GET and POST /api/stocks.
func (h *PostsHandler) ServeCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		WriteJSON(w, http.StatusOK, h.store.List())
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ServeItem handles PUT and DELETE /api/stocks/{id}.
func (h *PostsHandler) ServeItem(w http.ResponseWriter, r *http.Request) {
	id := PathID(r, "/api/stocks/")
	if id == "" {
		WriteNotFound(w)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PostsHandler) create(w http.ResponseWriter, r *http.Request) {
	var input models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	post := models.NewPost(input)
	if err := h.store.Insert(post); err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist new post")
		WriteError(w, http.StatusInternalServerError, "Failed to save post")
		return
	}

	h.logger.Info().Str("post", post.ID).Str("title", post.Title).Msg("Post created")
	WriteJSON(w, http.StatusCreated, post)
}

func (h *PostsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var input models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	post, err := h.store.Update(id, func(post *models.Post) error {
		post.ApplyInput(input)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("post", id).Msg("Failed to update post")
		WriteError(w, http.StatusInternalServerError, "Failed to save post")
		return
	}

	WriteJSON(w, http.StatusOK, post)
}

func (h *PostsHandler) delete(w http.ResponseWriter, id string) {
	err := h.store.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("post", id).Msg("Failed to delete post")
		WriteError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	h.logger.Info().Str("post", id).Msg("Post deleted")
	WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ServeReorder handles POST /api/stocks/reorder.
func (h *PostsHandler) ServeReorder(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var payload struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	var order []string
	if len(payload.Order) > 0 {
		if err := json.Unmarshal(payload.Order, &order); err != nil {
			WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "order must be a list of ids"})
			return
		}
	}

	posts, err := h.store.Reorder(order)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist post order")
		WriteError(w, http.StatusInternalServerError, "Failed to save order")
		return
	}

	ids := make([]string, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "ok", "order": ids})
}
