package handlers

import "net/http"

// ConfigHandler handles GET /api/config, the client liveness probe.
type ConfigHandler struct{}

// NewConfigHandler creates a new config handler.
func NewConfigHandler() *ConfigHandler {
	return &ConfigHandler{}
}

// ServeHTTP handles GET /api/config.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{
		"server": true,
	})
}
