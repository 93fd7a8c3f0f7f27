package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// Watchlist CRUD
	mux.HandleFunc("/api/stocks", s.app.PostsHandler.ServeCollection)
	mux.HandleFunc("/api/stocks/reorder", s.app.PostsHandler.ServeReorder)
	mux.HandleFunc("/api/stocks/", s.app.PostsHandler.ServeItem)

	// Analysis
	mux.HandleFunc("/api/analyze/", s.app.AnalyzeHandler.ServeAnalyze)
	mux.HandleFunc("/api/analyze-all", s.app.AnalyzeHandler.ServeAnalyzeAll)
	mux.HandleFunc("/api/analyze-stream/", s.app.StreamHandler.ServeHTTP)
	mux.HandleFunc("/api/summarize/", s.app.AnalyzeHandler.ServeSummarize)
	mux.HandleFunc("/api/refresh-snapshot/", s.app.AnalyzeHandler.ServeRefreshSnapshot)

	// Market data
	mux.HandleFunc("/api/chart", s.app.ChartHandler.ServeHTTP)

	// Service endpoints
	mux.HandleFunc("/api/config", s.app.ConfigHandler.ServeHTTP)
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message":"Not found"}`))
}
