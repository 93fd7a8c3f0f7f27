package handlers

import (
	"net/http"
	"strings"

	"github.com/RustColeone/TradingAgents-web-managed/internal/cache"
	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/marketdata"
)

// ChartHandler serves GET /api/chart: a close-price series for one ticker
// suitable for a quick line chart. Responses are TTL-cached per
// ticker/period/interval.
type ChartHandler struct {
	feed   marketdata.Feed
	cache  *cache.SeriesCache
	logger *common.Logger
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(feed marketdata.Feed, seriesCache *cache.SeriesCache, logger *common.Logger) *ChartHandler {
	return &ChartHandler{feed: feed, cache: seriesCache, logger: logger}
}

// ServeHTTP handles GET /api/chart?ticker=...&period=6mo&interval=1d.
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "6mo"
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	key := cache.MakeKey(ticker, period, interval)
	if series, ok := h.cache.Get(key); ok {
		WriteJSON(w, http.StatusOK, series)
		return
	}

	series, err := h.feed.History(r.Context(), ticker, period, interval)
	if err != nil {
		// Chart data is best-effort: feed failures yield an empty series
		h.logger.Warn().Err(err).Str("ticker", ticker).Msg("Chart data lookup failed")
		WriteJSON(w, http.StatusOK, marketdata.Series{Timestamps: []int64{}, Closes: []float64{}})
		return
	}

	h.cache.Set(key, series)
	WriteJSON(w, http.StatusOK, series)
}
