package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
)

// YahooFeed fetches prices from the Yahoo Finance v8 chart API.
type YahooFeed struct {
	baseURL string
	client  *http.Client
	logger  *common.Logger
}

// NewYahooFeed creates a feed against baseURL (the query host, e.g.
// https://query1.finance.yahoo.com).
func NewYahooFeed(baseURL string, timeout time.Duration, logger *common.Logger) *YahooFeed {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &YahooFeed{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// chartResponse mirrors the subset of the v8 chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// fetchSeries calls the chart API and returns the non-null close points.
func (f *YahooFeed) fetchSeries(ctx context.Context, ticker, rng, interval string) (Series, error) {
	params := url.Values{}
	params.Add("range", rng)
	params.Add("interval", interval)

	reqURL := f.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Series{}, fmt.Errorf("failed to create chart request: %w", err)
	}
	// Yahoo rejects requests without a browser-like user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Series{}, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Series{}, fmt.Errorf("chart API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Series{}, fmt.Errorf("failed to read chart response: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Series{}, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return Series{}, fmt.Errorf("chart API error: %v", parsed.Chart.Error)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return Series{Timestamps: []int64{}, Closes: []float64{}}, nil
	}

	result := parsed.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	series := Series{Timestamps: []int64{}, Closes: []float64{}}
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || math.IsNaN(*closes[i]) {
			continue
		}
		series.Timestamps = append(series.Timestamps, ts*1000)
		series.Closes = append(series.Closes, *closes[i])
	}
	return series, nil
}

// LatestPrice returns the last intraday price, falling back to the last
// daily close when intraday data is empty (weekends, new listings).
func (f *YahooFeed) LatestPrice(ctx context.Context, ticker string) (float64, error) {
	series, err := f.fetchSeries(ctx, ticker, "1d", "1m")
	if err == nil && len(series.Closes) > 0 {
		return series.Closes[len(series.Closes)-1], nil
	}
	if err != nil {
		f.logger.Debug().Err(err).Str("ticker", ticker).Msg("Intraday price lookup failed, trying daily close")
	}

	series, err = f.fetchSeries(ctx, ticker, "5d", "1d")
	if err != nil {
		return 0, err
	}
	if len(series.Closes) == 0 {
		return 0, ErrUnavailable
	}
	return series.Closes[len(series.Closes)-1], nil
}

// History returns close prices over period at interval. The chart API has
// no native 4h interval, so "4h" fetches hourly data and aggregates it.
func (f *YahooFeed) History(ctx context.Context, ticker, period, interval string) (Series, error) {
	if period == "" {
		period = "6mo"
	}
	if interval == "" {
		interval = "1d"
	}

	reqInterval := interval
	agg4h := interval == "4h"
	if agg4h {
		reqInterval = "1h"
	}

	series, err := f.fetchSeries(ctx, ticker, period, reqInterval)
	if err != nil {
		return Series{}, err
	}
	if agg4h {
		series = AggregateFourHour(series)
	}
	return series, nil
}

// AggregateFourHour buckets a series into four-hour windows, keyed by the
// start of each window, with the mean close per bucket. Input order is
// preserved; empty buckets are skipped.
func AggregateFourHour(in Series) Series {
	const bucketMs = 4 * 60 * 60 * 1000

	out := Series{Timestamps: []int64{}, Closes: []float64{}}
	var (
		bucketStart int64
		sum         float64
		count       int
		open        bool
	)

	flush := func() {
		if count > 0 {
			out.Timestamps = append(out.Timestamps, bucketStart)
			out.Closes = append(out.Closes, sum/float64(count))
		}
		sum, count = 0, 0
	}

	for i, ts := range in.Timestamps {
		start := ts - ts%bucketMs
		if !open || start != bucketStart {
			flush()
			bucketStart = start
			open = true
		}
		sum += in.Closes[i]
		count++
	}
	flush()
	return out
}
