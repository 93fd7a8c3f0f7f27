// Package marketdata provides price lookups and close-price history via the
// Yahoo Finance chart API.
package marketdata

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the price feed is disabled or returned no data.
var ErrUnavailable = errors.New("market data unavailable")

// Series is a timestamped close-price sequence. Timestamps are Unix
// milliseconds aligned with Closes index-for-index.
type Series struct {
	Timestamps []int64   `json:"timestamps"`
	Closes     []float64 `json:"closes"`
}

// Feed supplies prices for tickers. Implementations must be safe for
// concurrent use.
type Feed interface {
	// LatestPrice returns the most recent trade or close price.
	LatestPrice(ctx context.Context, ticker string) (float64, error)
	// History returns close prices over period at interval (e.g. "6mo", "1d").
	History(ctx context.Context, ticker, period, interval string) (Series, error)
}

// DisabledFeed is a Feed that always reports unavailability. Used when the
// feed is switched off in configuration.
type DisabledFeed struct{}

func (DisabledFeed) LatestPrice(ctx context.Context, ticker string) (float64, error) {
	return 0, ErrUnavailable
}

func (DisabledFeed) History(ctx context.Context, ticker, period, interval string) (Series, error) {
	return Series{Timestamps: []int64{}, Closes: []float64{}}, nil
}
