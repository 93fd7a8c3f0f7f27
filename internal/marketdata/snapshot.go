package marketdata

import (
	"context"

	"github.com/RustColeone/TradingAgents-web-managed/internal/models"
)

// PercentChange computes the gain from purchase to current as a percentage.
// It is undefined (nil) when either price is absent or purchase is zero.
func PercentChange(purchase, current *float64) *float64 {
	if purchase == nil || current == nil || *purchase == 0 {
		return nil
	}
	pct := (*current - *purchase) / *purchase * 100.0
	return &pct
}

// Snapshot looks up the current price for ticker and derives the percent
// change from the purchase price. A feed failure yields a quote with both
// fields absent rather than an error.
func Snapshot(ctx context.Context, feed Feed, ticker string, purchase *float64) models.Quote {
	var current *float64
	if price, err := feed.LatestPrice(ctx, ticker); err == nil {
		current = &price
	}
	return models.Quote{
		Current: current,
		Pct:     PercentChange(purchase, current),
	}
}
