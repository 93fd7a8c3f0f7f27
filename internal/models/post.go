package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Suggestion categorizes an analysis outcome for a single ticker.
type Suggestion string

const (
	SuggestionBuy  Suggestion = "Buy"
	SuggestionHold Suggestion = "Hold"
	SuggestionSell Suggestion = "Sell"
)

// ValidSuggestion returns true if the value is one of Buy/Hold/Sell.
func ValidSuggestion(s Suggestion) bool {
	switch s {
	case SuggestionBuy, SuggestionHold, SuggestionSell:
		return true
	}
	return false
}

// Purchases maps tickers to purchase prices. A legacy scalar form applies a
// single price uniformly to every ticker, so the JSON value may be either a
// number or an object.
type Purchases struct {
	Uniform   *float64
	PerTicker map[string]float64
}

// For returns the purchase price applying to ticker, if any.
func (p Purchases) For(ticker string) (float64, bool) {
	if p.Uniform != nil {
		return *p.Uniform, true
	}
	v, ok := p.PerTicker[ticker]
	return v, ok
}

// IsZero reports whether no purchase information is present.
func (p Purchases) IsZero() bool {
	return p.Uniform == nil && len(p.PerTicker) == 0
}

// UnmarshalJSON accepts either a bare number or a {ticker: price} object.
func (p *Purchases) UnmarshalJSON(data []byte) error {
	p.Uniform = nil
	p.PerTicker = nil

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if trimmed[0] == '{' {
		m := map[string]float64{}
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		if len(m) > 0 {
			p.PerTicker = m
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Uniform = &v
	return nil
}

// MarshalJSON preserves the form the purchases were supplied in.
func (p Purchases) MarshalJSON() ([]byte, error) {
	if p.Uniform != nil {
		return json.Marshal(*p.Uniform)
	}
	if p.PerTicker == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.PerTicker)
}

// TickerResult holds the suggestion and supporting rationale for one ticker.
// Signals is an opaque bag of engine-provided fields (final decision text,
// investment plan, sub-judge decisions) passed through unchanged.
type TickerResult struct {
	Suggestion Suggestion     `json:"suggestion"`
	Signals    map[string]any `json:"signals,omitempty"`
}

// Analysis is the last completed or in-progress analysis bundle for a post.
type Analysis struct {
	Report    string                  `json:"report,omitempty"` // append-only run log
	PerTicker map[string]TickerResult `json:"per_ticker,omitempty"`
	Summary   string                  `json:"summary,omitempty"` // one line per ticker
	UpdatedAt time.Time               `json:"updatedAt,omitzero"`
}

// Quote is a point-in-time price snapshot for one ticker. Current is null
// when the price feed failed; Pct is null unless both a current price and a
// non-zero purchase price exist.
type Quote struct {
	Current *float64 `json:"current"`
	Pct     *float64 `json:"pct"`
}

// Post is a tracked basket of tickers with its own analysis and snapshot
// state. Ticker order is significant: it controls summary and snapshot
// ordering during analysis runs.
type Post struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Tickers     []string         `json:"tickers"`
	Options     map[string]any   `json:"options"` // passed opaquely to the engine
	Purchases   Purchases        `json:"purchases"`
	Analysis    *Analysis        `json:"analysis"`
	Snapshot    map[string]Quote `json:"snapshot"`
}

// PostInput is the client-supplied payload for creating or updating a post.
// Pointer fields distinguish "absent" from "set to empty" on update.
type PostInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Tickers     *[]string       `json:"tickers"`
	Options     *map[string]any `json:"options"`
	Purchases   *Purchases      `json:"purchases"`
}

// NewPost creates an empty post from client input. Analysis starts null and
// the snapshot empty; both are filled in by analysis runs.
func NewPost(in PostInput) *Post {
	now := time.Now().UTC()

	p := &Post{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Title:     "Untitled",
		Tickers:   []string{},
		Options:   map[string]any{},
		Snapshot:  map[string]Quote{},
	}
	p.ApplyInput(in)
	return p
}

// ApplyInput applies the fields present in the input, leaving absent fields
// untouched, and bumps UpdatedAt.
func (p *Post) ApplyInput(in PostInput) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			t = "Untitled"
		}
		p.Title = t
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Tickers != nil {
		p.Tickers = NormalizeTickers(*in.Tickers)
	}
	if in.Options != nil {
		p.Options = *in.Options
		if p.Options == nil {
			p.Options = map[string]any{}
		}
	}
	if in.Purchases != nil {
		p.Purchases = *in.Purchases
	}
	p.UpdatedAt = time.Now().UTC()
}

// PurchaseFor returns the purchase price for ticker, honoring both the
// per-ticker and legacy uniform forms.
func (p *Post) PurchaseFor(ticker string) (float64, bool) {
	return p.Purchases.For(ticker)
}

// NormalizeTickers trims, uppercases, and drops empty symbols while
// preserving order.
func NormalizeTickers(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
