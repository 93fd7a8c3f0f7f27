package analysis

import "github.com/RustColeone/TradingAgents-web-managed/internal/models"

// EventType identifies a progress event within an analysis run.
type EventType string

const (
	EventStart       EventType = "start"
	EventTickerStart EventType = "ticker-start"
	EventLog         EventType = "log"
	EventTickerDone  EventType = "ticker-done"
	EventTickerError EventType = "ticker-error"
	EventError       EventType = "error"
	EventDone        EventType = "done"
)

// Event is one progress frame from an analysis run. Only the fields
// relevant to the event type are populated.
type Event struct {
	Type       EventType         `json:"type"`
	ID         string            `json:"id,omitempty"`
	Tickers    []string          `json:"tickers,omitempty"`
	Ticker     string            `json:"ticker,omitempty"`
	Message    string            `json:"message,omitempty"`
	Suggestion models.Suggestion `json:"suggestion,omitempty"`
	Current    *float64          `json:"current,omitempty"`
	Pct        *float64          `json:"pct,omitempty"`
	Error      string            `json:"error,omitempty"`
}
