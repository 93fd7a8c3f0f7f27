// Package engine talks to an external trading-agents graph service that
// produces a trade decision per ticker from a multi-agent debate.
package engine

import (
	"context"
	"errors"
)

// ErrNotConfigured indicates no engine endpoint is configured.
var ErrNotConfigured = errors.New("analysis engine not configured")

// Result is the terminal output of one engine run for one ticker.
// State carries the engine's rationale fields (final_trade_decision,
// investment_plan, judge_decision_invest, judge_decision_risk) unmodified.
type Result struct {
	Decision string         `json:"decision"`
	State    map[string]any `json:"state"`
}

// Session is a configured engine ready to analyze tickers. Sessions are
// cheap to construct; callers create a fresh one per ticker.
type Session interface {
	// Run performs one analysis and returns the final result.
	Run(ctx context.Context, ticker, date string) (*Result, error)
	// Stream performs one analysis, delivering transcript chunks to onChunk
	// as they arrive, and returns the final result.
	Stream(ctx context.Context, ticker, date string, onChunk func(text string)) (*Result, error)
}

// Engine constructs sessions from effective option maps.
type Engine interface {
	Configure(options map[string]any) (Session, error)
}

// Disabled is an Engine without a backing service. Configure always fails,
// which callers surface as a single run-level error.
type Disabled struct{}

func (Disabled) Configure(options map[string]any) (Session, error) {
	return nil, ErrNotConfigured
}

// optionKeys are the top-level settings recognized when merging post
// options over engine defaults.
var optionKeys = []string{
	"llm_provider",
	"deep_think_llm",
	"quick_think_llm",
	"backend_url",
	"online_tools",
	"max_debate_rounds",
	"project_dir",
}

// MergeOptions layers post options over engine defaults: recognized
// top-level keys override first, then a nested "config" map overrides on
// top, later keys winning on collision.
func MergeOptions(defaults, opts map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(opts))
	for k, v := range defaults {
		merged[k] = v
	}
	for _, k := range optionKeys {
		if v, ok := opts[k]; ok {
			merged[k] = v
		}
	}
	if nested, ok := opts["config"].(map[string]any); ok {
		for k, v := range nested {
			merged[k] = v
		}
	}
	return merged
}
