// Package analysis orchestrates engine runs over a post's tickers,
// streaming progress events and persisting incremental results.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/engine"
	"github.com/RustColeone/TradingAgents-web-managed/internal/marketdata"
	"github.com/RustColeone/TradingAgents-web-managed/internal/models"
	"github.com/RustColeone/TradingAgents-web-managed/internal/store"
)

// Pipeline runs the per-ticker analysis loop for posts. The streaming and
// batch entry points share one implementation and leave identical persisted
// state; only event emission differs.
type Pipeline struct {
	store    *store.Store
	engine   engine.Engine
	feed     marketdata.Feed
	defaults map[string]any
	loc      *time.Location
	logger   *common.Logger
}

// New creates a pipeline. defaults are the engine's baseline options; loc
// is the market timezone used to derive the as-of date.
func New(st *store.Store, eng engine.Engine, feed marketdata.Feed, defaults map[string]any, loc *time.Location, logger *common.Logger) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Pipeline{
		store:    st,
		engine:   eng,
		feed:     feed,
		defaults: defaults,
		loc:      loc,
		logger:   logger,
	}
}

// asOfDate returns options["date"] when supplied, else today in the market
// timezone.
func (p *Pipeline) asOfDate(options map[string]any) string {
	if d, ok := options["date"].(string); ok && strings.TrimSpace(d) != "" {
		return strings.TrimSpace(d)
	}
	return time.Now().In(p.loc).Format("2006-01-02")
}

// initAnalysis ensures the post's analysis bundle exists with a report and
// per-ticker map.
func initAnalysis(post *models.Post) *models.Analysis {
	if post.Analysis == nil {
		post.Analysis = &models.Analysis{}
	}
	if post.Analysis.PerTicker == nil {
		post.Analysis.PerTicker = map[string]models.TickerResult{}
	}
	post.Analysis.UpdatedAt = time.Now().UTC()
	return post.Analysis
}

// appendReport appends a wrapped line to the post's report in one store
// transaction.
func (p *Pipeline) appendReport(id, line string) error {
	wrapped := WrapText(line, reportWidth)
	_, err := p.store.Update(id, func(post *models.Post) error {
		ana := initAnalysis(post)
		if ana.Report != "" {
			ana.Report += "\n"
		}
		ana.Report += wrapped
		post.UpdatedAt = time.Now().UTC()
		return nil
	})
	return err
}

// Run starts a streaming analysis for the post. It validates existence
// before returning, then produces events on the returned channel from a
// background goroutine; the channel is closed when the run ends.
func (p *Pipeline) Run(ctx context.Context, id string) (<-chan Event, error) {
	post, err := p.store.Find(id)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		emit := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		if err := p.runPost(ctx, post, emit); err != nil {
			emit(Event{Type: EventError, Message: err.Error()})
		}
	}()
	return events, nil
}

// RunBatch runs the same loop without event emission and returns the post
// in its final state.
func (p *Pipeline) RunBatch(ctx context.Context, id string) (*models.Post, error) {
	post, err := p.store.Find(id)
	if err != nil {
		return nil, err
	}
	if err := p.runPost(ctx, post, func(Event) {}); err != nil {
		return nil, err
	}
	return p.store.Find(id)
}

// runPost is the shared per-ticker loop. Store write failures propagate;
// engine and feed failures degrade per ticker.
func (p *Pipeline) runPost(ctx context.Context, post *models.Post, emit func(Event)) error {
	id := post.ID
	tickers := post.Tickers
	options := post.Options
	if options == nil {
		options = map[string]any{}
	}
	date := p.asOfDate(options)

	if _, err := p.store.Update(id, func(post *models.Post) error {
		initAnalysis(post)
		post.UpdatedAt = time.Now().UTC()
		return nil
	}); err != nil {
		return fmt.Errorf("failed to initialize analysis state: %w", err)
	}
	emit(Event{Type: EventStart, ID: id, Tickers: tickers})

	merged := engine.MergeOptions(p.defaults, options)

	// Availability check before any per-ticker work: engine-unavailable is
	// a whole-run error with per-ticker state untouched.
	if _, err := p.engine.Configure(merged); err != nil {
		p.logger.Warn().Err(err).Str("post", id).Msg("Analysis engine unavailable")
		if aerr := p.appendReport(id, fmt.Sprintf("ERROR: %v", err)); aerr != nil {
			return aerr
		}
		emit(Event{Type: EventError, Message: err.Error()})
		return nil
	}

	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		emit(Event{Type: EventTickerStart, Ticker: ticker})

		if err := p.runTicker(ctx, post, ticker, date, merged, emit); err != nil {
			return err
		}
	}

	if err := p.finalizeSummary(id, tickers, date); err != nil {
		return err
	}
	emit(Event{Type: EventDone, ID: id})
	return nil
}

// runTicker drives one engine session for one ticker and persists its
// outcome. Returned errors are store failures only.
func (p *Pipeline) runTicker(ctx context.Context, post *models.Post, ticker, date string, merged map[string]any, emit func(Event)) error {
	id := post.ID

	sess, err := p.engine.Configure(merged)
	if err != nil {
		return p.recordTickerFailure(id, ticker, err, emit)
	}

	var lastSeen models.Suggestion
	var chunkErr error
	result, err := sess.Stream(ctx, ticker, date, func(text string) {
		text = strings.TrimSpace(text)
		if text == "" || chunkErr != nil {
			return
		}
		if aerr := p.appendReport(id, fmt.Sprintf("%s: %s", ticker, text)); aerr != nil {
			chunkErr = aerr
			return
		}
		if d, ok := ScanForDecision(text); ok {
			lastSeen = d
		}
		emit(Event{Type: EventLog, Ticker: ticker, Message: text})
	})
	if chunkErr != nil {
		return chunkErr
	}
	if err != nil {
		return p.recordTickerFailure(id, ticker, err, emit)
	}

	decision := result.Decision
	if strings.TrimSpace(decision) == "" {
		if lastSeen != "" {
			decision = string(lastSeen)
		} else {
			decision = string(models.SuggestionHold)
		}
	}
	suggestion := Normalize(decision)
	signals := extractSignals(result.State)

	if _, err := p.store.Update(id, func(post *models.Post) error {
		ana := initAnalysis(post)
		ana.PerTicker[ticker] = models.TickerResult{Suggestion: suggestion, Signals: signals}
		return nil
	}); err != nil {
		return err
	}

	var purchase *float64
	if buy, ok := post.PurchaseFor(ticker); ok {
		purchase = &buy
	}
	quote := marketdata.Snapshot(ctx, p.feed, ticker, purchase)

	if _, err := p.store.Update(id, func(post *models.Post) error {
		if post.Snapshot == nil {
			post.Snapshot = map[string]models.Quote{}
		}
		post.Snapshot[ticker] = quote
		post.UpdatedAt = time.Now().UTC()
		return nil
	}); err != nil {
		return err
	}

	emit(Event{Type: EventTickerDone, Ticker: ticker, Suggestion: suggestion, Current: quote.Current, Pct: quote.Pct})
	return nil
}

// recordTickerFailure handles a per-ticker engine failure. A duplicate
// memory-collection condition is benign: the prior suggestion stands and
// no ticker-error is emitted. Anything else degrades to the previous or
// Hold suggestion with the error recorded in signals.
func (p *Pipeline) recordTickerFailure(id, ticker string, cause error, emit func(Event)) error {
	msg := cause.Error()
	if strings.Contains(msg, "already exists") && strings.Contains(strings.ToLower(msg), "memory") {
		p.logger.Warn().Str("post", id).Str("ticker", ticker).Msg("Memory collection already exists, reusing existing memory")
		return p.appendReport(id, fmt.Sprintf("%s: warning Memory collection already exists; reusing existing memory.", ticker))
	}

	p.logger.Error().Err(cause).Str("post", id).Str("ticker", ticker).Msg("Ticker analysis failed")
	if err := p.appendReport(id, fmt.Sprintf("%s: error %v", ticker, cause)); err != nil {
		return err
	}

	if _, err := p.store.Update(id, func(post *models.Post) error {
		ana := initAnalysis(post)
		suggestion := models.SuggestionHold
		if prev, ok := ana.PerTicker[ticker]; ok && prev.Suggestion != "" {
			suggestion = prev.Suggestion
		}
		ana.PerTicker[ticker] = models.TickerResult{
			Suggestion: suggestion,
			Signals:    map[string]any{"error": msg},
		}
		return nil
	}); err != nil {
		return err
	}

	emit(Event{Type: EventTickerError, Ticker: ticker, Error: msg})
	return nil
}

// finalizeSummary rebuilds the summary from persisted per-ticker results,
// one line per ticker in post order.
func (p *Pipeline) finalizeSummary(id string, tickers []string, date string) error {
	_, err := p.store.Update(id, func(post *models.Post) error {
		ana := initAnalysis(post)
		lines := make([]string, 0, len(tickers))
		for _, ticker := range tickers {
			suggestion := models.SuggestionHold
			if rec, ok := ana.PerTicker[ticker]; ok && rec.Suggestion != "" {
				suggestion = rec.Suggestion
			}
			lines = append(lines, fmt.Sprintf("%s: %s (%s)", ticker, suggestion, date))
		}
		ana.Summary = strings.Join(lines, "\n")
		post.UpdatedAt = time.Now().UTC()
		return nil
	})
	return err
}

// extractSignals picks the rationale fields out of the engine's final
// state, tolerating both flat and nested debate-state layouts.
func extractSignals(state map[string]any) map[string]any {
	signals := map[string]any{
		"final_trade_decision":  state["final_trade_decision"],
		"investment_plan":       state["investment_plan"],
		"judge_decision_invest": state["judge_decision_invest"],
		"judge_decision_risk":   state["judge_decision_risk"],
	}
	if signals["judge_decision_invest"] == nil {
		if debate, ok := state["investment_debate_state"].(map[string]any); ok {
			signals["judge_decision_invest"] = debate["judge_decision"]
		}
	}
	if signals["judge_decision_risk"] == nil {
		if debate, ok := state["risk_debate_state"].(map[string]any); ok {
			signals["judge_decision_risk"] = debate["judge_decision"]
		}
	}
	return signals
}

// RefreshSnapshot recomputes the price snapshot for every ticker of the
// post without running analysis.
func (p *Pipeline) RefreshSnapshot(ctx context.Context, id string) (*models.Post, error) {
	post, err := p.store.Find(id)
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]models.Quote, len(post.Tickers))
	for _, ticker := range post.Tickers {
		var purchase *float64
		if buy, ok := post.PurchaseFor(ticker); ok {
			purchase = &buy
		}
		quotes[ticker] = marketdata.Snapshot(ctx, p.feed, ticker, purchase)
	}

	return p.store.Update(id, func(post *models.Post) error {
		if post.Snapshot == nil {
			post.Snapshot = map[string]models.Quote{}
		}
		for ticker, quote := range quotes {
			post.Snapshot[ticker] = quote
		}
		post.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// Summarize recomputes and persists the summary from the current analysis
// state, falling back to a report scan for tickers without a recorded
// suggestion.
func (p *Pipeline) Summarize(id string) (*models.Post, error) {
	post, err := p.store.Find(id)
	if err != nil {
		return nil, err
	}

	options := post.Options
	if options == nil {
		options = map[string]any{}
	}
	date := p.asOfDate(options)

	var report string
	per := map[string]models.TickerResult{}
	if post.Analysis != nil {
		report = post.Analysis.Report
		if post.Analysis.PerTicker != nil {
			per = post.Analysis.PerTicker
		}
	}

	lines := make([]string, 0, len(post.Tickers))
	for _, ticker := range post.Tickers {
		suggestion := models.Suggestion("")
		if rec, ok := per[ticker]; ok {
			suggestion = rec.Suggestion
		}
		if suggestion == "" {
			if s, ok := ScanReportForTicker(report, ticker); ok {
				suggestion = s
			} else {
				suggestion = models.SuggestionHold
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", ticker, suggestion, date))
	}

	if len(lines) == 0 {
		return post, nil
	}

	return p.store.Update(id, func(post *models.Post) error {
		ana := initAnalysis(post)
		ana.Summary = strings.Join(lines, "\n")
		post.UpdatedAt = time.Now().UTC()
		return nil
	})
}
