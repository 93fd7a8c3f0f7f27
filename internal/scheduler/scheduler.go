// Package scheduler triggers a daily batch analysis over every post at a
// market-close-relative wall-clock time.
package scheduler

import (
	"context"
	"time"

	"github.com/RustColeone/TradingAgents-web-managed/internal/analysis"
	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/store"
)

// minSleep floors every wait so a tight misconfiguration can never spin
// the loop.
const minSleep = 10 * time.Second

// Scheduler runs the batch pipeline for all posts once per day.
type Scheduler struct {
	store    *store.Store
	pipeline *analysis.Pipeline
	hour     int
	minute   int
	loc      *time.Location
	logger   *common.Logger
}

// New creates a scheduler firing daily at hour:minute in loc.
func New(st *store.Store, pipeline *analysis.Pipeline, hour, minute int, loc *time.Location, logger *common.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Scheduler{
		store:    st,
		pipeline: pipeline,
		hour:     hour,
		minute:   minute,
		loc:      loc,
		logger:   logger,
	}
}

// NextRun returns the next hour:minute occurrence in loc at or after now:
// today if still ahead, otherwise tomorrow.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run loops until ctx is canceled. Per-cycle failures are logged and the
// next run is recomputed; the loop itself never exits on error.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().
		Str("time", time.Date(0, 1, 1, s.hour, s.minute, 0, 0, time.UTC).Format("15:04")).
		Str("timezone", s.loc.String()).
		Msg("Daily analysis scheduler started")

	for {
		next := NextRun(time.Now(), s.hour, s.minute, s.loc)
		wait := time.Until(next)
		if wait < minSleep {
			wait = minSleep
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Daily analysis scheduler stopped")
			return
		case <-timer.C:
		}

		s.runAll(ctx)
	}
}

// runAll runs the batch pipeline over every post sequentially. A failing
// post is logged and skipped.
func (s *Scheduler) runAll(ctx context.Context) {
	posts := s.store.List()
	s.logger.Info().Int("posts", len(posts)).Msg("Scheduled analysis starting")

	for _, post := range posts {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.pipeline.RunBatch(ctx, post.ID); err != nil {
			s.logger.Error().Err(err).Str("post", post.ID).Str("title", post.Title).Msg("Scheduled analysis failed for post")
			continue
		}
		s.logger.Info().Str("post", post.ID).Str("title", post.Title).Msg("Scheduled analysis completed for post")
	}
}
