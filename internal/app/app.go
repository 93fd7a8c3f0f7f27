package app

import (
	"fmt"

	"github.com/RustColeone/TradingAgents-web-managed/internal/analysis"
	"github.com/RustColeone/TradingAgents-web-managed/internal/cache"
	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/config"
	"github.com/RustColeone/TradingAgents-web-managed/internal/engine"
	"github.com/RustColeone/TradingAgents-web-managed/internal/handlers"
	"github.com/RustColeone/TradingAgents-web-managed/internal/marketdata"
	"github.com/RustColeone/TradingAgents-web-managed/internal/mcp"
	"github.com/RustColeone/TradingAgents-web-managed/internal/scheduler"
	"github.com/RustColeone/TradingAgents-web-managed/internal/store"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Store    *store.Store
	Engine   engine.Engine
	Feed     marketdata.Feed
	Pipeline *analysis.Pipeline

	// Nil when the daily schedule is disabled.
	Scheduler *scheduler.Scheduler

	// HTTP handlers
	ConfigHandler   *handlers.ConfigHandler
	PostsHandler    *handlers.PostsHandler
	AnalyzeHandler  *handlers.AnalyzeHandler
	StreamHandler   *handlers.StreamHandler
	ChartHandler    *handlers.ChartHandler
	HealthHandler   *handlers.HealthHandler
	VersionHandler  *handlers.VersionHandler
	MCPHandler      *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	st, err := store.New(cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = st

	if cfg.Engine.URL == "" {
		logger.Warn().Msg("no engine URL configured, analysis is disabled")
		a.Engine = engine.Disabled{}
	} else {
		a.Engine = engine.NewClient(cfg.Engine.URL, cfg.Engine.APIKey, cfg.Engine.GetTimeout(), logger)
	}

	if cfg.MarketData.Disabled {
		logger.Warn().Msg("market data feed disabled, snapshots and charts will be empty")
		a.Feed = marketdata.DisabledFeed{}
	} else {
		a.Feed = marketdata.NewYahooFeed(cfg.MarketData.BaseURL, cfg.MarketData.GetTimeout(), logger)
	}

	a.Pipeline = analysis.New(st, a.Engine, a.Feed, cfg.Engine.Defaults, cfg.Schedule.Location(), logger)

	if cfg.Schedule.Enabled {
		a.Scheduler = scheduler.New(st, a.Pipeline, cfg.Schedule.Hour, cfg.Schedule.Minute, cfg.Schedule.Location(), logger)
	} else {
		logger.Info().Msg("daily analysis schedule disabled")
	}

	a.initHandlers()

	logger.Info().
		Str("storage", cfg.Storage.Path).
		Str("engine", cfg.Engine.URL).
		Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.ConfigHandler = handlers.NewConfigHandler()
	a.PostsHandler = handlers.NewPostsHandler(a.Store, a.Logger)
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(a.Store, a.Pipeline, a.Logger)
	a.StreamHandler = handlers.NewStreamHandler(a.Pipeline, a.Logger)
	a.ChartHandler = handlers.NewChartHandler(a.Feed, cache.New(a.Config.MarketData.GetCacheTTL(), 256), a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.MCPHandler = mcp.NewHandler(a.Store, a.Pipeline, a.Feed, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
