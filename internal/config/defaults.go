package config

import "github.com/RustColeone/TradingAgents-web-managed/internal/common"

// NewDefaultConfig creates a configuration with default values.
// The engine defaults mirror the options the engine service itself assumes,
// so a bare config file still produces sensible analysis runs.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5000,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Path: "./data/stocks.json",
		},
		Engine: EngineConfig{
			URL:     "",
			Timeout: "10m",
			Defaults: map[string]any{
				"llm_provider":      "openai",
				"deep_think_llm":    "gpt-4.1",
				"quick_think_llm":   "gpt-4.1-mini",
				"backend_url":       "https://api.openai.com/v1",
				"online_tools":      true,
				"max_debate_rounds": 1,
			},
		},
		MarketData: MarketDataConfig{
			BaseURL:  "https://query1.finance.yahoo.com",
			Timeout:  "15s",
			CacheTTL: "1m",
		},
		Schedule: ScheduleConfig{
			Enabled:  true,
			Hour:     13,
			Minute:   10,
			Timezone: "America/Los_Angeles",
		},
		Logging: common.LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "logs/taweb.log",
		},
	}
}
