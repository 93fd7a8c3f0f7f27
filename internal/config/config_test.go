package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Path != "./data/stocks.json" {
		t.Errorf("expected default storage path ./data/stocks.json, got %s", cfg.Storage.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Schedule.Hour != 13 || cfg.Schedule.Minute != 10 {
		t.Errorf("expected default schedule 13:10, got %02d:%02d", cfg.Schedule.Hour, cfg.Schedule.Minute)
	}
	if cfg.Schedule.Timezone != "America/Los_Angeles" {
		t.Errorf("expected default timezone America/Los_Angeles, got %s", cfg.Schedule.Timezone)
	}
	if cfg.Engine.Defaults["llm_provider"] != "openai" {
		t.Errorf("expected default llm_provider openai, got %v", cfg.Engine.Defaults["llm_provider"])
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[server]
port = 9090
host = "127.0.0.1"

[storage]
path = "/tmp/test-stocks.json"

[engine]
url = "http://localhost:8000"
timeout = "5m"

[logging]
level = "debug"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Path != "/tmp/test-stocks.json" {
		t.Errorf("expected storage path /tmp/test-stocks.json, got %s", cfg.Storage.Path)
	}
	if cfg.Engine.URL != "http://localhost:8000" {
		t.Errorf("expected engine url http://localhost:8000, got %s", cfg.Engine.URL)
	}
	if cfg.Engine.GetTimeout() != 5*time.Minute {
		t.Errorf("expected engine timeout 5m, got %v", cfg.Engine.GetTimeout())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "partial.toml")

	// Only override port; everything else should stay default
	content := `
[server]
port = 3000
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	// Host should remain the default
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	// Schedule should remain the default
	if cfg.Schedule.Hour != 13 {
		t.Errorf("expected default schedule hour 13, got %d", cfg.Schedule.Hour)
	}
}

func TestLoadFromFiles_MultipleFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	baseContent := `
[server]
port = 3000
host = "base-host"
`
	if err := os.WriteFile(base, []byte(baseContent), 0644); err != nil {
		t.Fatal(err)
	}

	override := filepath.Join(dir, "override.toml")
	overrideContent := `
[server]
port = 4000
`
	if err := os.WriteFile(override, []byte(overrideContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	// Port should be overridden by the second file
	if cfg.Server.Port != 4000 {
		t.Errorf("expected port 4000 from override, got %d", cfg.Server.Port)
	}
	// Host should come from the base file
	if cfg.Server.Host != "base-host" {
		t.Errorf("expected host base-host from base file, got %s", cfg.Server.Host)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/path.toml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFiles_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "invalid.toml")

	if err := os.WriteFile(tomlPath, []byte("this is not valid {{toml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromFiles(tomlPath)
	if err == nil {
		t.Error("expected error for invalid TOML, got nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("TAWEB_SERVER_PORT", "9999")
	t.Setenv("TAWEB_SERVER_HOST", "env-host")
	t.Setenv("TAWEB_STORAGE_PATH", "/env/stocks.json")
	t.Setenv("TAWEB_ENGINE_URL", "http://env-engine:8000")
	t.Setenv("TAWEB_LOG_LEVEL", "error")

	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("expected env port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "env-host" {
		t.Errorf("expected env host env-host, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Path != "/env/stocks.json" {
		t.Errorf("expected env storage path /env/stocks.json, got %s", cfg.Storage.Path)
	}
	if cfg.Engine.URL != "http://env-engine:8000" {
		t.Errorf("expected env engine url http://env-engine:8000, got %s", cfg.Engine.URL)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env log level error, got %s", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("TAWEB_SERVER_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	// Port should remain default when env var is not a valid integer
	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000 for invalid env, got %d", cfg.Server.Port)
	}
}

func TestApplyEnvOverrides_ScheduleEnabled(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("TAWEB_SCHEDULE_ENABLED", "false")

	applyEnvOverrides(cfg)

	if cfg.Schedule.Enabled {
		t.Error("expected schedule disabled via env override")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 7777, "flag-host")

	if cfg.Server.Port != 7777 {
		t.Errorf("expected flag port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "flag-host" {
		t.Errorf("expected flag host flag-host, got %s", cfg.Server.Host)
	}
}

func TestApplyFlagOverrides_ZeroPortNoOverride(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 0, "")

	// No override when port is 0 and host is empty
	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
}

func TestEnvOverridesFileConfig(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[server]
port = 3000
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TAWEB_SERVER_PORT", "5555")

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	// Env should override file value
	if cfg.Server.Port != 5555 {
		t.Errorf("expected env override port 5555, got %d", cfg.Server.Port)
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("default config should validate cleanly, got %v", issues)
	}
}

func TestValidate_BadValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.Port = 0
	cfg.Storage.Path = ""
	cfg.Schedule.Hour = 24
	cfg.Schedule.Minute = 60
	cfg.Schedule.Timezone = "Mars/Olympus_Mons"

	issues := cfg.Validate()
	if len(issues) != 5 {
		t.Errorf("expected 5 validation issues, got %d: %v", len(issues), issues)
	}
}

func TestEngineConfig_TimeoutDefaults(t *testing.T) {
	c := EngineConfig{Timeout: "garbage"}
	if c.GetTimeout() != 10*time.Minute {
		t.Errorf("expected fallback timeout 10m, got %v", c.GetTimeout())
	}

	c = EngineConfig{}
	if c.GetTimeout() != 10*time.Minute {
		t.Errorf("expected fallback timeout 10m for empty value, got %v", c.GetTimeout())
	}
}

func TestScheduleConfig_Location(t *testing.T) {
	c := ScheduleConfig{Timezone: "America/Los_Angeles"}
	if c.Location().String() != "America/Los_Angeles" {
		t.Errorf("expected America/Los_Angeles, got %s", c.Location())
	}

	c = ScheduleConfig{Timezone: "Not/AZone"}
	if c.Location() != time.UTC {
		t.Errorf("expected UTC fallback for bad timezone, got %s", c.Location())
	}
}
