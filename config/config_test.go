package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Sections(t *testing.T) {
	path := writeConfig(t, `
[theme]
accent = "#123456"

[farm]
rows = 3
growth_seconds = 10

[telemetry]
source = "websocket"
backend_url = "http://eeg.local:9000"

[redis]
channel = "eeg"

[metrics]
addr = ":9108"

[display]
tick_ms = 50
show_stats = false

[logging]
file = "logs/farm.log"
level = "DEBUG"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.ResolvedTheme().Accent; got != "#123456" {
		t.Errorf("Expected accent override, got %q", got)
	}
	if got := cfg.ResolvedTheme().Corn; got != DefaultTheme().Corn {
		t.Errorf("Expected default corn color, got %q", got)
	}

	farm := cfg.ResolvedFarm()
	if farm.Rows != 3 || farm.Cols != 4 || farm.GrowthSeconds != 10 || farm.StaggerSeconds != 3 {
		t.Errorf("Expected rows 3 cols 4 growth 10 stagger 3, got %+v", farm)
	}

	tel := cfg.ResolvedTelemetry()
	if tel.Source != SourceWebSocket || tel.BackendURL != "http://eeg.local:9000" {
		t.Errorf("Expected websocket source, got %+v", tel)
	}
	if tel.ScoreScale != 100 || tel.WebSocketPath != "/ws" {
		t.Errorf("Expected default scale and path, got %v %q", tel.ScoreScale, tel.WebSocketPath)
	}

	if got := cfg.ResolvedRedis(); got.Channel != "eeg" || got.Addr != "localhost:6379" {
		t.Errorf("Expected channel eeg on default addr, got %+v", got)
	}
	if cfg.Metrics.Addr != ":9108" {
		t.Errorf("Expected metrics addr :9108, got %q", cfg.Metrics.Addr)
	}
	if cfg.ResolvedTick() != 50*time.Millisecond {
		t.Errorf("Expected 50ms tick, got %v", cfg.ResolvedTick())
	}
	if cfg.ResolvedShowStats() {
		t.Errorf("Expected stats hidden")
	}
	if !cfg.ResolvedShowChannels() {
		t.Errorf("Expected channels shown by default")
	}

	wantLog := filepath.Join(filepath.Dir(path), "logs", "farm.log")
	if cfg.ResolvedLogFile() != wantLog {
		t.Errorf("Expected log file %q, got %q", wantLog, cfg.ResolvedLogFile())
	}
	if cfg.ResolvedLogLevel() != "debug" {
		t.Errorf("Expected level debug, got %q", cfg.ResolvedLogLevel())
	}
}

func TestLoad_Defaults(t *testing.T) {
	var cfg Config
	farm := cfg.ResolvedFarm()
	if farm.Rows != 5 || farm.Cols != 4 || farm.Stages != 5 {
		t.Errorf("Expected 5x4 plot with 5 stages, got %+v", farm)
	}
	spawn := cfg.ResolvedSpawn()
	if spawn.MaxSpawn != 12 || spawn.IntervalSeconds != 20 || spawn.SlideSeconds != 2.5 {
		t.Errorf("Expected default spawn config, got %+v", spawn)
	}
	tel := cfg.ResolvedTelemetry()
	if tel.Source != SourceMock || tel.ScoreCapacity != 100 || tel.DisplayCapacity != 60 {
		t.Errorf("Expected default telemetry, got %+v", tel)
	}
	if tel.CalibrationSeconds != 15 || tel.CalibrationTimeoutSeconds != 20 {
		t.Errorf("Expected 15s calibration with 20s timeout, got %v %v", tel.CalibrationSeconds, tel.CalibrationTimeoutSeconds)
	}
	if cfg.ResolvedStatsWidth() != 40 {
		t.Errorf("Expected stats width 40, got %d", cfg.ResolvedStatsWidth())
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
	if _, err := Load(writeConfig(t, "[farm\nrows = ")); err == nil {
		t.Errorf("Expected parse error")
	}
	if _, err := Load(writeConfig(t, "[telemetry]\nsource = \"serial\"\n")); err == nil {
		t.Errorf("Expected invalid source error")
	}
	if _, err := Load(writeConfig(t, "[logging]\nlevel = \"loud\"\n")); err == nil {
		t.Errorf("Expected invalid level error")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	show := false
	cfg := Config{
		Farm:      FarmConfig{Rows: 6},
		Telemetry: TelemetryConfig{Source: SourceRedis},
		Display:   DisplayConfig{ShowChannels: &show},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Farm.Rows != 6 || loaded.Telemetry.Source != SourceRedis || loaded.ResolvedShowChannels() {
		t.Errorf("Expected saved values back, got %+v", loaded)
	}
}
