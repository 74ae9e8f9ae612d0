package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Theme     ThemeConfig     `toml:"theme"`
	Farm      FarmConfig      `toml:"farm"`
	Spawn     SpawnConfig     `toml:"spawn"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Redis     RedisConfig     `toml:"redis"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Display   DisplayConfig   `toml:"display"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ThemeConfig struct {
	BG          string `toml:"bg,omitempty"`
	FG          string `toml:"fg,omitempty"`
	Accent      string `toml:"accent,omitempty"`
	Accent2     string `toml:"accent2,omitempty"`
	Muted       string `toml:"muted,omitempty"`
	Dim         string `toml:"dim,omitempty"`
	StatusBarBG string `toml:"status_bar_bg,omitempty"`
	StatusBarFG string `toml:"status_bar_fg,omitempty"`
	Error       string `toml:"error,omitempty"`

	// One sparkline color per channel, rotating.
	ChannelColors []string `toml:"channel_colors,omitempty"`

	// Farm
	Soil     string `toml:"soil,omitempty"`
	Sprout   string `toml:"sprout,omitempty"`
	Corn     string `toml:"corn,omitempty"`
	Cherry   string `toml:"cherry,omitempty"`
	Hill     string `toml:"hill,omitempty"`
	HenHouse string `toml:"hen_house,omitempty"`
	Egg      string `toml:"egg,omitempty"`
	Chicken  string `toml:"chicken,omitempty"`

	// Focus gauge gradient
	GaugeLow  string `toml:"gauge_low,omitempty"`
	GaugeHigh string `toml:"gauge_high,omitempty"`

	SpinnerFG         string `toml:"spinner_fg,omitempty"`
	SpinnerType       string `toml:"spinner_type,omitempty"`
	FeedbackSuccessFG string `toml:"feedback_success_fg,omitempty"`
	FeedbackSuccessBG string `toml:"feedback_success_bg,omitempty"`
	FeedbackWarningFG string `toml:"feedback_warning_fg,omitempty"`
	FeedbackWarningBG string `toml:"feedback_warning_bg,omitempty"`
	FeedbackErrorFG   string `toml:"feedback_error_fg,omitempty"`
	FeedbackErrorBG   string `toml:"feedback_error_bg,omitempty"`
}

type FarmConfig struct {
	Rows           int     `toml:"rows,omitempty"`
	Cols           int     `toml:"cols,omitempty"`
	Stages         int     `toml:"stages,omitempty"`
	GrowthSeconds  float64 `toml:"growth_seconds,omitempty"`
	StaggerSeconds float64 `toml:"stagger_seconds,omitempty"`
}

type SpawnConfig struct {
	SlideSeconds    float64 `toml:"slide_seconds,omitempty"`
	IdleSeconds     float64 `toml:"idle_seconds,omitempty"`
	WalkSeconds     float64 `toml:"walk_seconds,omitempty"`
	IntervalSeconds float64 `toml:"interval_seconds,omitempty"`
	MaxSpawn        int     `toml:"max_spawn,omitempty"`
	GridCols        int     `toml:"grid_cols,omitempty"`
	GridRows        int     `toml:"grid_rows,omitempty"`
	Candidates      int     `toml:"candidates,omitempty"`
}

type TelemetryConfig struct {
	Source                    string  `toml:"source,omitempty"` // mock, websocket or redis
	BackendURL                string  `toml:"backend_url,omitempty"`
	WebSocketPath             string  `toml:"ws_path,omitempty"`
	ScoreScale                float64 `toml:"score_scale,omitempty"`
	GoodThreshold             float64 `toml:"good_threshold,omitempty"`
	ScoreCapacity             int     `toml:"score_capacity,omitempty"`
	DisplayCapacity           int     `toml:"display_capacity,omitempty"`
	SampleIntervalMs          int     `toml:"sample_interval_ms,omitempty"`
	CalibrationSeconds        float64 `toml:"calibration_seconds,omitempty"`
	CalibrationTimeoutSeconds float64 `toml:"calibration_timeout_seconds,omitempty"`
	MockCalibrationSeconds    float64 `toml:"mock_calibration_seconds,omitempty"`
	MockChannels              int     `toml:"mock_channels,omitempty"`
	MockSeed                  uint64  `toml:"mock_seed,omitempty"`
}

type RedisConfig struct {
	Addr        string `toml:"addr,omitempty"`
	Password    string `toml:"password,omitempty"`
	DB          int    `toml:"db,omitempty"`
	Channel     string `toml:"channel,omitempty"`
	PublishMock bool   `toml:"publish_mock,omitempty"` // mirror mock events to the channel
}

type MetricsConfig struct {
	Addr string `toml:"addr,omitempty"` // empty disables the exporter
}

type DisplayConfig struct {
	TickMs       int   `toml:"tick_ms,omitempty"`
	ShowStats    *bool `toml:"show_stats,omitempty"`
	ShowChannels *bool `toml:"show_channels,omitempty"`
	StatsWidth   int   `toml:"stats_width,omitempty"` // percentage, default 40
}

type LoggingConfig struct {
	File  string `toml:"file,omitempty"`
	Level string `toml:"level,omitempty"`
}

// Telemetry sources.
const (
	SourceMock      = "mock"
	SourceWebSocket = "websocket"
	SourceRedis     = "redis"
)

// DefaultConfigPath returns ~/.config/focusfarm/config.toml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "focusfarm", "config.toml")
}

func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.Logging.File != "" {
		cfg.Logging.File = expandHome(cfg.Logging.File)
		if !filepath.IsAbs(cfg.Logging.File) {
			absConfigDir, err := filepath.Abs(filepath.Dir(path))
			if err != nil {
				return cfg, fmt.Errorf("resolving config directory: %w", err)
			}
			cfg.Logging.File = filepath.Join(absConfigDir, cfg.Logging.File)
		}
	}

	return cfg, nil
}

// Validate rejects values that have no sensible fallback.
func (c Config) Validate() error {
	switch c.Telemetry.Source {
	case "", SourceMock, SourceWebSocket, SourceRedis:
	default:
		return fmt.Errorf("telemetry source %q: must be %s, %s or %s", c.Telemetry.Source, SourceMock, SourceWebSocket, SourceRedis)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level %q: must be debug, info, warn or error", c.Logging.Level)
	}
	if c.Farm.Rows < 0 || c.Farm.Cols < 0 || c.Farm.Stages < 0 {
		return fmt.Errorf("farm dimensions must not be negative")
	}
	if c.Spawn.MaxSpawn < 0 {
		return fmt.Errorf("spawn max_spawn must not be negative")
	}
	return nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

// DefaultTheme returns the Vesper color palette with farm colors.
func DefaultTheme() ThemeConfig {
	return ThemeConfig{
		BG:            "#101010",
		FG:            "#ffffff",
		Accent:        "#ffc799",
		Accent2:       "#99ffe4",
		Muted:         "#505050",
		Dim:           "#a0a0a0",
		StatusBarBG:   "#1a1a1a",
		StatusBarFG:   "#a0a0a0",
		Error:         "#ff8080",
		ChannelColors: []string{"#6699ff", "#ffc799", "#ff99cc", "#99ffe4"},

		Soil:     "#6b4f2a",
		Sprout:   "#8fd694",
		Corn:     "#f2d15c",
		Cherry:   "#e0475b",
		Hill:     "#4c8c4a",
		HenHouse: "#b5651d",
		Egg:      "#f5f0e1",
		Chicken:  "#ffffff",

		GaugeLow:  "#ff8080",
		GaugeHigh: "#99ffe4",

		SpinnerFG:         "#ffc799",
		SpinnerType:       "minidot",
		FeedbackSuccessFG: "#99ffe4",
		FeedbackSuccessBG: "#1a3a2a",
		FeedbackWarningFG: "#ffc799",
		FeedbackWarningBG: "#2a2215",
		FeedbackErrorFG:   "#ff8080",
		FeedbackErrorBG:   "#3a1a1a",
	}
}

// ResolvedTheme merges config theme with defaults for any unset fields.
func (c Config) ResolvedTheme() ThemeConfig {
	d := DefaultTheme()
	t := ThemeConfig{
		BG:          pick(c.Theme.BG, d.BG),
		FG:          pick(c.Theme.FG, d.FG),
		Accent:      pick(c.Theme.Accent, d.Accent),
		Accent2:     pick(c.Theme.Accent2, d.Accent2),
		Muted:       pick(c.Theme.Muted, d.Muted),
		Dim:         pick(c.Theme.Dim, d.Dim),
		StatusBarBG: pick(c.Theme.StatusBarBG, d.StatusBarBG),
		StatusBarFG: pick(c.Theme.StatusBarFG, d.StatusBarFG),
		Error:       pick(c.Theme.Error, d.Error),

		Soil:     pick(c.Theme.Soil, d.Soil),
		Sprout:   pick(c.Theme.Sprout, d.Sprout),
		Corn:     pick(c.Theme.Corn, d.Corn),
		Cherry:   pick(c.Theme.Cherry, d.Cherry),
		Hill:     pick(c.Theme.Hill, d.Hill),
		HenHouse: pick(c.Theme.HenHouse, d.HenHouse),
		Egg:      pick(c.Theme.Egg, d.Egg),
		Chicken:  pick(c.Theme.Chicken, d.Chicken),

		GaugeLow:  pick(c.Theme.GaugeLow, d.GaugeLow),
		GaugeHigh: pick(c.Theme.GaugeHigh, d.GaugeHigh),

		SpinnerFG:         pick(c.Theme.SpinnerFG, d.SpinnerFG),
		SpinnerType:       pick(c.Theme.SpinnerType, d.SpinnerType),
		FeedbackSuccessFG: pick(c.Theme.FeedbackSuccessFG, d.FeedbackSuccessFG),
		FeedbackSuccessBG: pick(c.Theme.FeedbackSuccessBG, d.FeedbackSuccessBG),
		FeedbackWarningFG: pick(c.Theme.FeedbackWarningFG, d.FeedbackWarningFG),
		FeedbackWarningBG: pick(c.Theme.FeedbackWarningBG, d.FeedbackWarningBG),
		FeedbackErrorFG:   pick(c.Theme.FeedbackErrorFG, d.FeedbackErrorFG),
		FeedbackErrorBG:   pick(c.Theme.FeedbackErrorBG, d.FeedbackErrorBG),
	}
	t.ChannelColors = d.ChannelColors
	if len(c.Theme.ChannelColors) > 0 {
		t.ChannelColors = c.Theme.ChannelColors
	}
	return t
}

// ResolvedFarm fills unset plot fields with the 5x4 default plot.
func (c Config) ResolvedFarm() FarmConfig {
	return FarmConfig{
		Rows:           pickInt(c.Farm.Rows, 5),
		Cols:           pickInt(c.Farm.Cols, 4),
		Stages:         pickInt(c.Farm.Stages, 5),
		GrowthSeconds:  pickFloat(c.Farm.GrowthSeconds, 20),
		StaggerSeconds: pickFloat(c.Farm.StaggerSeconds, 3),
	}
}

func (c Config) ResolvedSpawn() SpawnConfig {
	return SpawnConfig{
		SlideSeconds:    pickFloat(c.Spawn.SlideSeconds, 2.5),
		IdleSeconds:     pickFloat(c.Spawn.IdleSeconds, 2),
		WalkSeconds:     pickFloat(c.Spawn.WalkSeconds, 5),
		IntervalSeconds: pickFloat(c.Spawn.IntervalSeconds, 20),
		MaxSpawn:        pickInt(c.Spawn.MaxSpawn, 12),
		GridCols:        pickInt(c.Spawn.GridCols, 4),
		GridRows:        pickInt(c.Spawn.GridRows, 3),
		Candidates:      pickInt(c.Spawn.Candidates, 8),
	}
}

func (c Config) ResolvedTelemetry() TelemetryConfig {
	t := c.Telemetry
	return TelemetryConfig{
		Source:                    pick(t.Source, SourceMock),
		BackendURL:                pick(t.BackendURL, "http://localhost:8000"),
		WebSocketPath:             pick(t.WebSocketPath, "/ws"),
		ScoreScale:                pickFloat(t.ScoreScale, 100),
		GoodThreshold:             pickFloat(t.GoodThreshold, 50),
		ScoreCapacity:             pickInt(t.ScoreCapacity, 100),
		DisplayCapacity:           pickInt(t.DisplayCapacity, 60),
		SampleIntervalMs:          pickInt(t.SampleIntervalMs, 100),
		CalibrationSeconds:        pickFloat(t.CalibrationSeconds, 15),
		CalibrationTimeoutSeconds: pickFloat(t.CalibrationTimeoutSeconds, 20),
		MockCalibrationSeconds:    pickFloat(t.MockCalibrationSeconds, 3),
		MockChannels:              pickInt(t.MockChannels, 4),
		MockSeed:                  pickUint(t.MockSeed, uint64(time.Now().UnixNano())),
	}
}

func (c Config) ResolvedRedis() RedisConfig {
	r := c.Redis
	r.Addr = pick(r.Addr, "localhost:6379")
	r.Channel = pick(r.Channel, "focusfarm:events")
	return r
}

// ResolvedTick returns the display refresh interval, 100ms by default.
func (c Config) ResolvedTick() time.Duration {
	if c.Display.TickMs > 0 {
		return time.Duration(c.Display.TickMs) * time.Millisecond
	}
	return 100 * time.Millisecond
}

// ResolvedShowStats returns the configured show_stats or true as default.
func (c Config) ResolvedShowStats() bool {
	if c.Display.ShowStats != nil {
		return *c.Display.ShowStats
	}
	return true
}

// ResolvedShowChannels returns the configured show_channels or true as default.
func (c Config) ResolvedShowChannels() bool {
	if c.Display.ShowChannels != nil {
		return *c.Display.ShowChannels
	}
	return true
}

// ResolvedStatsWidth returns the stats pane width percentage or 40 as default.
func (c Config) ResolvedStatsWidth() int {
	if c.Display.StatsWidth > 0 && c.Display.StatsWidth < 80 {
		return c.Display.StatsWidth
	}
	return 40
}

// ResolvedLogFile returns the log file path, next to the default config by default.
func (c Config) ResolvedLogFile() string {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "focusfarm.log")
}

func (c Config) ResolvedLogLevel() string {
	return strings.ToLower(pick(c.Logging.Level, "info"))
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func pickFloat(a, b float64) float64 {
	if a > 0 {
		return a
	}
	return b
}

func pickUint(a, b uint64) uint64 {
	if a > 0 {
		return a
	}
	return b
}

// Save writes the config back to a TOML file.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
