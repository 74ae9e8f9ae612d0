package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dylan/focusfarm/config"
	"github.com/dylan/focusfarm/metrics"
	"github.com/dylan/focusfarm/telemetry"
	"github.com/dylan/focusfarm/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/focusfarm/config.toml)")
	source := flag.String("source", "", "telemetry source: mock, websocket or redis (overrides config)")
	metricsAddr := flag.String("metrics", "", "address for the Prometheus exporter, e.g. :9102 (overrides config)")
	flag.Parse()

	path := *configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		// If using default path and file doesn't exist, use empty config
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg = config.Config{}
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *source != "" {
		cfg.Telemetry.Source = *source
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.ResolvedLogFile(), cfg.ResolvedLogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	if err := run(cfg, path, logger); err != nil {
		logger.Error("exiting", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, configPath string, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if addr := cfg.Metrics.Addr; addr != "" {
		srv, err := metrics.Listen(addr, logger)
		if err != nil {
			return err
		}
		go srv.Serve()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ctrl, stream, cleanup, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	events := make(chan telemetry.Event, 64)
	go func() {
		defer close(events)
		if err := stream.Run(ctx, events); err != nil {
			logger.Error("telemetry stream stopped", "err", err)
		}
	}()

	app := tui.NewApp(cfg, tui.Deps{
		Controller: ctrl,
		Events:     events,
		Recorder:   metrics.NewRecorder(),
		Logger:     logger,
		ConfigPath: configPath,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}

	// Leave the backend idle if the user quit mid-session.
	if a, ok := final.(tui.App); ok && a.State() != telemetry.Idle {
		stopCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
		defer done()
		if err := ctrl.StopSession(stopCtx); err != nil {
			logger.Warn("stop on exit failed", "err", err)
		}
	}
	return nil
}

// buildSource wires the configured telemetry source to a controller and a
// stream.
func buildSource(cfg config.Config, logger *slog.Logger) (telemetry.Controller, telemetry.Stream, func(), error) {
	t := cfg.ResolvedTelemetry()
	r := cfg.ResolvedRedis()
	noop := func() {}

	switch t.Source {
	case config.SourceWebSocket:
		url, err := telemetry.WebSocketURL(t.BackendURL, t.WebSocketPath)
		if err != nil {
			return nil, nil, noop, err
		}
		logger.Info("using websocket telemetry", "url", url)
		return telemetry.NewHTTPController(t.BackendURL), telemetry.NewWebSocketStream(url, t.ScoreScale, logger), noop, nil

	case config.SourceRedis:
		rs := telemetry.NewRedisStream(r.Addr, r.Password, r.DB, r.Channel, t.ScoreScale, logger)
		logger.Info("using redis telemetry", "addr", r.Addr, "channel", rs.Channel())
		return telemetry.NewHTTPController(t.BackendURL), rs, func() { _ = rs.Close() }, nil

	default:
		mock := telemetry.NewMockProducer(telemetry.MockConfig{
			Interval:    time.Duration(t.SampleIntervalMs) * time.Millisecond,
			Calibration: time.Duration(t.MockCalibrationSeconds * float64(time.Second)),
			Channels:    t.MockChannels,
			Seed:        t.MockSeed,
		}, logger)
		cleanup := noop
		if r.PublishMock {
			rs := telemetry.NewRedisStream(r.Addr, r.Password, r.DB, r.Channel, t.ScoreScale, logger)
			mock.SetPublisher(rs)
			cleanup = func() { _ = rs.Close() }
			logger.Info("mirroring mock telemetry to redis", "addr", r.Addr, "channel", rs.Channel())
		}
		logger.Info("using mock telemetry")
		return mock, mock, cleanup, nil
	}
}

func newLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	var w io.Writer = io.Discard
	closeFn := func() {}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}
