package telemetry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Publisher receives a copy of every event the mock produces.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// MockConfig tunes the mock producer.
type MockConfig struct {
	Interval    time.Duration // sampling interval
	Calibration time.Duration // simulated calibration length
	Channels    int
	ChannelSize int // samples per channel per event
	Seed        uint64
}

func DefaultMockConfig() MockConfig {
	return MockConfig{
		Interval:    100 * time.Millisecond,
		Calibration: 3 * time.Second,
		Channels:    4,
		ChannelSize: 8,
		Seed:        1,
	}
}

// MockProducer is an in-process producer implementing both Controller and
// Stream. Scores follow a random walk biased slightly upwards.
type MockProducer struct {
	cfg       MockConfig
	logger    *slog.Logger
	publisher Publisher

	mu         sync.Mutex
	rng        *rand.Rand
	active     bool
	calibrated bool
	started    time.Time
	score      float64
	phase      float64
}

func NewMockProducer(cfg MockConfig, logger *slog.Logger) *MockProducer {
	d := DefaultMockConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = d.Interval
	}
	if cfg.Calibration < 0 {
		cfg.Calibration = 0
	}
	if cfg.Channels < 0 {
		cfg.Channels = 0
	}
	if cfg.ChannelSize < 1 {
		cfg.ChannelSize = d.ChannelSize
	}
	return &MockProducer{
		cfg:    cfg,
		logger: loggerOrDefault(logger),
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// SetPublisher mirrors produced events to p.
func (m *MockProducer) SetPublisher(p Publisher) {
	m.mu.Lock()
	m.publisher = p
	m.mu.Unlock()
}

func (m *MockProducer) StartSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = true
	m.calibrated = false
	m.started = time.Now()
	m.score = 0
	m.logger.Info("mock session started", slog.String("session", sessionID))
	return ctx.Err()
}

func (m *MockProducer) StopSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.logger.Info("mock session stopped")
	return ctx.Err()
}

func (m *MockProducer) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *MockProducer) Run(ctx context.Context, out chan<- Event) error {
	if !emit(ctx, out, StreamConnected{}) {
		return nil
	}
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.mu.Lock()
			events := m.step(now)
			pub := m.publisher
			m.mu.Unlock()
			for _, ev := range events {
				if pub != nil {
					if err := pub.Publish(ctx, ev); err != nil {
						m.logger.Debug("mock publish failed", slog.Any("error", err))
					}
				}
				if !emit(ctx, out, ev) {
					return nil
				}
			}
		}
	}
}

// step produces the events for one interval. Callers hold m.mu.
func (m *MockProducer) step(now time.Time) []Event {
	if !m.active {
		return nil
	}
	if !m.calibrated {
		elapsed := now.Sub(m.started)
		if elapsed < m.cfg.Calibration {
			p := float64(elapsed) / float64(m.cfg.Calibration)
			return []Event{
				CalibrationProgress{Progress: math.Max(0, p)},
				m.sample(SampleCalibrating),
			}
		}
		m.calibrated = true
		return []Event{
			CalibrationComplete{Mu: 0.4, Sigma: 0.05},
			m.sample(SampleRunning),
		}
	}
	return []Event{m.sample(SampleRunning)}
}

func (m *MockProducer) sample(state SampleState) MetricSample {
	change := (m.rng.Float64() - 0.45) * 8
	m.score = math.Min(100, math.Max(0, m.score+change))
	m.phase += 0.35

	var channels [][]float64
	for c := 0; c < m.cfg.Channels; c++ {
		samples := make([]float64, m.cfg.ChannelSize)
		for i := range samples {
			t := m.phase + float64(i)*0.05 + float64(c)
			samples[i] = 20*math.Sin(2*math.Pi*t) + m.rng.NormFloat64()*4
		}
		channels = append(channels, samples)
	}
	return MetricSample{
		Score:    m.score,
		RawBand:  0.3 + m.rng.Float64()*0.2,
		Channels: channels,
		State:    state,
	}
}
