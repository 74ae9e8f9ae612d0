package telemetry

import (
	"math"
	"time"

	"github.com/dylan/focusfarm/clock"
)

// SessionState is the dashboard's view of the session lifecycle.
type SessionState int

const (
	Idle SessionState = iota
	Calibrating
	Running
)

func (s SessionState) String() string {
	switch s {
	case Calibrating:
		return "calibrating"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

func (c ConnectionState) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

// Settings holds the fixed parameters of the normalizer.
type Settings struct {
	ScoreCapacity       int           // C1, window for the average
	DisplayCapacity     int           // C2, window for charts
	GoodThreshold       float64       // scores strictly above count as good focus
	SampleInterval      time.Duration // good time credited per good sample
	CalibrationDuration time.Duration // length of the local progress bar
	CalibrationTimeout  time.Duration // forced Calibrating -> Running
}

func DefaultSettings() Settings {
	return Settings{
		ScoreCapacity:       100,
		DisplayCapacity:     60,
		GoodThreshold:       50,
		SampleInterval:      100 * time.Millisecond,
		CalibrationDuration: 15 * time.Second,
		CalibrationTimeout:  20 * time.Second,
	}
}

// localProgressCap keeps the local calibration bar short of done; only a
// completion signal, a running sample or the timeout finish calibration.
const localProgressCap = 0.99

// Aggregate is a copy of all display state.
type Aggregate struct {
	State               SessionState
	Connection          ConnectionState
	Score               float64
	Average             float64
	Peak                float64
	GoodTime            time.Duration
	CalibrationProgress float64
	ScoreHistory        []float64
	DisplayHistory      []float64
	BandHistory         []float64
	ChannelValues       []float64
	ChannelHistory      [][]float64
	HasReceivedData     bool
	Generation          uint64
	Accepted            uint64
	Dropped             uint64
}

// StatusMessage is the one-line session status shown under the gauge.
func (a Aggregate) StatusMessage() string {
	switch {
	case a.Connection == Disconnected:
		return "Connecting..."
	case a.State == Calibrating:
		return "Calibrating..."
	case !a.HasReceivedData:
		return "Waiting for data..."
	default:
		return "Monitoring Focus"
	}
}

// Normalizer folds telemetry events into display aggregates and owns the
// Idle/Calibrating/Running state machine. It is not safe for concurrent
// use: feed it from a single goroutine, one event at a time.
type Normalizer struct {
	cfg   Settings
	clock *clock.SessionClock

	state SessionState
	conn  ConnectionState

	peak     float64
	goodTime time.Duration
	scores   *History
	display  *History
	band     *History
	bandMin  float64
	bandMax  float64
	channels []*History
	chanVals []float64
	hasData  bool

	progress         float64
	remoteProgress   bool
	calibrationStart time.Time

	generation uint64
	accepted   uint64
	dropped    uint64
}

func NewNormalizer(cfg Settings, sc *clock.SessionClock) *Normalizer {
	d := DefaultSettings()
	if cfg.ScoreCapacity < 1 {
		cfg.ScoreCapacity = d.ScoreCapacity
	}
	if cfg.DisplayCapacity < 1 {
		cfg.DisplayCapacity = d.DisplayCapacity
	}
	if cfg.CalibrationDuration <= 0 {
		cfg.CalibrationDuration = d.CalibrationDuration
	}
	if cfg.CalibrationTimeout <= 0 {
		cfg.CalibrationTimeout = d.CalibrationTimeout
	}
	if sc == nil {
		sc = clock.NewSessionClock(nil)
	}
	n := &Normalizer{
		cfg:     cfg,
		clock:   sc,
		scores:  NewHistory(cfg.ScoreCapacity),
		display: NewHistory(cfg.DisplayCapacity),
		band:    NewHistory(cfg.DisplayCapacity),
	}
	n.resetAggregates()
	return n
}

func (n *Normalizer) Settings() Settings                { return n.cfg }
func (n *Normalizer) State() SessionState               { return n.state }
func (n *Normalizer) Connection() ConnectionState       { return n.conn }
func (n *Normalizer) Generation() uint64                { return n.generation }
func (n *Normalizer) SessionClock() *clock.SessionClock { return n.clock }

func (n *Normalizer) resetAggregates() {
	n.peak = 0
	n.goodTime = 0
	n.scores.Reset()
	n.display.Reset()
	n.band.Reset()
	n.bandMin = math.Inf(1)
	n.bandMax = math.Inf(-1)
	n.channels = nil
	n.chanVals = nil
	n.hasData = false
}

// Start begins a new session: aggregates and the session clock are reset and
// the normalizer waits in Calibrating. The returned generation tags the
// asynchronous start request so a stale result can be recognised.
func (n *Normalizer) Start(now time.Time) uint64 {
	n.resetAggregates()
	n.clock.Reset()
	n.state = Calibrating
	n.progress = 0
	n.remoteProgress = false
	n.calibrationStart = now
	n.generation++
	return n.generation
}

// Stop pauses the session clock and returns to Idle. Aggregates are kept for
// display until the next Start.
func (n *Normalizer) Stop() uint64 {
	n.clock.Pause()
	n.state = Idle
	n.calibrationStart = time.Time{}
	n.remoteProgress = false
	n.hasData = false
	n.generation++
	return n.generation
}

// Reset clears aggregates and the clock while idle.
func (n *Normalizer) Reset() bool {
	if n.state != Idle {
		return false
	}
	n.resetAggregates()
	n.clock.Reset()
	n.progress = 0
	return true
}

// StartFailed aborts calibration when the start request of the current
// generation failed. Results from older generations are ignored.
func (n *Normalizer) StartFailed(gen uint64) bool {
	if gen != n.generation || n.state != Calibrating {
		return false
	}
	n.state = Idle
	n.calibrationStart = time.Time{}
	n.remoteProgress = false
	return true
}

// Tick advances the local calibration progress and enforces the calibration
// timeout. It returns true if the state changed.
func (n *Normalizer) Tick(now time.Time) bool {
	if n.state != Calibrating {
		return false
	}
	elapsed := now.Sub(n.calibrationStart)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= n.cfg.CalibrationTimeout {
		n.completeCalibration()
		return true
	}
	if n.remoteProgress {
		return false
	}
	p := math.Min(float64(elapsed)/float64(n.cfg.CalibrationDuration), localProgressCap)
	if p > n.progress {
		n.progress = p
		return true
	}
	return false
}

func (n *Normalizer) completeCalibration() {
	n.state = Running
	n.progress = 1
	n.remoteProgress = false
	n.calibrationStart = time.Time{}
	n.clock.Start()
}

// Handle applies one event. It returns false when the event was dropped or
// did not change anything.
func (n *Normalizer) Handle(e Event) bool {
	switch ev := e.(type) {
	case StreamConnected:
		changed := n.conn != Connected
		n.conn = Connected
		return changed
	case StreamDisconnected:
		changed := n.conn != Disconnected
		n.conn = Disconnected
		return changed
	case CalibrationProgress:
		return n.handleProgress(ev)
	case CalibrationComplete:
		if n.state != Calibrating {
			n.dropped++
			return false
		}
		n.completeCalibration()
		return true
	case MetricSample:
		return n.handleSample(ev)
	default:
		n.dropped++
		return false
	}
}

func (n *Normalizer) handleProgress(ev CalibrationProgress) bool {
	if n.state != Calibrating || math.IsNaN(ev.Progress) {
		n.dropped++
		return false
	}
	p := math.Max(0, math.Min(ev.Progress, 1))
	n.remoteProgress = true
	if p > n.progress {
		n.progress = p
		return true
	}
	return false
}

func (n *Normalizer) handleSample(s MetricSample) bool {
	if n.state == Idle || s.State != SampleRunning || math.IsNaN(s.Score) || math.IsInf(s.Score, 0) {
		n.dropped++
		return false
	}
	if n.state == Calibrating {
		n.completeCalibration()
	}

	score := math.Max(0, math.Min(s.Score, 100))
	n.scores.Push(score)
	n.display.Push(score)
	if score > n.peak {
		n.peak = score
	}
	if score > n.cfg.GoodThreshold {
		n.goodTime += n.cfg.SampleInterval
	}
	n.pushBand(s.RawBand)
	n.pushChannels(s.Channels)
	n.hasData = true
	n.accepted++
	return true
}

// pushBand normalises the raw band value against the session's min/max.
func (n *Normalizer) pushBand(raw float64) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return
	}
	if raw < n.bandMin {
		n.bandMin = raw
	}
	if raw > n.bandMax {
		n.bandMax = raw
	}
	v := 0.5
	if r := n.bandMax - n.bandMin; r > 0 {
		v = (raw - n.bandMin) / r
	}
	n.band.Push(v)
}

func (n *Normalizer) pushChannels(chs [][]float64) {
	for len(n.channels) < len(chs) {
		n.channels = append(n.channels, NewHistory(n.cfg.DisplayCapacity))
		n.chanVals = append(n.chanVals, 0)
	}
	for i, samples := range chs {
		if len(samples) == 0 {
			continue
		}
		v := samples[len(samples)-1]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		n.chanVals[i] = v
		n.channels[i].Push(v)
	}
}

// Snapshot copies the current display state.
func (n *Normalizer) Snapshot() Aggregate {
	score, _ := n.scores.Last()
	a := Aggregate{
		State:               n.state,
		Connection:          n.conn,
		Score:               score,
		Average:             n.scores.Mean(),
		Peak:                n.peak,
		GoodTime:            n.goodTime,
		CalibrationProgress: n.progress,
		ScoreHistory:        n.scores.Values(),
		DisplayHistory:      n.display.Values(),
		BandHistory:         n.band.Values(),
		ChannelValues:       append([]float64(nil), n.chanVals...),
		HasReceivedData:     n.hasData,
		Generation:          n.generation,
		Accepted:            n.accepted,
		Dropped:             n.dropped,
	}
	for _, h := range n.channels {
		a.ChannelHistory = append(a.ChannelHistory, h.Values())
	}
	return a
}
