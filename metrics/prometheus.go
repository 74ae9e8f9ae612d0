// Package metrics exports the dashboard's focus aggregates to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dylan/focusfarm/telemetry"
)

var (
	FocusScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_focus_score",
			Help: "Most recent focus score (0-100)",
		},
	)

	FocusAverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_focus_average",
			Help: "Rolling average of the focus score",
		},
	)

	FocusPeak = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_focus_peak",
			Help: "Session peak focus score",
		},
	)

	GoodFocusSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_good_focus_seconds",
			Help: "Session time spent above the good-focus threshold",
		},
	)

	CalibrationProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_calibration_progress",
			Help: "Calibration progress (0-1)",
		},
	)

	SessionElapsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_session_elapsed_seconds",
			Help: "Active session time",
		},
	)

	// StreamConnected is 1 while the telemetry stream is up.
	StreamConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_stream_connected",
			Help: "Whether the telemetry stream is connected",
		},
	)

	SessionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focusfarm_session_state",
			Help: "Current session state (1 for the active state)",
		},
		[]string{"state"},
	)

	SamplesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "focusfarm_samples_accepted_total",
			Help: "Metric samples folded into the aggregates",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "focusfarm_events_dropped_total",
			Help: "Telemetry events dropped as stale or invalid",
		},
	)

	PlantsGrown = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_plants_grown",
			Help: "Fully grown plants in the farm plot",
		},
	)

	ChickensHatched = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusfarm_chickens_hatched",
			Help: "Chickens that hatched this session",
		},
	)
)

var sessionStates = []telemetry.SessionState{telemetry.Idle, telemetry.Calibrating, telemetry.Running}

// Recorder turns aggregate snapshots into metric updates. Counters only move
// forward, so it remembers what it already reported.
type Recorder struct {
	accepted uint64
	dropped  uint64
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe publishes one snapshot.
func (r *Recorder) Observe(a telemetry.Aggregate) {
	FocusScore.Set(a.Score)
	FocusAverage.Set(a.Average)
	FocusPeak.Set(a.Peak)
	GoodFocusSeconds.Set(a.GoodTime.Seconds())
	CalibrationProgress.Set(a.CalibrationProgress)

	if a.Connection == telemetry.Connected {
		StreamConnected.Set(1)
	} else {
		StreamConnected.Set(0)
	}
	for _, s := range sessionStates {
		v := 0.0
		if s == a.State {
			v = 1
		}
		SessionState.WithLabelValues(s.String()).Set(v)
	}

	if a.Accepted > r.accepted {
		SamplesAccepted.Add(float64(a.Accepted - r.accepted))
	}
	if a.Dropped > r.dropped {
		EventsDropped.Add(float64(a.Dropped - r.dropped))
	}
	r.accepted = a.Accepted
	r.dropped = a.Dropped
}

// ObserveFarm publishes the session clock and farm counters.
func (r *Recorder) ObserveFarm(elapsedSeconds float64, plants, chickens int) {
	SessionElapsed.Set(elapsedSeconds)
	PlantsGrown.Set(float64(plants))
	ChickensHatched.Set(float64(chickens))
}
