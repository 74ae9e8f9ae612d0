package telemetry

// SampleState is the producer-side state a metric sample was emitted in.
type SampleState int

const (
	SampleUnknown SampleState = iota
	SampleCalibrating
	SampleRunning
)

func (s SampleState) String() string {
	switch s {
	case SampleCalibrating:
		return "CALIBRATING"
	case SampleRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

func parseSampleState(s string) SampleState {
	switch s {
	case "CALIBRATING", "calibrating":
		return SampleCalibrating
	case "RUNNING", "running":
		return SampleRunning
	default:
		return SampleUnknown
	}
}

// Event is one inbound telemetry event. The concrete types below are the
// only implementations.
type Event interface {
	eventName() string
}

// MetricSample carries one focus measurement. Score is already scaled to
// [0,100]; Channels holds one slice of raw samples per electrode.
type MetricSample struct {
	Score    float64
	RawBand  float64
	Channels [][]float64
	State    SampleState
}

// CalibrationProgress is the producer's own calibration progress in [0,1].
type CalibrationProgress struct {
	Progress float64
}

// CalibrationComplete signals that the producer acquired its baseline.
type CalibrationComplete struct {
	Mu    float64
	Sigma float64
}

// StreamConnected is emitted when a stream (re)connects.
type StreamConnected struct{}

// StreamDisconnected is emitted when a stream loses its connection.
type StreamDisconnected struct {
	Err error
}

func (MetricSample) eventName() string        { return EventMetric }
func (CalibrationProgress) eventName() string { return EventCalibrationProgress }
func (CalibrationComplete) eventName() string { return EventCalibrationDone }
func (StreamConnected) eventName() string     { return "connect" }
func (StreamDisconnected) eventName() string  { return "disconnect" }

// Name returns the wire name of an event, for logging.
func Name(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}
