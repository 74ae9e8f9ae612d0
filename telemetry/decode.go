package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire event names.
const (
	EventMetric              = "eeg_metric"
	EventCalibrationProgress = "calibration_progress"
	EventCalibrationDone     = "calibration_done"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrMalformed    = errors.New("malformed event")
)

// envelope is the JSON frame every stream carries:
//
//	{"event": "eeg_metric", "data": {...}}
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type metricPayload struct {
	FocusScore *float64    `json:"focus_score"`
	RawAlpha   float64     `json:"raw_alpha"`
	ZScore     float64     `json:"z_score"`
	Channels   [][]float64 `json:"channels"`
	State      string      `json:"state"`
}

type progressPayload struct {
	Progress *float64 `json:"progress"`
}

type donePayload struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// Decode parses one frame. scale converts the producer's focus score into
// the [0,100] range (the reference backend emits fractions, so 100).
func Decode(frame []byte, scale float64) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeData(env.Event, env.Data, scale)
}

func decodeData(name string, data json.RawMessage, scale float64) (Event, error) {
	if scale <= 0 {
		scale = 1
	}
	switch name {
	case EventMetric:
		var p metricPayload
		if err := unmarshalData(data, &p); err != nil {
			return nil, err
		}
		if p.FocusScore == nil {
			return nil, fmt.Errorf("%w: %s without focus_score", ErrMalformed, name)
		}
		return MetricSample{
			Score:    *p.FocusScore * scale,
			RawBand:  p.RawAlpha,
			Channels: p.Channels,
			State:    parseSampleState(p.State),
		}, nil

	case EventCalibrationProgress:
		var p progressPayload
		if err := unmarshalData(data, &p); err != nil {
			return nil, err
		}
		if p.Progress == nil {
			return nil, fmt.Errorf("%w: %s without progress", ErrMalformed, name)
		}
		return CalibrationProgress{Progress: *p.Progress}, nil

	case EventCalibrationDone:
		var p donePayload
		if len(data) > 0 {
			if err := unmarshalData(data, &p); err != nil {
				return nil, err
			}
		}
		return CalibrationComplete{Mu: p.Mu, Sigma: p.Sigma}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Encode builds a frame for an event. Used by the mock producer and tests.
func Encode(e Event, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	var data any
	switch ev := e.(type) {
	case MetricSample:
		score := ev.Score / scale
		data = metricPayload{
			FocusScore: &score,
			RawAlpha:   ev.RawBand,
			Channels:   ev.Channels,
			State:      ev.State.String(),
		}
	case CalibrationProgress:
		p := ev.Progress
		data = progressPayload{Progress: &p}
	case CalibrationComplete:
		data = donePayload{Mu: ev.Mu, Sigma: ev.Sigma}
	default:
		return nil, fmt.Errorf("%w: %q cannot be encoded", ErrUnknownEvent, Name(e))
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", Name(e), err)
	}
	return json.Marshal(envelope{Event: Name(e), Data: raw})
}
