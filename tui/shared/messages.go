package shared

import (
	"time"

	"github.com/dylan/focusfarm/telemetry"
)

// TickMsg drives the display. ID ties it to one tick loop so a stopped loop
// is not re-armed by a late tick.
type TickMsg struct {
	Time time.Time
	ID   int
}

// TelemetryMsg delivers one inbound event.
type TelemetryMsg struct {
	Event telemetry.Event
}

// StreamClosedMsg reports that the event channel was closed.
type StreamClosedMsg struct{}

type SessionStartedMsg struct {
	Generation uint64
	SessionID  string
	Err        error
}

type SessionStoppedMsg struct {
	Generation uint64
	Err        error
}
