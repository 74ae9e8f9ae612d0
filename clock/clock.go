package clock

import (
	"fmt"
	"time"
)

// Clock supplies wall-clock timestamps. time.Time values from time.Now carry a
// monotonic reading, so spans computed with Sub are immune to wall-clock jumps.
type Clock interface {
	Now() time.Time
}

// System is the real clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// SessionClock tracks active session time across pause/resume cycles.
// Elapsed = accumulated + (running ? now - segmentStart : 0).
type SessionClock struct {
	clock        Clock
	running      bool
	accumulated  time.Duration
	segmentStart time.Time
}

func NewSessionClock(c Clock) *SessionClock {
	if c == nil {
		c = System{}
	}
	return &SessionClock{clock: c}
}

// Toggle pauses a running clock or resumes a paused one.
func (s *SessionClock) Toggle() {
	if s.running {
		s.Pause()
		return
	}
	s.Start()
}

// Start resumes accumulation. No-op if already running.
func (s *SessionClock) Start() {
	if s.running {
		return
	}
	s.segmentStart = s.clock.Now()
	s.running = true
}

// Pause freezes the current segment into the accumulated total.
// No-op if already paused.
func (s *SessionClock) Pause() {
	if !s.running {
		return
	}
	s.accumulated += span(s.segmentStart, s.clock.Now())
	s.segmentStart = time.Time{}
	s.running = false
}

// Reset zeroes the clock and leaves it paused.
func (s *SessionClock) Reset() {
	s.accumulated = 0
	s.segmentStart = time.Time{}
	s.running = false
}

func (s *SessionClock) Running() bool {
	return s.running
}

// Elapsed returns total active time. It has no side effects.
func (s *SessionClock) Elapsed() time.Duration {
	if !s.running {
		return s.accumulated
	}
	return s.accumulated + span(s.segmentStart, s.clock.Now())
}

func (s *SessionClock) ElapsedMs() int64 {
	return s.Elapsed().Milliseconds()
}

func span(from, to time.Time) time.Duration {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d
}

// FormatClock renders d as zero-padded mm:ss.
func FormatClock(d time.Duration) string {
	total := wholeSeconds(d)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatShort renders d as m:ss.
func FormatShort(d time.Duration) string {
	total := wholeSeconds(d)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
