package telemetry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Stream delivers inbound events. Run blocks until ctx is cancelled,
// reconnecting as needed, and reports connection changes as
// StreamConnected/StreamDisconnected events on out.
type Stream interface {
	Run(ctx context.Context, out chan<- Event) error
}

// Backoff is the reconnect schedule shared by the network streams.
type Backoff struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterRatio float64 // 0.0-1.0
}

func DefaultBackoff() Backoff {
	return Backoff{
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		JitterRatio: 0.2,
	}
}

// Delay returns base * 2^attempt capped at MaxDelay, +/- jitter.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	delay := b.BaseDelay * (1 << attempt)
	if delay > b.MaxDelay || delay <= 0 {
		delay = b.MaxDelay
	}
	if b.JitterRatio > 0 {
		jitter := time.Duration(float64(delay) * b.JitterRatio)
		if jitter > 0 {
			delay += time.Duration(rand.Int64N(int64(2*jitter))) - jitter
		}
	}
	if delay < 0 {
		return 0
	}
	return delay
}

// emit sends e unless ctx is done first.
func emit(ctx context.Context, out chan<- Event, e Event) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// session is one connection attempt of a reconnecting stream. It returns
// after the connection is lost; connected reports whether it ever came up.
type session func(ctx context.Context, out chan<- Event) (connected bool, err error)

// reconnect runs sessions until ctx is cancelled, backing off between
// failed attempts. A session that connected resets the attempt counter.
func reconnect(ctx context.Context, logger *slog.Logger, name string, b Backoff, out chan<- Event, run session) error {
	attempt := 0
	for {
		connected, err := run(ctx, out)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			attempt = 0
			if !emit(ctx, out, StreamDisconnected{Err: err}) {
				return nil
			}
		}
		delay := b.Delay(attempt)
		attempt++
		logger.Debug("stream reconnecting",
			slog.String("stream", name),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
		if !sleep(ctx, delay) {
			return nil
		}
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
