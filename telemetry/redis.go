package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisChannel is the pub/sub channel the backend publishes frames on.
const DefaultRedisChannel = "focusfarm:events"

// RedisStream subscribes to a Redis pub/sub channel carrying the same JSON
// frames as the websocket.
type RedisStream struct {
	client  *redis.Client
	channel string
	scale   float64
	backoff Backoff
	logger  *slog.Logger
}

func NewRedisStream(addr, password string, db int, channel string, scale float64, logger *slog.Logger) *RedisStream {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisStream{
		client:  client,
		channel: channel,
		scale:   scale,
		backoff: DefaultBackoff(),
		logger:  loggerOrDefault(logger),
	}
}

func (s *RedisStream) Channel() string {
	return s.channel
}

func (s *RedisStream) Run(ctx context.Context, out chan<- Event) error {
	return reconnect(ctx, s.logger, "redis", s.backoff, out, s.session)
}

func (s *RedisStream) session(ctx context.Context, out chan<- Event) (bool, error) {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return false, fmt.Errorf("connecting to redis: %w", err)
	}
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Receive blocks until the subscription is confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}
	s.logger.Info("redis subscribed", slog.String("channel", s.channel))

	if !emit(ctx, out, StreamConnected{}) {
		return true, ctx.Err()
	}

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return true, fmt.Errorf("receiving from %s: %w", s.channel, err)
		}
		ev, err := Decode([]byte(msg.Payload), s.scale)
		if err != nil {
			s.logger.Debug("dropping frame", slog.Any("error", err))
			continue
		}
		if !emit(ctx, out, ev) {
			return true, ctx.Err()
		}
	}
}

// Publish sends one event on the channel. The mock producer uses it to feed
// other dashboards attached to the same Redis.
func (s *RedisStream) Publish(ctx context.Context, e Event) error {
	frame, err := Encode(e, s.scale)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, frame).Err(); err != nil {
		return fmt.Errorf("publishing %s: %w", Name(e), err)
	}
	return nil
}

func (s *RedisStream) Close() error {
	return s.client.Close()
}
