package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 5 * time.Second
	wsPongWait         = 30 * time.Second
	wsMaxMessageSize   = 1 << 20
)

// WebSocketStream reads JSON event frames from the backend's websocket.
type WebSocketStream struct {
	URL     string
	Scale   float64
	Backoff Backoff
	Logger  *slog.Logger
	Dialer  *websocket.Dialer
}

// WebSocketURL derives the ws(s):// endpoint from an http(s) backend URL.
func WebSocketURL(backend, path string) (string, error) {
	u, err := url.Parse(backend)
	if err != nil {
		return "", fmt.Errorf("parsing backend url: %w", err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported backend scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}

func NewWebSocketStream(rawURL string, scale float64, logger *slog.Logger) *WebSocketStream {
	return &WebSocketStream{
		URL:     rawURL,
		Scale:   scale,
		Backoff: DefaultBackoff(),
		Logger:  loggerOrDefault(logger),
	}
}

func (s *WebSocketStream) Run(ctx context.Context, out chan<- Event) error {
	if s.URL == "" {
		return errors.New("websocket stream: empty url")
	}
	logger := loggerOrDefault(s.Logger)
	return reconnect(ctx, logger, "websocket", s.Backoff, out, s.session)
}

func (s *WebSocketStream) session(ctx context.Context, out chan<- Event) (bool, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dialing %s: %w", s.URL, err)
	}
	logger := loggerOrDefault(s.Logger)
	logger.Info("websocket connected", slog.String("url", s.URL))

	// Close the connection on cancel so the blocking read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	if !emit(ctx, out, StreamConnected{}) {
		return true, ctx.Err()
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, fmt.Errorf("reading websocket: %w", err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		ev, err := Decode(data, s.Scale)
		if err != nil {
			logger.Debug("dropping frame", slog.Any("error", err))
			continue
		}
		if !emit(ctx, out, ev) {
			return true, ctx.Err()
		}
	}
}
