// Package events subscribes to the backend event feed and dispatches typed
// events to registered listeners. The subscription reconnects on its own
// after every unexpected drop until Disconnect is called.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// DefaultReconnectDelay is the fixed wait between a drop and the next dial.
const DefaultReconnectDelay = 3 * time.Second

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Listener receives the payload of one event.
type Listener func(payload json.RawMessage)

// Subscription identifies one registration made with On.
type Subscription struct {
	eventType models.EventType
	listener  Listener
}

type Config struct {
	ReconnectDelay time.Duration
	Dialer         *websocket.Dialer
	Logger         *slog.Logger
}

type Stream struct {
	delay  time.Duration
	dialer *websocket.Dialer
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	current   *run
	listeners map[models.EventType][]*Subscription
}

// run is one Connect..Disconnect lifetime.
type run struct {
	url  string
	stop chan struct{}
	conn *websocket.Conn
}

func NewStream(cfg Config) *Stream {
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		delay:     delay,
		dialer:    dialer,
		logger:    logger,
		listeners: make(map[models.EventType][]*Subscription),
	}
}

// Connect starts the subscription loop for url, replacing any running one.
// It returns immediately; the connection is established in the background.
func (s *Stream) Connect(url string) {
	s.Disconnect()

	r := &run{url: url, stop: make(chan struct{})}
	s.mu.Lock()
	s.current = r
	s.state = Connecting
	s.mu.Unlock()

	go s.loop(r)
}

// Disconnect closes the connection and suppresses reconnection. Safe to
// call from a listener and when not connected.
func (s *Stream) Disconnect() {
	s.mu.Lock()
	r := s.current
	s.current = nil
	s.state = Disconnected
	var conn *websocket.Conn
	if r != nil {
		close(r.stop)
		conn = r.conn
		r.conn = nil
	}
	s.mu.Unlock()

	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}
	if r != nil {
		s.logger.Info("event stream disconnected", "url", r.url)
	}
}

func (s *Stream) IsConnected() bool {
	return s.State() == Connected
}

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// On registers listener for eventType. Listeners of one type run in
// registration order.
func (s *Stream) On(eventType models.EventType, listener Listener) *Subscription {
	sub := &Subscription{eventType: eventType, listener: listener}
	s.mu.Lock()
	s.listeners[eventType] = append(s.listeners[eventType], sub)
	s.mu.Unlock()
	return sub
}

// Off removes exactly sub; other listeners of the same type stay.
func (s *Stream) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.listeners[sub.eventType]
	for i, existing := range subs {
		if existing == sub {
			s.listeners[sub.eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Dispatch decodes one frame and hands its payload to the listeners of its
// type. Malformed frames are logged and dropped. It is exported so other
// feed transports can share the listener table.
func (s *Stream) Dispatch(frame []byte) {
	var event models.Event
	if err := json.Unmarshal(frame, &event); err != nil {
		s.logger.Warn("dropping malformed event frame", "error", err, "frame", snippet(frame))
		return
	}
	if event.Type == "" {
		s.logger.Warn("dropping event frame without type", "frame", snippet(frame))
		return
	}

	s.mu.Lock()
	subs := append([]*Subscription(nil), s.listeners[event.Type]...)
	s.mu.Unlock()

	s.logger.Debug("event received", "type", event.Type, "listeners", len(subs))
	for _, sub := range subs {
		s.call(sub, event)
	}
}

func (s *Stream) call(sub *Subscription, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event listener panicked", "type", event.Type, "panic", fmt.Sprint(r))
		}
	}()
	sub.listener(event.Payload)
}

func (s *Stream) loop(r *run) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		if !s.setState(r, Connecting) {
			return
		}
		s.logger.Info("event stream connecting", "url", r.url)

		conn, _, err := s.dialer.DialContext(ctx, r.url, nil)
		if err != nil {
			s.logger.Warn("event stream dial failed", "url", r.url, "error", err, "retry_in", s.delay)
		} else if s.attach(r, conn) {
			s.logger.Info("event stream connected", "url", r.url)
			s.read(r, conn)
		} else {
			conn.Close()
			return
		}

		if !s.setState(r, Disconnected) {
			return
		}

		select {
		case <-r.stop:
			return
		case <-time.After(s.delay):
		}
	}
}

// setState applies state only while r is still the active run.
func (s *Stream) setState(r *run, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != r {
		return false
	}
	s.state = state
	return true
}

func (s *Stream) attach(r *run, conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != r {
		return false
	}
	r.conn = conn
	s.state = Connected
	return true
}

func (s *Stream) read(r *run, conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			intentional := s.current != r
			if !intentional {
				r.conn = nil
				s.state = Disconnected
			}
			s.mu.Unlock()
			if !intentional {
				s.logger.Warn("event stream dropped", "url", r.url, "error", err, "retry_in", s.delay)
			}
			return
		}
		s.Dispatch(frame)
	}
}

func snippet(frame []byte) string {
	const limit = 120
	if len(frame) > limit {
		return string(frame[:limit]) + "..."
	}
	return string(frame)
}
