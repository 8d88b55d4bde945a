// Package events broadcasts override and throttling changes to admin
// clients connected over a websocket.
package events

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/getmockd/routemock/pkg/logging"
)

// Type names an event.
type Type string

// Event types.
const (
	TypeOverrideSelected  Type = "override.selected"
	TypeThrottlingChanged Type = "throttling.changed"
	TypeOverridesReplayed Type = "overrides.replayed"
)

// Event is one change notification.
type Event struct {
	ID   string    `json:"id"`
	Type Type      `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

const writeTimeout = 5 * time.Second

type subscriber struct {
	ch chan Event
}

// Hub fans events out to subscribers. Slow subscribers drop events rather
// than block publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	logger *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{subs: make(map[*subscriber]struct{}), logger: logging.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish sends an event to every subscriber. A nil hub ignores it.
func (h *Hub) Publish(typ Type, data any) {
	if h == nil {
		return
	}
	ev := Event{ID: uuid.NewString(), Type: typ, Time: time.Now().UTC(), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			h.logger.Warn("dropping event for slow subscriber", "type", typ)
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &subscriber{ch: make(chan Event, buffer)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
			close(s.ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request to a websocket and streams events as JSON
// text messages until the client goes away. The server's read and write
// timeouts are lifted for the connection; writeTimeout bounds each event.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// Client messages are ignored; CloseRead cancels ctx when the peer closes.
	ctx := conn.CloseRead(r.Context())

	ch, cancel := h.Subscribe(DefaultBuffer)
	defer cancel()

	h.logger.Debug("event subscriber connected", "remote", r.RemoteAddr)
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-ch:
			if err := write(ctx, conn, ev); err != nil {
				h.logger.Debug("event subscriber gone", "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
