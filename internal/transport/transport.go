// Package transport wraps the persistent event channel to the backend.
//
// The connection is session-scoped and shared: Connect is idempotent and the
// same Conn serves every open chat view. The adapter itself knows nothing
// about chats; room scoping happens via join_chat/leave_chat signals emitted
// by the caller, and every subscriber must filter events by chat id.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/carousell/ct-go/pkg/logger"
	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/pkg/util"
	"github.com/gammazero/workerpool"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// Frame is the wire format of the event channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler receives the raw payload of one event. Handlers for the same event
// run in receipt order, one at a time.
type Handler func(data json.RawMessage)

type handlerEntry struct {
	id uint64
	fn Handler
}

// Subscription identifies a registered handler for later removal.
type Subscription struct {
	event string
	id    uint64
}

type Conn struct {
	ws  *websocket.Conn
	log *logger.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex
	handlers map[string][]handlerEntry
	nextID   uint64
	closed   bool

	// single worker keeps dispatch in receipt order while decoupling
	// handler execution from socket reads
	pool    *workerpool.WorkerPool
	metrics *prometheus.CounterVec
}

func newConn(ws *websocket.Conn, log *logger.Logger, metrics *prometheus.CounterVec) *Conn {
	c := &Conn{
		ws:       ws,
		log:      log,
		handlers: make(map[string][]handlerEntry),
		pool:     workerpool.New(1),
		metrics:  metrics,
	}
	go c.readPump()
	return c
}

// Subscribe registers a handler for the named event.
func (c *Conn) Subscribe(event string, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	sub := &Subscription{event: event, id: c.nextID}
	c.handlers[event] = append(c.handlers[event], handlerEntry{id: sub.id, fn: h})
	return sub
}

// Unsubscribe removes a previously registered handler. Safe to call twice.
func (c *Conn) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.handlers[sub.event]
	for i, e := range entries {
		if e.id == sub.id {
			c.handlers[sub.event] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

// Emit fires a one-way signal to the server. There is no response channel;
// any effect comes back as a regular event.
func (c *Conn) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame := Frame{Event: event, Data: data}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.isClosed() {
		return fmt.Errorf("emit %s: connection closed", event)
	}
	if err := c.ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears the connection down and waits for in-flight handlers.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.ws.Close()
	c.pool.StopWait()
	return err
}

func (c *Conn) readPump() {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				c.log.Warnw("event channel read failed", "error", err)
				c.Close()
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.log.Warnw("dropping malformed frame", "error", err)
			c.metrics.WithLabelValues("malformed").Inc()
			continue
		}

		c.metrics.WithLabelValues(frame.Event).Inc()
		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(frame Frame) {
	c.mu.Lock()
	entries := make([]handlerEntry, len(c.handlers[frame.Event]))
	copy(entries, c.handlers[frame.Event])
	c.mu.Unlock()

	c.pool.Submit(func() {
		for _, e := range entries {
			e.fn(frame.Data)
		}
	})
}

// Manager owns the shared connection for one authenticated session.
type Manager struct {
	url     string
	dialer  *websocket.Dialer
	log     *logger.Logger
	metrics *prometheus.CounterVec

	mu   sync.Mutex
	conn *Conn
}

func NewManager(conf *config.Config) (*Manager, error) {
	metrics, err := util.GetCounterVec("socket_events_received", "event")
	if err != nil {
		return nil, fmt.Errorf("get counter vec: %w", err)
	}
	m := &Manager{
		url:     conf.Socket.URL,
		dialer:  websocket.DefaultDialer,
		log:     logger.MustNamed("transport"),
		metrics: metrics,
	}
	return m, nil
}

// Connect dials the event channel, or returns the already-open connection.
// A second call never redials while the first connection is alive.
func (m *Manager) Connect(ctx context.Context, accessToken string) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.isClosed() {
		return m.conn, nil
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)
	ws, resp, err := m.dialer.DialContext(ctx, m.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial event channel (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial event channel: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	m.log.Infow("event channel connected", "url", m.url)
	m.conn = newConn(ws, m.log, m.metrics)
	return m.conn, nil
}

// Close shuts the shared connection down, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}
