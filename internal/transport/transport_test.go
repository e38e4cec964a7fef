package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventServer struct {
	srv      *httptest.Server
	received chan Frame
	headers  chan http.Header

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newEventServer(t *testing.T) *eventServer {
	t.Helper()
	s := &eventServer{
		received: make(chan Frame, 16),
		headers:  make(chan http.Header, 4),
	}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.headers <- r.Header.Clone()
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, ws)
		s.mu.Unlock()
		go func() {
			for {
				var frame Frame
				if err := ws.ReadJSON(&frame); err != nil {
					return
				}
				s.received <- frame
			}
		}()
	}))
	t.Cleanup(func() {
		s.mu.Lock()
		for _, ws := range s.conns {
			ws.Close()
		}
		s.mu.Unlock()
		s.srv.Close()
	})
	return s
}

func (s *eventServer) url() string {
	return strings.Replace(s.srv.URL, "http://", "ws://", 1)
}

// push sends a frame over the most recent connection.
func (s *eventServer) push(t *testing.T, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	s.mu.Lock()
	ws := s.conns[len(s.conns)-1]
	s.mu.Unlock()
	require.NoError(t, ws.WriteJSON(Frame{Event: event, Data: data}))
}

func (s *eventServer) pushRaw(t *testing.T, raw string) {
	t.Helper()
	s.mu.Lock()
	ws := s.conns[len(s.conns)-1]
	s.mu.Unlock()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func newTestManager(t *testing.T, url string) *Manager {
	t.Helper()
	conf := &config.Config{}
	conf.Socket.URL = url
	m, err := NewManager(conf)
	require.NoError(t, err)
	return m
}

func TestManagerConnect(t *testing.T) {
	srv := newEventServer(t)
	m := newTestManager(t, srv.url())

	conn, err := m.Connect(context.Background(), "token-1")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	t.Run("sends bearer token", func(t *testing.T) {
		header := <-srv.headers
		assert.Equal(t, "Bearer token-1", header.Get("Authorization"))
	})

	t.Run("second connect reuses the connection", func(t *testing.T) {
		again, err := m.Connect(context.Background(), "token-1")
		require.NoError(t, err)
		assert.Same(t, conn, again)
	})

	t.Run("redials after close", func(t *testing.T) {
		require.NoError(t, m.Close())
		fresh, err := m.Connect(context.Background(), "token-2")
		require.NoError(t, err)
		assert.NotSame(t, conn, fresh)
	})
}

func TestManagerConnectRefused(t *testing.T) {
	m := newTestManager(t, "ws://127.0.0.1:1/socket")
	_, err := m.Connect(context.Background(), "token")
	assert.Error(t, err)
}

func TestConnDispatch(t *testing.T) {
	srv := newEventServer(t)
	m := newTestManager(t, srv.url())
	conn, err := m.Connect(context.Background(), "token")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	var mu sync.Mutex
	var got []string
	conn.Subscribe("chat:new_message", func(data json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(data))
	})

	for i := 0; i < 5; i++ {
		srv.push(t, "chat:new_message", i)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, got, "handlers run in receipt order")
}

func TestConnDispatchFanout(t *testing.T) {
	srv := newEventServer(t)
	m := newTestManager(t, srv.url())
	conn, err := m.Connect(context.Background(), "token")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	var mu sync.Mutex
	counts := map[string]int{}
	record := func(name string) Handler {
		return func(json.RawMessage) {
			mu.Lock()
			defer mu.Unlock()
			counts[name]++
		}
	}
	conn.Subscribe("chat:message_updated", record("a"))
	conn.Subscribe("chat:message_updated", record("b"))
	conn.Subscribe("chat:new_message", record("other"))

	srv.push(t, "chat:message_updated", map[string]string{"messageId": "m-1"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts["a"] == 1 && counts["b"] == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, counts["other"], "unrelated events must not reach the handler")
}

func TestConnUnsubscribe(t *testing.T) {
	srv := newEventServer(t)
	m := newTestManager(t, srv.url())
	conn, err := m.Connect(context.Background(), "token")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	var mu sync.Mutex
	var kept, dropped int
	conn.Subscribe("ev", func(json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		kept++
	})
	drop := conn.Subscribe("ev", func(json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		dropped++
	})
	conn.Unsubscribe(drop)
	conn.Unsubscribe(drop)
	conn.Unsubscribe(nil)

	srv.push(t, "ev", "x")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return kept == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, dropped)
}

func TestConnMalformedFrame(t *testing.T) {
	srv := newEventServer(t)
	m := newTestManager(t, srv.url())
	conn, err := m.Connect(context.Background(), "token")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	var mu sync.Mutex
	var got int
	conn.Subscribe("ev", func(json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		got++
	})

	srv.pushRaw(t, "not json at all")
	srv.push(t, "ev", "still alive")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got == 1
	}, time.Second, 5*time.Millisecond)
}

func TestConnEmit(t *testing.T) {
	srv := newEventServer(t)
	m := newTestManager(t, srv.url())
	conn, err := m.Connect(context.Background(), "token")
	require.NoError(t, err)

	require.NoError(t, conn.Emit("join_chat", "chat-1"))

	select {
	case frame := <-srv.received:
		assert.Equal(t, "join_chat", frame.Event)
		assert.JSONEq(t, `"chat-1"`, string(frame.Data))
	case <-time.After(time.Second):
		t.Fatal("server never received the frame")
	}

	require.NoError(t, m.Close())
	assert.Error(t, conn.Emit("join_chat", "chat-1"), "emit after close must fail")
	require.NoError(t, m.Close(), "close is idempotent")
}
