package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

const testDelay = 100 * time.Millisecond

// feedServer is a websocket endpoint whose per-connection behaviour is
// scripted by serve.
type feedServer struct {
	*httptest.Server
	connections atomic.Int32
}

func newFeedServer(t *testing.T, serve func(n int32, conn *websocket.Conn)) *feedServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	fs := &feedServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(fs.connections.Add(1), conn)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

// holdOpen keeps the server side open until the client goes away.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func frame(t *testing.T, eventType models.EventType, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(models.Event{Type: eventType, Payload: raw})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDispatchInRegistrationOrder(t *testing.T) {
	s := NewStream(Config{})
	var order []string
	s.On(models.EventClipReady, func(json.RawMessage) { order = append(order, "first") })
	s.On(models.EventClipReady, func(json.RawMessage) { order = append(order, "second") })
	s.On(models.EventClipFailed, func(json.RawMessage) { order = append(order, "other") })

	s.Dispatch(frame(t, models.EventClipReady, map[string]string{"id": "c1"}))

	if strings.Join(order, ",") != "first,second" {
		t.Errorf("unexpected dispatch order %v", order)
	}
}

func TestDispatchIsolatesPanickingListener(t *testing.T) {
	s := NewStream(Config{})
	called := false
	s.On(models.EventClipReady, func(json.RawMessage) { panic("listener bug") })
	s.On(models.EventClipReady, func(json.RawMessage) { called = true })

	s.Dispatch(frame(t, models.EventClipReady, map[string]string{}))

	if !called {
		t.Error("second listener was not called after the first panicked")
	}
}

func TestDispatchDropsMalformedFrames(t *testing.T) {
	s := NewStream(Config{})
	calls := 0
	s.On(models.EventClipReady, func(json.RawMessage) { calls++ })

	s.Dispatch([]byte("not json"))
	s.Dispatch([]byte(`{"payload":{}}`))

	if calls != 0 {
		t.Errorf("malformed frames reached listeners %d times", calls)
	}
}

func TestOffRemovesOnlyThatSubscription(t *testing.T) {
	s := NewStream(Config{})
	var got []string
	listener := func(json.RawMessage) { got = append(got, "shared") }
	first := s.On(models.EventClipReady, listener)
	s.On(models.EventClipReady, listener)

	s.Off(first)
	s.Off(nil)
	s.Dispatch(frame(t, models.EventClipReady, map[string]string{}))

	if len(got) != 1 {
		t.Errorf("expected the second registration to remain, got %d calls", len(got))
	}
}

func TestStreamDeliversFramesAndSurvivesMalformedOnes(t *testing.T) {
	ready := frame(t, models.EventClipReady, models.Clip{ID: "c1"})
	fs := newFeedServer(t, func(_ int32, conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("{broken"))
		conn.WriteMessage(websocket.TextMessage, ready)
		holdOpen(conn)
	})

	s := NewStream(Config{ReconnectDelay: testDelay})
	received := make(chan string, 1)
	s.On(models.EventClipReady, func(payload json.RawMessage) {
		var clip models.Clip
		json.Unmarshal(payload, &clip)
		received <- clip.ID
	})

	s.Connect(fs.wsURL())
	defer s.Disconnect()

	select {
	case id := <-received:
		if id != "c1" {
			t.Errorf("unexpected clip %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
	if !s.IsConnected() {
		t.Error("malformed frame closed the connection")
	}
	if n := fs.connections.Load(); n != 1 {
		t.Errorf("expected a single connection, got %d", n)
	}
}

func TestStreamReconnectsAfterDrop(t *testing.T) {
	drop := make(chan struct{})
	fs := newFeedServer(t, func(n int32, conn *websocket.Conn) {
		if n == 1 {
			<-drop
			return
		}
		holdOpen(conn)
	})

	s := NewStream(Config{ReconnectDelay: testDelay})
	s.Connect(fs.wsURL())
	defer s.Disconnect()

	waitFor(t, 2*time.Second, "first connection", s.IsConnected)

	close(drop)
	waitFor(t, testDelay/2, "disconnect to be observed", func() bool { return !s.IsConnected() })
	droppedAt := time.Now()

	waitFor(t, 2*time.Second, "reconnection", func() bool {
		return s.IsConnected() && fs.connections.Load() == 2
	})
	if elapsed := time.Since(droppedAt); elapsed < testDelay/2 {
		t.Errorf("reconnected after %v, expected to wait about %v", elapsed, testDelay)
	}
}

func TestStreamRetriesUnreachableFeed(t *testing.T) {
	var up atomic.Bool
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			http.Error(w, "not yet", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		holdOpen(conn)
	}))
	defer server.Close()

	s := NewStream(Config{ReconnectDelay: 20 * time.Millisecond})
	s.Connect("ws" + strings.TrimPrefix(server.URL, "http"))
	defer s.Disconnect()

	time.Sleep(80 * time.Millisecond)
	if s.IsConnected() {
		t.Fatal("connected to a feed that refuses upgrades")
	}
	up.Store(true)
	waitFor(t, 2*time.Second, "connection once the feed is up", s.IsConnected)
}

func TestDisconnectSuppressesReconnect(t *testing.T) {
	fs := newFeedServer(t, func(_ int32, conn *websocket.Conn) { holdOpen(conn) })

	s := NewStream(Config{ReconnectDelay: 20 * time.Millisecond})
	s.Connect(fs.wsURL())
	waitFor(t, 2*time.Second, "connection", s.IsConnected)

	s.Disconnect()
	if s.State() != Disconnected {
		t.Errorf("expected disconnected, got %s", s.State())
	}

	time.Sleep(150 * time.Millisecond)
	if s.IsConnected() || fs.connections.Load() != 1 {
		t.Errorf("stream reconnected after Disconnect (connections=%d)", fs.connections.Load())
	}
}

func TestDisconnectFromListener(t *testing.T) {
	end := frame(t, models.EventSessionEnd, map[string]string{})
	fs := newFeedServer(t, func(_ int32, conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, end)
		holdOpen(conn)
	})

	s := NewStream(Config{ReconnectDelay: 20 * time.Millisecond})
	var once sync.Once
	done := make(chan struct{})
	s.On(models.EventSessionEnd, func(json.RawMessage) {
		s.Disconnect()
		once.Do(func() { close(done) })
	})
	s.Connect(fs.wsURL())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never ran")
	}
	time.Sleep(100 * time.Millisecond)
	if s.IsConnected() || fs.connections.Load() != 1 {
		t.Error("stream kept running after a listener disconnected it")
	}
}
