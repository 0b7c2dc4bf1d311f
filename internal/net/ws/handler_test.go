package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"broadphase/server/internal/hub"
	"broadphase/server/internal/net/proto"
	"broadphase/server/internal/world"
)

func newTestHub(t *testing.T) *hub.Hub {
	t.Helper()
	w, err := world.New(world.Config{
		Seed:     "handler-test",
		BoxCount: 12,
	}, world.Deps{})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return hub.New(w, hub.Config{}, nil)
}

func websocketURL(t *testing.T, base string) string {
	t.Helper()
	parsed, err := url.Parse(base)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	parsed.Scheme = "ws"
	return parsed.String()
}

func dial(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srvURL), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func TestHandleSubscribeSendsInitialState(t *testing.T) {
	h := newTestHub(t)
	handler := NewHandler(h, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv.URL)

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}

	var msg proto.StateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode state message: %v", err)
	}
	if msg.Ver != proto.Version {
		t.Fatalf("state ver: got %d want %d", msg.Ver, proto.Version)
	}
	if msg.Type != proto.TypeState {
		t.Fatalf("state type: got %q want %q", msg.Type, proto.TypeState)
	}
	if len(msg.Boxes) != 12 {
		t.Fatalf("state boxes: got %d want 12", len(msg.Boxes))
	}
	if msg.Width <= 0 || msg.Height <= 0 {
		t.Fatalf("state bounds missing: %vx%v", msg.Width, msg.Height)
	}
}

func TestHandleBroadcastsTicks(t *testing.T) {
	h := newTestHub(t)
	handler := NewHandler(h, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv.URL)
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}

	h.Step(context.Background(), 1.0/15)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read tick: %v", err)
	}

	var msg proto.TickMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode tick message: %v", err)
	}
	if msg.Type != proto.TypeTick {
		t.Fatalf("tick type: got %q want %q", msg.Type, proto.TypeTick)
	}
	if msg.Tick != 1 {
		t.Fatalf("tick number: got %d want 1", msg.Tick)
	}
	if msg.Pairs == nil {
		t.Fatalf("tick pairs must always be present")
	}
	for _, box := range msg.Boxes {
		if box.Stationary {
			t.Fatalf("tick diff must omit stationary boxes, saw %q", box.ID)
		}
	}
}

func TestHandleUnsubscribesOnClose(t *testing.T) {
	h := newTestHub(t)
	handler := NewHandler(h, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv.URL)
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}
	if got := h.SubscriberCount(); got != 1 {
		t.Fatalf("subscribers: got %d want 1", got)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber was not pruned after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
