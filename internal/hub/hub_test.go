package hub

import (
	"context"
	"sync"
	"testing"

	"broadphase/server/internal/world"
	"broadphase/server/logging"
	"broadphase/server/logging/collision"
	"broadphase/server/logging/network"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (c *capturePublisher) Publish(_ context.Context, event logging.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capturePublisher) byType(t logging.EventType) []logging.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []logging.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestWorld(t *testing.T, pub logging.Publisher) *world.World {
	t.Helper()
	w, err := world.New(world.Config{
		Seed:               "hub-test",
		BoxCount:           20,
		StationaryFraction: 0.5,
	}, world.Deps{Publisher: pub})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

func TestConfigNormalized(t *testing.T) {
	cfg := Config{}.normalized()
	if cfg.TickRate != 15 {
		t.Fatalf("TickRate default: got %d want 15", cfg.TickRate)
	}
	cfg = Config{TickRate: 30}.normalized()
	if cfg.TickRate != 30 {
		t.Fatalf("TickRate: got %d want 30", cfg.TickRate)
	}
}

func TestStepAdvancesTick(t *testing.T) {
	h := New(newTestWorld(t, nil), Config{}, nil)
	if got := h.Tick(); got != 0 {
		t.Fatalf("initial tick: got %d want 0", got)
	}
	h.Step(context.Background(), 1.0/15)
	h.Step(context.Background(), 1.0/15)
	if got := h.Tick(); got != 2 {
		t.Fatalf("tick after two steps: got %d want 2", got)
	}
}

func TestStepPublishesQueryEvent(t *testing.T) {
	pub := &capturePublisher{}
	h := New(newTestWorld(t, pub), Config{}, pub)

	h.Step(context.Background(), 1.0/15)

	queries := pub.byType(collision.EventQuery)
	if len(queries) != 1 {
		t.Fatalf("query events: got %d want 1", len(queries))
	}
	event := queries[0]
	if event.Tick != 1 {
		t.Fatalf("query event tick: got %d want 1", event.Tick)
	}
	payload, ok := event.Payload.(collision.QueryPayload)
	if !ok {
		t.Fatalf("query payload type: got %T", event.Payload)
	}
	if payload.Boxes != 20 {
		t.Fatalf("query payload boxes: got %d want 20", payload.Boxes)
	}
	if payload.Pairs < 0 {
		t.Fatalf("query payload pairs negative: %d", payload.Pairs)
	}
}

func TestStepWarmsStationaryCache(t *testing.T) {
	pub := &capturePublisher{}
	h := New(newTestWorld(t, pub), Config{}, pub)

	h.Step(context.Background(), 1.0/15)
	h.Step(context.Background(), 1.0/15)

	diag := h.Diagnostics()
	if diag.Stationary == 0 {
		t.Fatalf("expected stationary boxes in the population")
	}
	if !diag.CacheValid {
		t.Fatalf("cache should be valid after a drained query")
	}

	queries := pub.byType(collision.EventQuery)
	if len(queries) != 2 {
		t.Fatalf("query events: got %d want 2", len(queries))
	}
	first, ok := queries[0].Payload.(collision.QueryPayload)
	if !ok {
		t.Fatalf("first payload type: got %T", queries[0].Payload)
	}
	second, ok := queries[1].Payload.(collision.QueryPayload)
	if !ok {
		t.Fatalf("second payload type: got %T", queries[1].Payload)
	}
	if first.CacheHit {
		t.Fatalf("first query must rebuild, not hit the cache")
	}
	if !second.CacheHit {
		t.Fatalf("second query should hit the cache")
	}
}

func TestDiagnosticsSnapshot(t *testing.T) {
	h := New(newTestWorld(t, nil), Config{}, nil)
	h.Step(context.Background(), 1.0/15)

	diag := h.Diagnostics()
	if diag.Tick != 1 {
		t.Fatalf("diagnostics tick: got %d want 1", diag.Tick)
	}
	if diag.Boxes != 20 {
		t.Fatalf("diagnostics boxes: got %d want 20", diag.Boxes)
	}
	if diag.Subscribers != 0 {
		t.Fatalf("diagnostics subscribers: got %d want 0", diag.Subscribers)
	}
}

func TestUnsubscribeUnknownIDIsNoop(t *testing.T) {
	pub := &capturePublisher{}
	h := New(newTestWorld(t, nil), Config{}, pub)

	h.Unsubscribe("never-subscribed", "test")

	if events := pub.byType(network.EventClientDropped); len(events) != 0 {
		t.Fatalf("unexpected drop events: %d", len(events))
	}
}
