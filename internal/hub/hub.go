package hub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"broadphase/server/internal/broadphase"
	"broadphase/server/internal/net/proto"
	"broadphase/server/internal/world"
	"broadphase/server/logging"
	"broadphase/server/logging/collision"
	"broadphase/server/logging/network"
)

const writeTimeout = 5 * time.Second

// Config tunes the broadcast loop.
type Config struct {
	// TickRate is the number of simulation steps per second.
	TickRate int
}

func (c Config) normalized() Config {
	if c.TickRate <= 0 {
		c.TickRate = 15
	}
	return c
}

// Hub owns the world and the set of live feed subscribers. Every tick it
// advances the world, queries collisions, and broadcasts the diff to every
// subscriber, pruning connections whose writes fail.
type Hub struct {
	cfg    Config
	pub    logging.Publisher
	tick   atomic.Uint64
	nextID atomic.Uint64

	mu          sync.Mutex
	world       *world.World
	subscribers map[string]*subscriber
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// New wraps a world in a hub. A nil publisher falls back to the nop
// publisher.
func New(w *world.World, cfg Config, pub logging.Publisher) *Hub {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Hub{
		cfg:         cfg.normalized(),
		pub:         pub,
		world:       w,
		subscribers: make(map[string]*subscriber),
	}
}

// Tick returns the latest completed tick number.
func (h *Hub) Tick() uint64 { return h.tick.Load() }

// SubscriberCount returns the number of live feed subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// World exposes the underlying world. Callers must not touch it while the
// loop is running; use Diagnostics for live reads.
func (h *Hub) World() *world.World { return h.world }

// Diagnostics is a point-in-time view of the hub for the diagnostics
// endpoint.
type Diagnostics struct {
	Tick        uint64
	Subscribers int
	Boxes       int
	Stationary  int
	CacheValid  bool
	CachedPairs int
}

// Diagnostics snapshots hub and manager state under the hub lock.
func (h *Hub) Diagnostics() Diagnostics {
	h.mu.Lock()
	defer h.mu.Unlock()
	manager := h.world.Manager()
	return Diagnostics{
		Tick:        h.tick.Load(),
		Subscribers: len(h.subscribers),
		Boxes:       manager.Len(),
		Stationary:  manager.StationaryCount(),
		CacheValid:  manager.CacheValid(),
		CachedPairs: manager.CachedPairs(),
	}
}

// Subscribe registers a connection and sends it the full state snapshot
// before any tick diff can reach it.
func (h *Hub) Subscribe(conn *websocket.Conn) (string, error) {
	id := fmt.Sprintf("client-%d", h.nextID.Add(1))
	sub := &subscriber{id: id, conn: conn}

	h.mu.Lock()
	snapshot := h.stateMessageLocked()
	h.subscribers[id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	data, err := proto.EncodeState(snapshot)
	if err != nil {
		h.Unsubscribe(id, "encode failed")
		return "", fmt.Errorf("hub: encode state snapshot: %w", err)
	}
	if err := sub.send(data); err != nil {
		h.Unsubscribe(id, "initial write failed")
		return "", fmt.Errorf("hub: send state snapshot: %w", err)
	}

	network.ClientSubscribed(context.Background(), h.pub, h.tick.Load(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindClient},
		network.ClientPayload{Subscribers: count})
	return id, nil
}

// Unsubscribe drops a connection from the broadcast list. Unknown IDs are a
// no-op so pruning and read-loop teardown can race safely.
func (h *Hub) Unsubscribe(id, reason string) {
	h.mu.Lock()
	_, existed := h.subscribers[id]
	delete(h.subscribers, id)
	count := len(h.subscribers)
	h.mu.Unlock()
	if !existed {
		return
	}
	network.ClientDropped(context.Background(), h.pub, h.tick.Load(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindClient},
		network.ClientPayload{Subscribers: count, Reason: reason})
}

// RunLoop advances the world at the configured tick rate until ctx is done.
func (h *Hub) RunLoop(ctx context.Context) {
	interval := time.Second / time.Duration(h.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Step(ctx, interval.Seconds())
		}
	}
}

// Step runs one simulation tick and broadcasts the result. Exposed so tests
// can drive the loop without timers.
func (h *Hub) Step(ctx context.Context, dt float64) {
	tick := h.tick.Add(1)

	h.mu.Lock()
	h.world.Advance(dt)
	pairs, cacheHit := h.world.CollidingPairs(ctx, tick)
	msg := h.tickMessageLocked(tick, pairs, cacheHit)
	manager := h.world.Manager()
	payload := collision.QueryPayload{
		Boxes:      manager.Len(),
		Stationary: manager.StationaryCount(),
		Pairs:      len(pairs),
		CacheHit:   cacheHit,
	}
	h.mu.Unlock()

	collision.Query(ctx, h.pub, tick,
		logging.EntityRef{ID: "world", Kind: logging.EntityKindWorld}, payload)

	data, err := proto.EncodeTick(msg)
	if err != nil {
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(data); err != nil {
			h.Unsubscribe(sub.id, "write failed")
			sub.conn.Close()
		}
	}
}

func (h *Hub) stateMessageLocked() proto.StateMessage {
	cfg := h.world.Config()
	boxes := h.world.Boxes()
	msg := proto.StateMessage{
		Tick:   h.tick.Load(),
		Width:  cfg.Width,
		Height: cfg.Height,
		Boxes:  make([]proto.BoxState, 0, len(boxes)),
	}
	for _, b := range boxes {
		msg.Boxes = append(msg.Boxes, boxState(b))
	}
	return msg
}

func (h *Hub) tickMessageLocked(tick uint64, pairs []broadphase.Pair, cacheHit bool) proto.TickMessage {
	msg := proto.TickMessage{
		Tick:     tick,
		CacheHit: cacheHit,
		Pairs:    make([]proto.PairState, 0, len(pairs)),
	}
	for _, b := range h.world.Boxes() {
		if b.Stationary() {
			continue
		}
		msg.Boxes = append(msg.Boxes, boxState(b))
	}
	for _, pair := range pairs {
		msg.Pairs = append(msg.Pairs, proto.PairState{A: pair.A.ID(), B: pair.B.ID()})
	}
	return msg
}

func boxState(b *broadphase.Box) proto.BoxState {
	return proto.BoxState{
		ID:         b.ID(),
		X:          b.X(),
		Y:          b.Y(),
		Width:      b.Width(),
		Height:     b.Height(),
		Stationary: b.Stationary(),
	}
}
