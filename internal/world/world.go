package world

import (
	"context"
	"fmt"
	"math"

	"broadphase/server/internal/broadphase"
	"broadphase/server/logging"
	"broadphase/server/logging/collision"
)

// Deps carries the world's collaborators. Boxes holds pre-authored scenario
// boxes registered before the random population is scattered.
type Deps struct {
	Publisher logging.Publisher
	Boxes     []*broadphase.Box
}

type mover struct {
	box *broadphase.Box
	vx  float64
	vy  float64
}

// World owns the demo box population and its collision manager. Nonstationary
// boxes drift with a fixed velocity and bounce off the world bounds; the
// interesting part is that stationary boxes never move, so the manager's pair
// cache stays valid tick after tick. World is not safe for concurrent use;
// the hub serializes access.
type World struct {
	cfg     Config
	manager *broadphase.Manager
	movers  []mover
	pub     logging.Publisher
}

// New builds a world from cfg, registers deps.Boxes, and scatters the random
// population deterministically from cfg.Seed.
func New(cfg Config, deps Deps) (*World, error) {
	cfg = cfg.normalized()
	pub := deps.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	w := &World{
		cfg:     cfg,
		manager: broadphase.NewManager(cfg.Partition),
		pub:     pub,
	}

	for _, b := range deps.Boxes {
		if err := w.manager.Register(b); err != nil {
			return nil, fmt.Errorf("world: register scenario box %s: %w", b.ID(), err)
		}
	}

	spawnRNG := NewDeterministicRNG(cfg.Seed, "world.spawn")
	scattered := broadphase.GenerateBoxes(spawnRNG, cfg.BoxCount, broadphase.SpawnConfig{
		MaxX:             cfg.Width - cfg.MaxBoxSize,
		MaxY:             cfg.Height - cfg.MaxBoxSize,
		MinWidth:         cfg.MinBoxSize,
		MaxWidth:         cfg.MaxBoxSize,
		MinHeight:        cfg.MinBoxSize,
		MaxHeight:        cfg.MaxBoxSize,
		StationaryChance: cfg.StationaryFraction,
	})
	for _, b := range scattered {
		if err := w.manager.Register(b); err != nil {
			return nil, fmt.Errorf("world: register scattered box %s: %w", b.ID(), err)
		}
	}

	driftRNG := NewDeterministicRNG(cfg.Seed, "world.drift")
	for _, b := range w.manager.Boxes() {
		if b.Stationary() {
			continue
		}
		angle := driftRNG.Float64() * 2 * math.Pi
		w.movers = append(w.movers, mover{
			box: b,
			vx:  math.Cos(angle) * cfg.MoveSpeed,
			vy:  math.Sin(angle) * cfg.MoveSpeed,
		})
	}
	return w, nil
}

// Config returns the normalized configuration.
func (w *World) Config() Config { return w.cfg }

// Manager exposes the collision manager for stats and direct queries.
func (w *World) Manager() *broadphase.Manager { return w.manager }

// Boxes returns a copy of the registered population.
func (w *World) Boxes() []*broadphase.Box { return w.manager.Boxes() }

// Advance drifts every nonstationary box by dt seconds, bouncing off the
// world bounds. Stationary boxes are untouched, which is what keeps the
// manager's pair cache warm across ticks.
func (w *World) Advance(dt float64) {
	for i := range w.movers {
		m := &w.movers[i]
		x := m.box.X() + m.vx*dt
		y := m.box.Y() + m.vy*dt
		if maxX := w.cfg.Width - m.box.Width(); x < 0 || x > maxX {
			x = clamp(x, 0, maxX)
			m.vx = -m.vx
		}
		if maxY := w.cfg.Height - m.box.Height(); y < 0 || y > maxY {
			y = clamp(y, 0, maxY)
			m.vy = -m.vy
		}
		m.box.Move(x, y)
	}
}

// CollidingPairs runs a collision query and reports whether it was served
// with a warm stationary cache. A rebuild of the cache is published as a
// collision event against tick.
func (w *World) CollidingPairs(ctx context.Context, tick uint64) (pairs []broadphase.Pair, cacheHit bool) {
	cacheHit = w.manager.CacheValid() && w.manager.StationaryCount() > 0
	for pair := range w.manager.Query() {
		pairs = append(pairs, pair)
	}
	if !cacheHit && w.manager.CacheValid() && w.manager.StationaryCount() > 0 {
		collision.CacheRebuilt(ctx, w.pub, tick, logging.EntityRef{ID: "world", Kind: logging.EntityKindWorld},
			collision.CacheRebuiltPayload{CachedPairs: w.manager.CachedPairs()})
	}
	return pairs, cacheHit
}

func clamp(value, min, max float64) float64 {
	if max < min {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
