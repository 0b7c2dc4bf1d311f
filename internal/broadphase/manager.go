package broadphase

import (
	"iter"
	"math"
	"slices"
)

// pairKey identifies an unordered pair by box IDs for cache membership.
type pairKey struct {
	lo string
	hi string
}

func keyFor(a, b *Box) pairKey {
	if a.id <= b.id {
		return pairKey{lo: a.id, hi: b.id}
	}
	return pairKey{lo: b.id, hi: a.id}
}

// Manager owns a long-lived box population and answers repeated collision
// queries against it. Its one trick is the stationary pair cache: collisions
// between two boxes that never move are computed once and replayed until a
// stationary box is registered, removed, moved, or resized, each of which
// invalidates the cache synchronously.
//
// A Manager is exclusively owned by a single goroutine. Callers that need
// concurrent access serialize it themselves, and must not mutate the registry
// or any registered box while a Query sequence is still being consumed.
type Manager struct {
	cfg             Config
	boxes           []*Box
	index           map[string]*Box
	stationaryCount int

	cache      []Pair
	cacheValid bool

	part partitioner
}

// NewManager returns an empty manager using cfg for every partition pass.
func NewManager(cfg Config) *Manager {
	cfg = cfg.normalized()
	return &Manager{
		cfg:        cfg,
		index:      make(map[string]*Box),
		cacheValid: true,
		part:       partitioner{maxDepth: cfg.MaxDepth},
	}
}

// Len returns the number of registered boxes.
func (m *Manager) Len() int { return len(m.boxes) }

// StationaryCount returns the number of registered stationary boxes.
func (m *Manager) StationaryCount() int { return m.stationaryCount }

// CacheValid reports whether the stationary pair cache would be replayed by
// the next Query.
func (m *Manager) CacheValid() bool { return m.cacheValid }

// CachedPairs returns the number of stationary pairs currently cached, zero
// while the cache is invalid.
func (m *Manager) CachedPairs() int {
	if !m.cacheValid {
		return 0
	}
	return len(m.cache)
}

// Boxes returns a copy of the registry contents.
func (m *Manager) Boxes() []*Box {
	return slices.Clone(m.boxes)
}

// Register adds a box to the registry and claims ownership of its move
// notifications. Registering a box twice, or a second box reusing an existing
// ID, fails with ErrAlreadyRegistered.
func (m *Manager) Register(b *Box) error {
	if b == nil {
		return ErrNilBox
	}
	if b.manager != nil {
		return ErrAlreadyRegistered
	}
	if _, exists := m.index[b.id]; exists {
		return ErrAlreadyRegistered
	}
	m.boxes = append(m.boxes, b)
	m.index[b.id] = b
	b.manager = m
	if b.stationary {
		m.stationaryCount++
		m.InvalidateStationaryCache()
	}
	return nil
}

// Remove drops a box from the registry and releases it. Removing a box the
// manager does not own fails with ErrNotRegistered.
func (m *Manager) Remove(b *Box) error {
	if b == nil {
		return ErrNilBox
	}
	if owned, exists := m.index[b.id]; !exists || owned != b {
		return ErrNotRegistered
	}
	delete(m.index, b.id)
	for i, candidate := range m.boxes {
		if candidate == b {
			m.boxes = append(m.boxes[:i], m.boxes[i+1:]...)
			break
		}
	}
	b.manager = nil
	if b.stationary {
		m.stationaryCount--
		m.InvalidateStationaryCache()
	}
	return nil
}

// NotifyMoved records that a box's geometry changed. Box.Move and Box.Resize
// call this automatically for registered boxes; it exists for callers that
// drive notifications manually. Unregistered boxes fail with ErrNotRegistered.
func (m *Manager) NotifyMoved(b *Box) error {
	if b == nil {
		return ErrNilBox
	}
	if owned, exists := m.index[b.id]; !exists || owned != b {
		return ErrNotRegistered
	}
	if b.stationary {
		m.InvalidateStationaryCache()
	}
	return nil
}

// InvalidateStationaryCache discards the cached stationary pairs. The next
// Query rebuilds them with a full partition pass.
func (m *Manager) InvalidateStationaryCache() {
	m.cacheValid = false
}

// Query lazily yields every colliding pair in the current registry. Three
// cases, checked when iteration starts:
//
//   - no stationary boxes: a plain partitioned pass, nothing to cache;
//   - cache invalid: a full partitioned pass that records every
//     stationary/stationary pair on the way through. The cache only becomes
//     valid if the consumer drains the whole sequence; abandoning it halfway
//     leaves the cache invalid rather than half-built;
//   - cache valid: the cached pairs are replayed, then a reduced pass covers
//     every pair with at least one nonstationary member.
//
// A pair whose members both straddle into a shared partition quadrant can be
// yielded twice; consumers needing exact-once semantics deduplicate by box
// ID. Mutating the registry or any registered box while the sequence is being
// consumed is caller error.
func (m *Manager) Query() iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		switch {
		case m.stationaryCount == 0:
			m.part.run(m.boxes, m.cfg.PartitionSize, func(leaf []*Box) bool {
				return emitDeduplicated(leaf, yield)
			})
		case !m.cacheValid:
			m.rebuild(yield)
		default:
			for _, pair := range m.cache {
				if !yield(pair) {
					return
				}
			}
			// With every box stationary the cache already holds every
			// collision there is.
			if m.stationaryCount == len(m.boxes) {
				return
			}
			m.reducedPass(yield)
		}
	}
}

// rebuild runs the full partition pass, caching stationary pairs as they
// stream by. The partitioner can surface a straddling pair twice, so cache
// inserts go through a per-rebuild seen set; the replayed cache itself never
// holds duplicates.
func (m *Manager) rebuild(yield func(Pair) bool) {
	m.cache = m.cache[:0]
	var seen map[pairKey]struct{}
	completed := m.part.run(m.boxes, m.cfg.PartitionSize, func(leaf []*Box) bool {
		for i := 0; i < len(leaf); i++ {
			a := leaf[i]
			for j := i + 1; j < len(leaf); j++ {
				b := leaf[j]
				if !a.Overlaps(b) {
					continue
				}
				if a.stationary && b.stationary {
					if seen == nil {
						seen = make(map[pairKey]struct{})
					}
					key := keyFor(a, b)
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						m.cache = append(m.cache, Pair{A: a, B: b})
					}
				}
				if !yield(Pair{A: a, B: b}) {
					return false
				}
			}
		}
		return true
	})
	if completed {
		m.cacheValid = true
	}
}

// reducedPass finds every collision involving at least one nonstationary box.
// Each partition leaf is stably sorted so stationary boxes sink to the end,
// and the outer scan stops at the first stationary box: past that point only
// stationary/stationary pairs remain and those are already cached. Because
// cached stationary boxes cost nothing here, the partition size is scaled by
// 1/(1-stationaryFraction) so the effective nonstationary density per leaf
// matches the configured size.
func (m *Manager) reducedPass(yield func(Pair) bool) {
	fraction := float64(m.stationaryCount) / float64(len(m.boxes))
	size := int(math.Ceil(float64(m.cfg.PartitionSize) / (1 - fraction)))
	if size < m.cfg.PartitionSize {
		size = m.cfg.PartitionSize
	}
	m.part.run(m.boxes, size, func(leaf []*Box) bool {
		slices.SortStableFunc(leaf, func(a, b *Box) int {
			switch {
			case a.stationary == b.stationary:
				return 0
			case b.stationary:
				return -1
			default:
				return 1
			}
		})
		for i := 0; i < len(leaf); i++ {
			a := leaf[i]
			if a.stationary {
				break
			}
			for j := i + 1; j < len(leaf); j++ {
				b := leaf[j]
				if a.Overlaps(b) && !yield(Pair{A: a, B: b}) {
					return false
				}
			}
		}
		return true
	})
}
