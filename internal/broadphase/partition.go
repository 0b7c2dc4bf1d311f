package broadphase

import "iter"

const (
	defaultPartitionSize = 10
	defaultMaxDepth      = 2
)

// Config tunes the quadrant partitioner. The zero value picks the defaults.
type Config struct {
	// PartitionSize is the list size at or below which a quadrant is checked
	// pairwise instead of being subdivided further.
	PartitionSize int
	// MaxDepth bounds the subdivision recursion.
	MaxDepth int
}

func (c Config) normalized() Config {
	if c.PartitionSize <= 0 {
		c.PartitionSize = defaultPartitionSize
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	return c
}

// estimateCenter averages the box centers. A mean is deliberately cheap; it
// is not a median and a skewed population can produce lopsided quadrants,
// which only costs speed, never correctness.
func estimateCenter(boxes []*Box) (float64, float64) {
	var x, y float64
	for _, b := range boxes {
		x += b.cx
		y += b.cy
	}
	n := float64(len(boxes))
	return x / n, y / n
}

// partitioner subdivides box lists into quadrant leaves. All sublists live as
// index ranges in one append-only arena, so a run allocates the arena once
// instead of fresh containers at every recursion level. A partitioner can be
// reused across runs; leaves yielded by a run are invalidated by the next.
type partitioner struct {
	maxDepth int
	arena    []*Box
}

// run copies boxes into the arena and yields every leaf sublist. A leaf is a
// quadrant that reached maxDepth, shrank to at most size boxes, or refused to
// shrink at all (everything straddling the center would otherwise recurse to
// full depth for nothing). Boxes overlapping a dividing line join every
// quadrant they touch, so leaves are a superset of the input and no pair can
// be lost. Reports false when the consumer stopped early.
func (p *partitioner) run(boxes []*Box, size int, yield func([]*Box) bool) bool {
	if len(boxes) == 0 {
		return true
	}
	p.arena = append(p.arena[:0], boxes...)
	return p.recurse(0, len(boxes), size, 0, yield)
}

func (p *partitioner) recurse(lo, hi, size, depth int, yield func([]*Box) bool) bool {
	if depth == p.maxDepth {
		return yield(p.arena[lo:hi:hi])
	}
	cx, cy := estimateCenter(p.arena[lo:hi])
	parent := hi - lo
	for quadrant := 0; quadrant < 4; quadrant++ {
		start := len(p.arena)
		for i := lo; i < hi; i++ {
			b := p.arena[i]
			var member bool
			switch quadrant {
			case 0: // bottom-left
				member = b.x <= cx && b.y <= cy
			case 1: // top-left
				member = b.x <= cx && b.y2 >= cy
			case 2: // bottom-right
				member = b.x2 >= cx && b.y <= cy
			case 3: // top-right
				member = b.x2 >= cx && b.y2 >= cy
			}
			if member {
				p.arena = append(p.arena, b)
			}
		}
		end := len(p.arena)
		switch n := end - start; {
		case n == 0:
			// Empty quadrant, nothing to do.
		case n <= size || n == parent:
			if !yield(p.arena[start:end:end]) {
				return false
			}
		default:
			if !p.recurse(start, end, size, depth+1, yield) {
				return false
			}
		}
	}
	return true
}

// Partition exposes the raw quadrant leaves for a single subdivision run.
// Yielded sublists are views into one backing arena owned by the iteration.
func Partition(boxes []*Box, cfg Config) iter.Seq[[]*Box] {
	cfg = cfg.normalized()
	return func(yield func([]*Box) bool) {
		p := &partitioner{maxDepth: cfg.MaxDepth}
		p.run(boxes, cfg.PartitionSize, yield)
	}
}

// CheckPartitioned yields the colliding pairs of boxes, semantically the same
// set as CheckDeduplicated but found with far fewer comparisons when the
// population is spread out. If both members of a pair straddle into a shared
// quadrant the pair can be yielded more than once; consumers that need
// exact-once delivery deduplicate by box ID. When every box overlaps every
// other, subdivision buys nothing and the work degrades toward MaxDepth+1
// times the plain deduplicated check.
func CheckPartitioned(boxes []*Box, cfg Config) iter.Seq[Pair] {
	cfg = cfg.normalized()
	return func(yield func(Pair) bool) {
		p := &partitioner{maxDepth: cfg.MaxDepth}
		p.run(boxes, cfg.PartitionSize, func(leaf []*Box) bool {
			return emitDeduplicated(leaf, yield)
		})
	}
}
