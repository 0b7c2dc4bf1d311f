package broadphase

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

var (
	// ErrInvalidGeometry rejects boxes constructed or resized with negative dimensions.
	ErrInvalidGeometry = errors.New("broadphase: box width and height must be non-negative")
	// ErrNotRegistered reports an operation on a box the manager does not own.
	ErrNotRegistered = errors.New("broadphase: box is not registered with this manager")
	// ErrAlreadyRegistered reports a second registration of the same box or box ID.
	ErrAlreadyRegistered = errors.New("broadphase: box is already registered")
	// ErrNilBox reports a nil box passed to a manager operation.
	ErrNilBox = errors.New("broadphase: nil box")
)

// BoxSpec describes a box to construct. An empty ID is replaced with a
// generated UUID. Userdata is carried opaquely so callers can link a box back
// to their own entities.
type BoxSpec struct {
	ID         string
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Stationary bool
	Userdata   any
}

// Box is an axis-aligned bounding box. Geometry is exposed through accessors
// only; the derived fields (center, half extents, far corner) are recomputed
// atomically by Move and Resize so they can never drift out of sync with the
// position. The stationary flag is fixed at construction.
type Box struct {
	id         string
	x          float64
	y          float64
	width      float64
	height     float64
	halfWidth  float64
	halfHeight float64
	x2         float64
	y2         float64
	cx         float64
	cy         float64
	stationary bool
	manager    *Manager

	// Userdata is the caller's opaque payload. It plays no part in collision
	// detection and may be mutated freely.
	Userdata any
}

// NewBox validates the BoxSpec and returns a box with all derived fields
// populated. Negative width or height fails with ErrInvalidGeometry.
func NewBox(spec BoxSpec) (*Box, error) {
	if spec.Width < 0 || spec.Height < 0 {
		return nil, ErrInvalidGeometry
	}
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	b := &Box{
		id:         id,
		x:          spec.X,
		y:          spec.Y,
		width:      spec.Width,
		height:     spec.Height,
		halfWidth:  spec.Width / 2,
		halfHeight: spec.Height / 2,
		stationary: spec.Stationary,
		Userdata:   spec.Userdata,
	}
	b.afterMove()
	return b, nil
}

// afterMove refreshes every field derived from the top-left corner.
func (b *Box) afterMove() {
	b.x2 = b.x + b.width
	b.y2 = b.y + b.height
	b.cx = b.x + b.halfWidth
	b.cy = b.y + b.halfHeight
}

// Move relocates the box and recomputes derived geometry. A stationary box
// that moves while registered invalidates its manager's pair cache before
// Move returns.
func (b *Box) Move(x, y float64) {
	b.x = x
	b.y = y
	b.afterMove()
	if b.manager != nil && b.stationary {
		b.manager.InvalidateStationaryCache()
	}
}

// Resize changes the box dimensions in place. Negative dimensions fail with
// ErrInvalidGeometry and leave the box untouched. Resizing a registered
// stationary box invalidates the pair cache the same way Move does.
func (b *Box) Resize(width, height float64) error {
	if width < 0 || height < 0 {
		return ErrInvalidGeometry
	}
	b.width = width
	b.height = height
	b.halfWidth = width / 2
	b.halfHeight = height / 2
	b.afterMove()
	if b.manager != nil && b.stationary {
		b.manager.InvalidateStationaryCache()
	}
	return nil
}

// Overlaps reports whether two boxes intersect, boundary inclusive. The
// centers are close enough iff the boxes overlap as intervals on both axes,
// which stays correct for the thin-cross arrangement where neither box holds
// a corner of the other.
func (b *Box) Overlaps(o *Box) bool {
	return math.Abs(b.cx-o.cx) <= b.halfWidth+o.halfWidth &&
		math.Abs(b.cy-o.cy) <= b.halfHeight+o.halfHeight
}

// ID returns the box's opaque identifier.
func (b *Box) ID() string { return b.id }

// X returns the minimum-x edge.
func (b *Box) X() float64 { return b.x }

// Y returns the minimum-y edge.
func (b *Box) Y() float64 { return b.y }

// Width returns the box width.
func (b *Box) Width() float64 { return b.width }

// Height returns the box height.
func (b *Box) Height() float64 { return b.height }

// MaxX returns the maximum-x edge.
func (b *Box) MaxX() float64 { return b.x2 }

// MaxY returns the maximum-y edge.
func (b *Box) MaxY() float64 { return b.y2 }

// CenterX returns the center x coordinate.
func (b *Box) CenterX() float64 { return b.cx }

// CenterY returns the center y coordinate.
func (b *Box) CenterY() float64 { return b.cy }

// HalfWidth returns half the box width.
func (b *Box) HalfWidth() float64 { return b.halfWidth }

// HalfHeight returns half the box height.
func (b *Box) HalfHeight() float64 { return b.halfHeight }

// Stationary reports whether the caller promised the box will not move
// between queries.
func (b *Box) Stationary() bool { return b.stationary }
