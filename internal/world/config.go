package world

import "broadphase/server/internal/broadphase"

// DefaultSeed keeps box populations reproducible when no seed is supplied.
const DefaultSeed = "broadphase-demo"

// Config shapes the demo population. Zero values are replaced by defaults in
// normalized().
type Config struct {
	Seed   string
	Width  float64
	Height float64
	// BoxCount is the number of randomly scattered boxes, in addition to any
	// pre-authored scenario boxes handed to New.
	BoxCount int
	// StationaryFraction is the probability that a scattered box never moves.
	StationaryFraction float64
	MinBoxSize         float64
	MaxBoxSize         float64
	// MoveSpeed is the drift speed of nonstationary boxes in units/second.
	MoveSpeed float64
	Partition broadphase.Config
}

func (c Config) normalized() Config {
	if c.Seed == "" {
		c.Seed = DefaultSeed
	}
	if c.Width <= 0 {
		c.Width = 1000
	}
	if c.Height <= 0 {
		c.Height = 1000
	}
	if c.BoxCount < 0 {
		c.BoxCount = 0
	}
	if c.StationaryFraction < 0 {
		c.StationaryFraction = 0
	}
	if c.StationaryFraction > 1 {
		c.StationaryFraction = 1
	}
	if c.MinBoxSize <= 0 {
		c.MinBoxSize = 8
	}
	if c.MaxBoxSize <= 0 {
		c.MaxBoxSize = 40
	}
	if c.MaxBoxSize < c.MinBoxSize {
		c.MaxBoxSize = c.MinBoxSize
	}
	if c.MoveSpeed <= 0 {
		c.MoveSpeed = 40
	}
	return c
}
