package broadphase

import "math/rand"

// SpawnConfig bounds a randomly generated box population.
type SpawnConfig struct {
	MinX, MaxX           float64
	MinY, MaxY           float64
	MinWidth, MaxWidth   float64
	MinHeight, MaxHeight float64
	// StationaryChance is the probability in [0, 1] that a generated box is
	// flagged stationary.
	StationaryChance float64
}

func (c SpawnConfig) normalized() SpawnConfig {
	if c.MaxX < c.MinX {
		c.MaxX = c.MinX
	}
	if c.MaxY < c.MinY {
		c.MaxY = c.MinY
	}
	if c.MinWidth < 0 {
		c.MinWidth = 0
	}
	if c.MaxWidth < c.MinWidth {
		c.MaxWidth = c.MinWidth
	}
	if c.MinHeight < 0 {
		c.MinHeight = 0
	}
	if c.MaxHeight < c.MinHeight {
		c.MaxHeight = c.MinHeight
	}
	return c
}

// GenerateBoxes scatters count boxes uniformly over the configured ranges
// using the caller's RNG, so seeded sources reproduce populations exactly.
func GenerateBoxes(rng *rand.Rand, count int, cfg SpawnConfig) []*Box {
	cfg = cfg.normalized()
	boxes := make([]*Box, 0, count)
	for i := 0; i < count; i++ {
		spec := BoxSpec{
			X:          cfg.MinX + rng.Float64()*(cfg.MaxX-cfg.MinX),
			Y:          cfg.MinY + rng.Float64()*(cfg.MaxY-cfg.MinY),
			Width:      cfg.MinWidth + rng.Float64()*(cfg.MaxWidth-cfg.MinWidth),
			Height:     cfg.MinHeight + rng.Float64()*(cfg.MaxHeight-cfg.MinHeight),
			Stationary: rng.Float64() < cfg.StationaryChance,
		}
		b, err := NewBox(spec)
		if err != nil {
			// normalized() keeps dimensions non-negative.
			continue
		}
		boxes = append(boxes, b)
	}
	return boxes
}
