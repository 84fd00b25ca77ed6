// Package placement decides whether and where a hazard sits on a freshly
// spawned segment. It never touches pools; the streamer acquires and places.
package placement

import (
	"fmt"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/pool"
)

// Interior band of a segment a hazard may occupy, as fractions of its
// length. Seams stay clear so the player always has a reaction window.
const (
	MinOffsetFrac = 0.1
	MaxOffsetFrac = 0.9
)

// Source is the only randomness the policy consumes. *math/rand.Rand
// satisfies it; tests inject scripted values.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// HazardSpec is a placement decision for one segment.
type HazardSpec struct {
	Lane    int       // -⌊n/2⌋ .. ⌊n/2⌋
	Offset  float64   // distance from the segment's leading edge
	Variant pool.Kind // hazard prototype to acquire
}

// Policy holds the immutable placement parameters.
type Policy struct {
	LaneCount   int
	SpawnChance float64
	Variants    []pool.Kind
}

// Validate checks the policy the same way the config layer does.
func (p Policy) Validate() error {
	if p.LaneCount < 1 || p.LaneCount%2 == 0 {
		return fmt.Errorf("%w: lane count must be odd and >= 1, got %d", config.ErrInvalid, p.LaneCount)
	}
	if !(p.SpawnChance >= 0 && p.SpawnChance <= 1) {
		return fmt.Errorf("%w: spawn chance must be within [0,1], got %v", config.ErrInvalid, p.SpawnChance)
	}
	return nil
}

// Decide draws one sample; at or above SpawnChance the segment stays clear.
// Otherwise it draws lane, offset and variant, in that order.
func (p Policy) Decide(length float64, rng Source) (HazardSpec, bool) {
	if rng.Float64() >= p.SpawnChance || len(p.Variants) == 0 {
		return HazardSpec{}, false
	}
	lane := rng.Intn(p.LaneCount) - p.LaneCount/2
	span := MaxOffsetFrac - MinOffsetFrac
	offset := length * (MinOffsetFrac + span*rng.Float64())
	variant := p.Variants[rng.Intn(len(p.Variants))]
	return HazardSpec{Lane: lane, Offset: offset, Variant: variant}, true
}

// MaxLane is the outermost lane index on either side of lane 0.
func MaxLane(laneCount int) int {
	return laneCount / 2
}
