package world

import (
	"fmt"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/event"
	"github.com/lanerunner/lanerunner/internal/core/pool"
	"github.com/lanerunner/lanerunner/internal/data"
	"github.com/lanerunner/lanerunner/internal/placement"
	"go.uber.org/zap"
)

// NewPoolSet pre-allocates the track pool and one pool per catalog variant.
func NewPoolSet(cfg *config.Config, catalog *data.HazardCatalog, log *zap.Logger) (*pool.Set, error) {
	set := pool.NewSet()
	track, err := pool.New(pool.KindTrack, cfg.Track.PoolCapacity, pool.Options{
		Strict: cfg.Run.Strict,
		Scale: pool.Vec3{
			X: float64(cfg.Track.LaneCount) * cfg.Track.LaneWidth,
			Y: 1,
			Z: cfg.Track.SegmentLength,
		},
		Log: log,
	})
	if err != nil {
		return nil, fmt.Errorf("track pool: %w", err)
	}
	if err := set.Add(track); err != nil {
		return nil, err
	}

	for _, kind := range catalog.Kinds() {
		v := catalog.Get(kind)
		p, err := pool.New(kind, cfg.Hazards.PoolCapacityPerVariant, pool.Options{
			Strict: cfg.Run.Strict,
			Scale:  v.Scale(),
			Log:    log,
		})
		if err != nil {
			return nil, fmt.Errorf("hazard pool %s: %w", v.Name, err)
		}
		if err := set.Add(p); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// NewStreamerFromConfig wires pools, placement policy and streamer for one run.
func NewStreamerFromConfig(cfg *config.Config, catalog *data.HazardCatalog, bus *event.Bus, log *zap.Logger) (*Streamer, *pool.Set, error) {
	pools, err := NewPoolSet(cfg, catalog, log)
	if err != nil {
		return nil, nil, err
	}
	yOffsets := make(map[pool.Kind]float64, catalog.Count())
	for _, kind := range catalog.Kinds() {
		yOffsets[kind] = catalog.Get(kind).YOffset
	}
	policy := placement.Policy{
		LaneCount:   cfg.Track.LaneCount,
		SpawnChance: cfg.Hazards.SpawnChance,
		Variants:    catalog.Kinds(),
	}
	s, err := NewStreamer(StreamerConfigFrom(cfg.Track, yOffsets), pools, policy, bus, log)
	if err != nil {
		return nil, nil, err
	}
	return s, pools, nil
}
