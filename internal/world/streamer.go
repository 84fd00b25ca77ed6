package world

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/event"
	"github.com/lanerunner/lanerunner/internal/core/pool"
	"github.com/lanerunner/lanerunner/internal/placement"
	"go.uber.org/zap"
)

// RetireMargin is how many segment lengths a segment's trailing edge must
// fall behind the player before it is recycled. The slack keeps segments
// from thrashing right at the visibility boundary.
const RetireMargin = 1.5

// StreamerConfig is fixed at construction.
type StreamerConfig struct {
	SegmentLength   float64
	VisibleSegments int
	LaneWidth       float64
	SegmentY        float64
	MaxStep         time.Duration
	Seed            int64
	// HazardYOffset is each variant's local Y above the segment root.
	HazardYOffset map[pool.Kind]float64
}

// StreamerConfigFrom builds a StreamerConfig from the track settings.
func StreamerConfigFrom(t config.TrackConfig, yOffsets map[pool.Kind]float64) StreamerConfig {
	return StreamerConfig{
		SegmentLength:   t.SegmentLength,
		VisibleSegments: t.VisibleSegments,
		LaneWidth:       t.LaneWidth,
		SegmentY:        t.SegmentY,
		MaxStep:         t.MaxStep.Duration,
		Seed:            t.Seed,
		HazardYOffset:   yOffsets,
	}
}

// Streamer owns the ordered active-segment sequence. Each Step runs
// advance → retire → extend in that order. Game-loop only.
type Streamer struct {
	cfg    StreamerConfig
	pools  *pool.Set
	policy placement.Policy
	rng    *rand.Rand
	bus    *event.Bus
	log    *zap.Logger

	segs      segmentRing
	frontierZ float64 // StartZ the next spawned segment receives
	exhausted map[pool.Kind]bool

	spawned uint64
	retired uint64
}

// NewStreamer validates its inputs and returns an empty streamer; call
// ResetWorld to perform the initial fill. bus and log may be nil.
func NewStreamer(cfg StreamerConfig, pools *pool.Set, policy placement.Policy, bus *event.Bus, log *zap.Logger) (*Streamer, error) {
	if !(cfg.SegmentLength > 0) {
		return nil, fmt.Errorf("%w: segment length must be > 0, got %v", config.ErrInvalid, cfg.SegmentLength)
	}
	if cfg.VisibleSegments < 3 {
		return nil, fmt.Errorf("%w: visible segment count must be >= 3, got %d", config.ErrInvalid, cfg.VisibleSegments)
	}
	if cfg.MaxStep <= 0 {
		return nil, fmt.Errorf("%w: max step must be > 0, got %s", config.ErrInvalid, cfg.MaxStep)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	track := pools.Pool(pool.KindTrack)
	if track == nil || track.Capacity() < 1 {
		return nil, fmt.Errorf("%w: track pool needs capacity >= 1", config.ErrInvalid)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Streamer{
		cfg:       cfg,
		pools:     pools,
		policy:    policy,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		bus:       bus,
		log:       log,
		segs:      newSegmentRing(track.Capacity()),
		exhausted: make(map[pool.Kind]bool, len(policy.Variants)+1),
	}, nil
}

func (s *Streamer) Config() StreamerConfig { return s.cfg }
func (s *Streamer) Len() int               { return s.segs.len() }
func (s *Streamer) Frontier() float64      { return s.frontierZ }
func (s *Streamer) Spawned() uint64        { return s.spawned }
func (s *Streamer) Retired() uint64        { return s.retired }

// Horizon is the frontier the extend step keeps ahead of playerZ.
func (s *Streamer) Horizon(playerZ float64) float64 {
	return playerZ + float64(s.cfg.VisibleSegments-1)*s.cfg.SegmentLength
}

// Head returns the oldest (lowest StartZ) segment.
func (s *Streamer) Head() (*Segment, bool) {
	if s.segs.len() == 0 {
		return nil, false
	}
	return s.segs.at(0), true
}

// Each visits active segments in StartZ order. fn must not retain seg past
// the next Step or ResetWorld.
func (s *Streamer) Each(fn func(seg *Segment)) {
	for i := 0; i < s.segs.len(); i++ {
		fn(s.segs.at(i))
	}
}

// ClampStep converts dt to seconds, clamped to [0, MaxStep]. A stalled
// frame therefore cannot jump past retirement or extension.
func (s *Streamer) ClampStep(dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	if dt > s.cfg.MaxStep {
		dt = s.cfg.MaxStep
	}
	return dt.Seconds()
}

// Step advances the world by rate*dt and then retires and extends around
// playerZ.
func (s *Streamer) Step(playerZ, rate float64, dt time.Duration) {
	sec := s.ClampStep(dt)
	if rate > 0 && !math.IsInf(rate, 0) {
		s.advance(rate * sec)
	}
	s.retire(playerZ)
	s.extend(playerZ)
}

// ResetWorld recycles every segment regardless of position, reseeds the
// placement source and refills visibleSegmentCount segments from
// playerStartZ. Resetting twice from the same Z yields the same layout.
func (s *Streamer) ResetWorld(playerStartZ float64) {
	// Tail first: the LIFO pools then hand handles back in the same order.
	for s.segs.len() > 0 {
		s.recycle(s.segs.at(s.segs.len() - 1))
		s.segs.popTail()
	}
	s.rng.Seed(s.cfg.Seed)

	s.frontierZ = playerStartZ
	for i := 0; i < s.cfg.VisibleSegments; i++ {
		if !s.spawn(s.frontierZ) {
			break
		}
		s.frontierZ += s.cfg.SegmentLength
	}
	s.log.Debug("world reset",
		zap.Float64("player_z", playerStartZ),
		zap.Int("segments", s.segs.len()),
		zap.Float64("frontier", s.frontierZ),
	)
}

func (s *Streamer) advance(delta float64) {
	for i := 0; i < s.segs.len(); i++ {
		seg := s.segs.at(i)
		seg.StartZ -= delta
		s.place(seg)
	}
	s.frontierZ -= delta
}

func (s *Streamer) retire(playerZ float64) {
	limit := playerZ - RetireMargin*s.cfg.SegmentLength
	for s.segs.len() > 0 {
		head := s.segs.at(0)
		if head.EndZ() >= limit {
			return
		}
		s.recycle(head)
		s.segs.popHead()
	}
}

func (s *Streamer) extend(playerZ float64) {
	horizon := s.Horizon(playerZ)
	for s.frontierZ < horizon {
		if !s.spawn(s.frontierZ) {
			// Back-pressure: retry next tick once something retires.
			return
		}
		s.frontierZ += s.cfg.SegmentLength
	}
}

// spawn appends a segment at z. It reports false when no track handle
// was available.
func (s *Streamer) spawn(z float64) bool {
	if s.segs.full() {
		s.markExhausted(pool.KindTrack)
		return false
	}
	h, ok := s.pools.Acquire(pool.KindTrack)
	if !ok {
		s.markExhausted(pool.KindTrack)
		return false
	}
	s.markRecovered(pool.KindTrack)

	seg := s.segs.push()
	*seg = Segment{Handle: h, StartZ: z, Length: s.cfg.SegmentLength}

	if spec, ok := s.policy.Decide(seg.Length, s.rng); ok {
		if hh, ok := s.pools.Acquire(spec.Variant); ok {
			s.markRecovered(spec.Variant)
			seg.hazard = Hazard{
				Handle:  hh,
				Lane:    spec.Lane,
				Offset:  spec.Offset,
				Variant: spec.Variant,
				Segment: h.ID,
			}
			seg.hasHazard = true
		} else {
			// The segment still spawns, just without its hazard.
			s.markExhausted(spec.Variant)
		}
	}
	s.place(seg)
	s.spawned++
	return true
}

// recycle releases seg's hazard (if any) and then seg's own handle.
func (s *Streamer) recycle(seg *Segment) {
	if seg.hasHazard {
		s.pools.Release(seg.hazard.Handle)
	}
	s.pools.Release(seg.Handle)
	s.retired++
}

// place writes world transforms. A hazard's world position is the segment
// position plus its lane/offset, composed here rather than by parenting.
func (s *Streamer) place(seg *Segment) {
	seg.Handle.Transform.Position = pool.Vec3{Y: s.cfg.SegmentY, Z: seg.StartZ}
	seg.Handle.Transform.Rotation = pool.Vec3{}
	if !seg.hasHazard {
		return
	}
	hz := &seg.hazard
	hz.Handle.Transform.Position = seg.Handle.Transform.Position.Add(pool.Vec3{
		X: float64(hz.Lane) * s.cfg.LaneWidth,
		Y: s.cfg.HazardYOffset[hz.Variant],
		Z: hz.Offset,
	})
	hz.Handle.Transform.Rotation = pool.Vec3{}
}

func (s *Streamer) markExhausted(kind pool.Kind) {
	if s.exhausted[kind] {
		return
	}
	s.exhausted[kind] = true
	capacity := 0
	if p := s.pools.Pool(kind); p != nil {
		capacity = p.Capacity()
	}
	s.log.Warn("pool exhausted, spawn skipped",
		zap.Uint16("kind", uint16(kind)),
		zap.Int("capacity", capacity),
		zap.Error(pool.ErrExhausted),
	)
	event.Emit(s.bus, event.PoolExhausted{Kind: kind, Capacity: capacity})
}

func (s *Streamer) markRecovered(kind pool.Kind) {
	if !s.exhausted[kind] {
		return
	}
	s.exhausted[kind] = false
	s.log.Info("pool recovered", zap.Uint16("kind", uint16(kind)))
	event.Emit(s.bus, event.PoolRecovered{Kind: kind})
}
