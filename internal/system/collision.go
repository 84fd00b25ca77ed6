package system

import (
	"math"
	"time"

	"github.com/lanerunner/lanerunner/internal/core/pool"
	coresys "github.com/lanerunner/lanerunner/internal/core/system"
	"github.com/lanerunner/lanerunner/internal/data"
	"github.com/lanerunner/lanerunner/internal/world"
	"go.uber.org/zap"
)

// WorldReader exposes the per-tick world snapshot.
type WorldReader interface {
	Snapshot(dst *world.Snapshot)
}

// FaultSink receives collision reports.
type FaultSink interface {
	ReportFault()
}

// Positioner reports the player's world position.
type Positioner interface {
	Position() pool.Vec3
}

// CollisionSystem tests the player's footprint against every active hazard
// on the X/Z plane and reports the first overlap. Phase 4 (Physics), so it
// sees the layout the stream phase just produced.
type CollisionSystem struct {
	world    WorldReader
	faults   FaultSink
	player   Positioner
	catalog  *data.HazardCatalog
	halfW    float64
	halfD    float64
	snapshot world.Snapshot
	log      *zap.Logger
}

func NewCollisionSystem(w WorldReader, faults FaultSink, player Positioner, catalog *data.HazardCatalog, playerWidth, playerDepth float64, log *zap.Logger) *CollisionSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &CollisionSystem{
		world:   w,
		faults:  faults,
		player:  player,
		catalog: catalog,
		halfW:   playerWidth / 2,
		halfD:   playerDepth / 2,
		log:     log,
	}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *CollisionSystem) Update(_ time.Duration) {
	s.world.Snapshot(&s.snapshot)
	p := s.player.Position()
	for i := range s.snapshot.Hazards {
		hz := &s.snapshot.Hazards[i]
		v := s.catalog.Get(hz.Variant)
		if v == nil {
			continue
		}
		at := hz.Transform.Position
		if overlap(p.X, s.halfW, at.X, v.Width/2) && overlap(p.Z, s.halfD, at.Z, v.Depth/2) {
			s.log.Debug("player hit hazard",
				zap.String("hazard", v.Name),
				zap.Stringer("id", hz.ID),
				zap.Int("lane", hz.Lane),
			)
			s.faults.ReportFault()
			return
		}
	}
}

// overlap reports whether two centered intervals intersect. Touching edges
// do not count.
func overlap(a, halfA, b, halfB float64) bool {
	return math.Abs(a-b) < halfA+halfB
}
