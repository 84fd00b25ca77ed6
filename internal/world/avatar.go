package world

import (
	"time"

	"github.com/lanerunner/lanerunner/internal/core/pool"
	"github.com/lanerunner/lanerunner/internal/placement"
)

// Avatar is the player's lateral state: a lane index clamped to the track
// and an X position easing toward that lane. The world moves past the
// avatar, so Z only changes on Reset.
type Avatar struct {
	maxLane   int
	laneWidth float64
	speed     float64 // lateral units per second
	start     pool.Vec3

	lane    int
	pos     pool.Vec3
	targetX float64
}

func NewAvatar(laneCount int, laneWidth, laneChangeSpeed float64, start pool.Vec3) *Avatar {
	a := &Avatar{
		maxLane:   placement.MaxLane(laneCount),
		laneWidth: laneWidth,
		speed:     laneChangeSpeed,
		start:     start,
	}
	a.Reset()
	return a
}

func (a *Avatar) Lane() int           { return a.lane }
func (a *Avatar) Position() pool.Vec3 { return a.pos }
func (a *Avatar) PlayerZ() float64    { return a.pos.Z }

// Reset puts the avatar back on its spawn position in the center lane.
func (a *Avatar) Reset() {
	a.lane = 0
	a.pos = a.start
	a.targetX = a.start.X
}

// ChangeLane moves one lane left (dir < 0) or right (dir > 0), clamped to
// the outermost lanes.
func (a *Avatar) ChangeLane(dir int) {
	switch {
	case dir < 0:
		a.lane--
	case dir > 0:
		a.lane++
	}
	a.lane = max(-a.maxLane, min(a.maxLane, a.lane))
	a.targetX = float64(a.lane) * a.laneWidth
}

// Move eases X toward the target lane by at most speed*dt.
func (a *Avatar) Move(dt time.Duration) {
	step := a.speed * dt.Seconds()
	switch d := a.targetX - a.pos.X; {
	case d > step:
		a.pos.X += step
	case d < -step:
		a.pos.X -= step
	default:
		a.pos.X = a.targetX
	}
}
