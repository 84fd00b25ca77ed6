package system

import (
	"time"

	coresys "github.com/lanerunner/lanerunner/internal/core/system"
)

// Mover eases the player toward its target lane.
type Mover interface {
	Move(dt time.Duration)
}

// AvatarSystem moves the player sideways each tick. Phase 1 (Input), after
// the InputSystem so a lane change starts moving on the same tick.
type AvatarSystem struct {
	player  Mover
	maxStep time.Duration
}

func NewAvatarSystem(player Mover, maxStep time.Duration) *AvatarSystem {
	return &AvatarSystem{player: player, maxStep: maxStep}
}

func (s *AvatarSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *AvatarSystem) Update(dt time.Duration) {
	s.player.Move(min(max(dt, 0), s.maxStep))
}
