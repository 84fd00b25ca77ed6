package game

import (
	"time"

	"github.com/lanerunner/lanerunner/internal/core/event"
	coresys "github.com/lanerunner/lanerunner/internal/core/system"
)

// runningGate skips the wrapped system unless a run is in progress. The
// state is read when the system's turn comes, so a fault raised earlier in
// the tick stops later phases.
type runningGate struct {
	coresys.System
	c *Controller
}

func (c *Controller) whileRunning(s coresys.System) coresys.System {
	return runningGate{System: s, c: c}
}

func (g runningGate) Update(dt time.Duration) {
	if g.c.run.State == Running {
		g.System.Update(dt)
	}
}

// eventSystem delivers the previous tick's events.
type eventSystem struct {
	bus *event.Bus
}

func (s *eventSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *eventSystem) Update(time.Duration) {
	if s.bus != nil {
		s.bus.Flush()
	}
}

// streamSystem drives the Streamer's advance → retire → extend.
type streamSystem struct {
	c *Controller
}

func (s *streamSystem) Phase() coresys.Phase { return coresys.PhaseStream }

func (s *streamSystem) Update(dt time.Duration) {
	run := &s.c.run
	s.c.streamer.Step(s.c.player.PlayerZ(), run.AdvanceRate, dt)
	run.Distance += run.AdvanceRate * s.c.step
	run.Ticks++
}

// scoreSystem accumulates score from the same clamped step the world used.
type scoreSystem struct {
	c *Controller
}

func (s *scoreSystem) Phase() coresys.Phase { return coresys.PhaseScore }

func (s *scoreSystem) Update(time.Duration) {
	run := &s.c.run
	run.Score += s.c.rule.ScoreDelta(run.AdvanceRate, s.c.cfg.ScoreMultiplier, s.c.step)
}
