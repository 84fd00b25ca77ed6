package game

import (
	"fmt"
	"math"
	"time"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/event"
	coresys "github.com/lanerunner/lanerunner/internal/core/system"
	"github.com/lanerunner/lanerunner/internal/world"
	"github.com/petermattis/goid"
	"go.uber.org/zap"
)

// Config is the controller's slice of the run settings.
type Config struct {
	AdvanceRate     float64 // nominal world-advance rate restored by Start
	ScoreMultiplier float64
	Strict          bool
}

func ConfigFrom(r config.RunConfig) Config {
	return Config{
		AdvanceRate:     r.AdvanceRate,
		ScoreMultiplier: r.ScoreMultiplier,
		Strict:          r.Strict,
	}
}

// PlayerTracker supplies the player's longitudinal position each tick. If
// it also has a Reset method, Start calls it before refilling the world.
type PlayerTracker interface {
	PlayerZ() float64
}

type resetter interface {
	Reset()
}

// Controller owns the RunState and is the only caller of the Streamer.
// All methods must be called from the game-loop goroutine.
type Controller struct {
	cfg      Config
	streamer *world.Streamer
	player   PlayerTracker
	bus      *event.Bus
	rule     ScoreRule
	log      *zap.Logger
	runner   *coresys.Runner

	run   RunState
	step  float64 // clamped dt of the tick in progress, seconds
	owner int64
}

// NewController wires the run loop. bus and log may be nil; a nil rule
// scores linearly.
func NewController(cfg Config, streamer *world.Streamer, player PlayerTracker, bus *event.Bus, rule ScoreRule, log *zap.Logger) (*Controller, error) {
	if streamer == nil || player == nil {
		return nil, fmt.Errorf("%w: controller needs a streamer and a player", config.ErrInvalid)
	}
	if !(cfg.AdvanceRate >= 0) || math.IsInf(cfg.AdvanceRate, 0) {
		return nil, fmt.Errorf("%w: advance rate must be >= 0, got %v", config.ErrInvalid, cfg.AdvanceRate)
	}
	if rule == nil {
		rule = LinearScore{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		cfg:      cfg,
		streamer: streamer,
		player:   player,
		bus:      bus,
		rule:     rule,
		log:      log,
		runner:   coresys.NewRunner(),
	}
	c.runner.Register(&eventSystem{bus: bus})
	c.runner.Register(c.whileRunning(&streamSystem{c: c}))
	c.runner.Register(c.whileRunning(&scoreSystem{c: c}))
	return c, nil
}

// Register adds a collaborator that only ticks while a run is in progress.
func (c *Controller) Register(s coresys.System) {
	c.runner.Register(c.whileRunning(s))
}

// RegisterAlways adds a collaborator that ticks in every state.
func (c *Controller) RegisterAlways(s coresys.System) {
	c.runner.Register(s)
}

func (c *Controller) State() State              { return c.run.State }
func (c *Controller) Run() RunState             { return c.run }
func (c *Controller) Score() float64            { return c.run.Score }
func (c *Controller) Streamer() *world.Streamer { return c.streamer }
func (c *Controller) Bus() *event.Bus           { return c.bus }

// FinalScore is the score rounded down to a whole number.
func (c *Controller) FinalScore() int64 {
	return int64(math.Floor(c.run.Score))
}

// Snapshot fills dst with the current world layout.
func (c *Controller) Snapshot(dst *world.Snapshot) {
	c.streamer.Snapshot(dst)
}

// Start begins a new run from NotStarted or Faulted.
func (c *Controller) Start() error {
	c.checkOwner()
	if c.run.State == Running {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, c.run.State)
	}
	from := c.run.State
	if r, ok := c.player.(resetter); ok {
		r.Reset()
	}
	c.run = RunState{
		State:       Running,
		AdvanceRate: c.cfg.AdvanceRate,
		Attempt:     c.run.Attempt + 1,
	}
	c.streamer.ResetWorld(c.player.PlayerZ())

	seed := c.streamer.Config().Seed
	event.Emit(c.bus, StateChanged{From: from, To: Running})
	event.Emit(c.bus, RunStarted{Attempt: c.run.Attempt, Seed: seed})
	c.log.Info("run started",
		zap.Int("attempt", c.run.Attempt),
		zap.Int64("seed", seed),
		zap.Float64("advance_rate", c.run.AdvanceRate),
	)
	return nil
}

// ReportFault stops a running run. Repeated faults are ignored. A fault
// before the first Start is a caller bug: it panics in strict mode and is
// logged and dropped otherwise.
func (c *Controller) ReportFault() {
	c.checkOwner()
	switch c.run.State {
	case Faulted:
		return
	case NotStarted:
		if c.cfg.Strict {
			panic("game: ReportFault called before Start")
		}
		c.log.Warn("fault reported before start, ignored")
		return
	}
	c.run.State = Faulted
	c.run.Faulted = true

	ended := RunEnded{
		Attempt:    c.run.Attempt,
		FinalScore: c.FinalScore(),
		Distance:   c.run.Distance,
		Ticks:      c.run.Ticks,
		Seed:       c.streamer.Config().Seed,
	}
	event.Emit(c.bus, StateChanged{From: Running, To: Faulted})
	event.Emit(c.bus, ended)
	c.log.Info("run ended",
		zap.Int("attempt", ended.Attempt),
		zap.Int64("score", ended.FinalScore),
		zap.Float64("distance", ended.Distance),
		zap.Uint64("ticks", ended.Ticks),
	)
}

// AddScore adds a bonus to the running score.
func (c *Controller) AddScore(amount float64) {
	c.checkOwner()
	if c.run.State != Running || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}
	c.run.Score += amount
}

// SetAdvanceRate changes the world speed of the current run. Start
// restores the configured nominal rate.
func (c *Controller) SetAdvanceRate(rate float64) error {
	c.checkOwner()
	if !(rate >= 0) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: advance rate must be >= 0, got %v", config.ErrInvalid, rate)
	}
	if c.run.State == Running {
		c.run.AdvanceRate = rate
	}
	return nil
}

// Tick runs one frame. Last tick's events are always delivered; streaming
// and scoring only happen while Running.
func (c *Controller) Tick(dt time.Duration) {
	c.checkOwner()
	c.step = c.streamer.ClampStep(dt)
	c.runner.Tick(dt)
}

func (c *Controller) checkOwner() {
	if !c.cfg.Strict {
		return
	}
	gid := goid.Get()
	if c.owner == 0 {
		c.owner = gid
		return
	}
	if gid != c.owner {
		panic(fmt.Sprintf("game: controller used from goroutine %d, owned by %d", gid, c.owner))
	}
}
