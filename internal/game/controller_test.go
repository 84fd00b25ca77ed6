package game

import (
	"errors"
	"testing"
	"time"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/event"
	"github.com/lanerunner/lanerunner/internal/core/pool"
	coresys "github.com/lanerunner/lanerunner/internal/core/system"
	"github.com/lanerunner/lanerunner/internal/placement"
	"github.com/lanerunner/lanerunner/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	z      float64
	resets int
}

func (p *fakePlayer) PlayerZ() float64 { return p.z }
func (p *fakePlayer) Reset()           { p.resets++ }

type countingSystem struct {
	phase coresys.Phase
	n     int
	fn    func()
}

func (s *countingSystem) Phase() coresys.Phase { return s.phase }
func (s *countingSystem) Update(time.Duration) {
	s.n++
	if s.fn != nil {
		s.fn()
	}
}

func newController(t *testing.T, cfg Config, chance float64) (*Controller, *fakePlayer, *event.Bus, *pool.Set) {
	t.Helper()
	set := pool.NewSet()
	tp, err := pool.New(pool.KindTrack, 10, pool.Options{Strict: true})
	require.NoError(t, err)
	require.NoError(t, set.Add(tp))
	hp, err := pool.New(1, 15, pool.Options{Strict: true})
	require.NoError(t, err)
	require.NoError(t, set.Add(hp))

	bus := event.NewBus()
	s, err := world.NewStreamer(world.StreamerConfig{
		SegmentLength:   50,
		VisibleSegments: 7,
		LaneWidth:       2,
		MaxStep:         100 * time.Millisecond,
		Seed:            11,
	}, set, placement.Policy{LaneCount: 3, SpawnChance: chance, Variants: []pool.Kind{1}}, bus, nil)
	require.NoError(t, err)

	player := &fakePlayer{}
	c, err := NewController(cfg, s, player, bus, nil, nil)
	require.NoError(t, err)
	return c, player, bus, set
}

func startZs(c *Controller) []float64 {
	var snap world.Snapshot
	c.Snapshot(&snap)
	zs := make([]float64, 0, len(snap.Segments))
	for _, s := range snap.Segments {
		zs = append(zs, s.StartZ)
	}
	return zs
}

func TestStartFillsTrack(t *testing.T) {
	c, player, _, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0.5)
	assert.Equal(t, NotStarted, c.State())

	require.NoError(t, c.Start())
	assert.Equal(t, Running, c.State())
	assert.Equal(t, 1, player.resets)
	assert.Equal(t, []float64{0, 50, 100, 150, 200, 250, 300}, startZs(c))
	assert.Equal(t, 100.0, c.Run().AdvanceRate)

	err := c.Start()
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, 1, player.resets)
}

func TestTickAdvancesAndScores(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0)
	require.NoError(t, c.Start())

	for i := 0; i < 5; i++ {
		c.Tick(100 * time.Millisecond)
	}
	assert.Equal(t, []float64{-50, 0, 50, 100, 150, 200, 250}, startZs(c))
	assert.InDelta(t, 50.0, c.Score(), 1e-9)
	assert.Equal(t, int64(50), c.FinalScore())
	assert.InDelta(t, 50.0, c.Run().Distance, 1e-9)
	assert.Equal(t, uint64(5), c.Run().Ticks)
}

func TestScoreUsesClampedStep(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 10, ScoreMultiplier: 2}, 0)
	require.NoError(t, c.Start())

	c.Tick(5 * time.Second)
	assert.InDelta(t, 2.0, c.Score(), 1e-9)
	assert.InDelta(t, 1.0, c.Run().Distance, 1e-9)

	c.Tick(-time.Second)
	assert.InDelta(t, 2.0, c.Score(), 1e-9)
}

func TestTickBeforeStartIsNoop(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0.5)
	c.Tick(100 * time.Millisecond)
	assert.Equal(t, 0, c.Streamer().Len())
	assert.Zero(t, c.Score())
}

func TestReportFault(t *testing.T) {
	t.Run("freezes the world", func(t *testing.T) {
		c, _, _, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0.5)
		require.NoError(t, c.Start())
		c.Tick(100 * time.Millisecond)

		c.ReportFault()
		assert.Equal(t, Faulted, c.State())
		assert.True(t, c.Run().Faulted)
		before := startZs(c)
		score := c.Score()

		for i := 0; i < 10; i++ {
			c.Tick(100 * time.Millisecond)
		}
		assert.Equal(t, before, startZs(c))
		assert.Equal(t, score, c.Score())
		assert.Equal(t, 100.0, c.Run().AdvanceRate)
	})

	t.Run("second fault is ignored", func(t *testing.T) {
		c, _, bus, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0.5)
		var ended []RunEnded
		event.Subscribe(bus, func(e RunEnded) { ended = append(ended, e) })

		require.NoError(t, c.Start())
		c.ReportFault()
		c.ReportFault()
		c.Tick(time.Millisecond)
		assert.Len(t, ended, 1)
		assert.Equal(t, Faulted, c.State())
	})

	t.Run("before start is a no-op outside strict mode", func(t *testing.T) {
		c, _, bus, _ := newController(t, Config{AdvanceRate: 100}, 0.5)
		c.ReportFault()
		assert.Equal(t, NotStarted, c.State())
		assert.Zero(t, bus.Pending())
	})

	t.Run("before start panics in strict mode", func(t *testing.T) {
		c, _, _, _ := newController(t, Config{AdvanceRate: 100, Strict: true}, 0.5)
		assert.Panics(t, c.ReportFault)
	})
}

func TestRestartAfterFault(t *testing.T) {
	c, player, _, set := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0.5)
	require.NoError(t, c.Start())
	for i := 0; i < 40; i++ {
		c.Tick(100 * time.Millisecond)
	}
	c.ReportFault()
	require.NoError(t, c.SetAdvanceRate(3))
	c.AddScore(10)
	score := c.Score()

	require.NoError(t, c.Start())
	assert.Equal(t, Running, c.State())
	assert.Equal(t, 2, c.Run().Attempt)
	assert.Equal(t, 2, player.resets)
	assert.Zero(t, c.Score())
	assert.NotZero(t, score)
	assert.Equal(t, 100.0, c.Run().AdvanceRate)
	assert.Equal(t, []float64{0, 50, 100, 150, 200, 250, 300}, startZs(c))
	assert.Equal(t, 7, set.Pool(pool.KindTrack).Active())
}

func TestEventsArriveNextTick(t *testing.T) {
	c, _, bus, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0)
	var changes []StateChanged
	var started []RunStarted
	var ended []RunEnded
	event.Subscribe(bus, func(e StateChanged) { changes = append(changes, e) })
	event.Subscribe(bus, func(e RunStarted) { started = append(started, e) })
	event.Subscribe(bus, func(e RunEnded) { ended = append(ended, e) })

	require.NoError(t, c.Start())
	assert.Empty(t, changes)

	c.Tick(100 * time.Millisecond)
	assert.Equal(t, []StateChanged{{From: NotStarted, To: Running}}, changes)
	assert.Equal(t, []RunStarted{{Attempt: 1, Seed: 11}}, started)

	c.Tick(100 * time.Millisecond)
	c.ReportFault()
	c.Tick(100 * time.Millisecond)
	require.Len(t, ended, 1)
	assert.Equal(t, StateChanged{From: Running, To: Faulted}, changes[1])
	assert.Equal(t, RunEnded{Attempt: 1, FinalScore: 20, Distance: 20, Ticks: 2, Seed: 11}, ended[0])
}

func TestAddScoreAndRate(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0)
	c.AddScore(5)
	assert.Zero(t, c.Score())

	require.NoError(t, c.Start())
	c.AddScore(2.75)
	assert.Equal(t, 2.75, c.Score())
	assert.Equal(t, int64(2), c.FinalScore())

	err := c.SetAdvanceRate(-1)
	assert.True(t, errors.Is(err, config.ErrInvalid))
	require.NoError(t, c.SetAdvanceRate(0))
	c.Tick(100 * time.Millisecond)
	assert.Equal(t, 2.75, c.Score())
	assert.Equal(t, []float64{0, 50, 100, 150, 200, 250, 300}, startZs(c))
}

func TestCollaboratorsOnlyTickWhileRunning(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0)
	gated := &countingSystem{phase: coresys.PhasePhysics}
	always := &countingSystem{phase: coresys.PhasePersist}
	c.Register(gated)
	c.RegisterAlways(always)

	c.Tick(time.Millisecond)
	require.NoError(t, c.Start())
	c.Tick(time.Millisecond)
	c.Tick(time.Millisecond)
	c.ReportFault()
	c.Tick(time.Millisecond)

	assert.Equal(t, 2, gated.n)
	assert.Equal(t, 4, always.n)
}

func TestFaultStopsLaterPhases(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 100, ScoreMultiplier: 1}, 0)
	physics := &countingSystem{phase: coresys.PhasePhysics}
	physics.fn = c.ReportFault
	persist := &countingSystem{phase: coresys.PhasePersist}
	c.Register(physics)
	c.Register(persist)

	require.NoError(t, c.Start())
	c.Tick(100 * time.Millisecond)
	assert.Equal(t, Faulted, c.State())
	assert.Equal(t, 1, physics.n)
	assert.Zero(t, persist.n)
}

func TestStrictOwnerGoroutine(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 100, Strict: true}, 0)
	require.NoError(t, c.Start())

	done := make(chan any)
	go func() {
		defer func() { done <- recover() }()
		c.Tick(time.Millisecond)
	}()
	assert.NotNil(t, <-done)
}

func TestNewControllerRejectsBadInput(t *testing.T) {
	c, _, _, _ := newController(t, Config{AdvanceRate: 1}, 0)
	player := &fakePlayer{}

	_, err := NewController(Config{AdvanceRate: -1}, c.Streamer(), player, nil, nil, nil)
	assert.True(t, errors.Is(err, config.ErrInvalid))
	_, err = NewController(Config{AdvanceRate: 1}, nil, player, nil, nil, nil)
	assert.True(t, errors.Is(err, config.ErrInvalid))
	_, err = NewController(Config{AdvanceRate: 1}, c.Streamer(), nil, nil, nil, nil)
	assert.True(t, errors.Is(err, config.ErrInvalid))
}
