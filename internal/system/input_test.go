package system

import (
	"errors"
	"testing"
	"time"

	"github.com/lanerunner/lanerunner/internal/game"
	"github.com/stretchr/testify/assert"
)

type fakeRun struct {
	state  game.State
	starts int
	err    error
}

func (r *fakeRun) State() game.State { return r.state }
func (r *fakeRun) Start() error {
	r.starts++
	if r.err != nil {
		return r.err
	}
	r.state = game.Running
	return nil
}

type fakeLanes struct{ moves []int }

func (l *fakeLanes) ChangeLane(dir int) { l.moves = append(l.moves, dir) }

func TestInputSystem(t *testing.T) {
	t.Run("lane changes while running", func(t *testing.T) {
		cmds := make(chan Command, 8)
		run := &fakeRun{state: game.Running}
		lanes := &fakeLanes{}
		s := NewInputSystem(cmds, run, lanes, nil, 8, nil)

		cmds <- CmdLeft
		cmds <- CmdRight
		cmds <- CmdRight
		cmds <- CmdRestart
		s.Update(time.Millisecond)

		assert.Equal(t, []int{-1, 1, 1}, lanes.moves)
		assert.Zero(t, run.starts)
	})

	t.Run("restart only when stopped", func(t *testing.T) {
		cmds := make(chan Command, 8)
		run := &fakeRun{state: game.Faulted}
		lanes := &fakeLanes{}
		s := NewInputSystem(cmds, run, lanes, nil, 8, nil)

		cmds <- CmdLeft
		cmds <- CmdRestart
		cmds <- CmdLeft
		s.Update(time.Millisecond)

		assert.Equal(t, 1, run.starts)
		assert.Equal(t, []int{-1}, lanes.moves)
	})

	t.Run("failed restart is logged and dropped", func(t *testing.T) {
		cmds := make(chan Command, 1)
		run := &fakeRun{state: game.NotStarted, err: errors.New("nope")}
		s := NewInputSystem(cmds, run, &fakeLanes{}, nil, 8, nil)
		cmds <- CmdRestart
		assert.NotPanics(t, func() { s.Update(time.Millisecond) })
		assert.Equal(t, game.NotStarted, run.state)
	})

	t.Run("bounded per tick", func(t *testing.T) {
		cmds := make(chan Command, 8)
		lanes := &fakeLanes{}
		s := NewInputSystem(cmds, &fakeRun{state: game.Running}, lanes, nil, 2, nil)
		for i := 0; i < 5; i++ {
			cmds <- CmdRight
		}
		s.Update(time.Millisecond)
		assert.Len(t, lanes.moves, 2)
		assert.Len(t, cmds, 3)
	})

	t.Run("quit", func(t *testing.T) {
		cmds := make(chan Command, 1)
		quit := 0
		s := NewInputSystem(cmds, &fakeRun{}, &fakeLanes{}, func() { quit++ }, 8, nil)
		cmds <- CmdQuit
		s.Update(time.Millisecond)
		assert.Equal(t, 1, quit)
	})
}

type fakeMover struct{ got []time.Duration }

func (m *fakeMover) Move(dt time.Duration) { m.got = append(m.got, dt) }

func TestAvatarSystemClampsStep(t *testing.T) {
	m := &fakeMover{}
	s := NewAvatarSystem(m, 100*time.Millisecond)
	s.Update(16 * time.Millisecond)
	s.Update(time.Second)
	s.Update(-time.Second)
	assert.Equal(t, []time.Duration{16 * time.Millisecond, 100 * time.Millisecond, 0}, m.got)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "restart", CmdRestart.String())
	assert.Equal(t, "none", Command(99).String())
}
