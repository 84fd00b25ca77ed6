package system

import (
	"time"

	coresys "github.com/lanerunner/lanerunner/internal/core/system"
	"github.com/lanerunner/lanerunner/internal/game"
	"go.uber.org/zap"
)

// Command is one player intent produced by a front end.
type Command uint8

const (
	CmdNone Command = iota
	CmdLeft
	CmdRight
	CmdRestart
	CmdQuit
)

func (c Command) String() string {
	switch c {
	case CmdLeft:
		return "left"
	case CmdRight:
		return "right"
	case CmdRestart:
		return "restart"
	case CmdQuit:
		return "quit"
	}
	return "none"
}

// RunControl is the part of the run controller the input system drives.
type RunControl interface {
	State() game.State
	Start() error
}

// LaneChanger moves the player between lanes.
type LaneChanger interface {
	ChangeLane(dir int)
}

// InputSystem drains the command queue filled by the front end and applies
// each command. Lane changes only apply while running; restart only while
// not. Phase 1 (Input), registered to tick in every state.
type InputSystem struct {
	commands   <-chan Command
	run        RunControl
	player     LaneChanger
	onQuit     func()
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(commands <-chan Command, run RunControl, player LaneChanger, onQuit func(), maxPerTick int, log *zap.Logger) *InputSystem {
	if log == nil {
		log = zap.NewNop()
	}
	if onQuit == nil {
		onQuit = func() {}
	}
	return &InputSystem{
		commands:   commands,
		run:        run,
		player:     player,
		onQuit:     onQuit,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case cmd := <-s.commands:
			s.apply(cmd)
		default:
			return
		}
	}
}

func (s *InputSystem) apply(cmd Command) {
	running := s.run.State() == game.Running
	switch cmd {
	case CmdLeft:
		if running {
			s.player.ChangeLane(-1)
		}
	case CmdRight:
		if running {
			s.player.ChangeLane(1)
		}
	case CmdRestart:
		if running {
			return
		}
		if err := s.run.Start(); err != nil {
			s.log.Warn("restart rejected", zap.Error(err))
		}
	case CmdQuit:
		s.onQuit()
	}
}
