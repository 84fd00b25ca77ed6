package view

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lanerunner/lanerunner/internal/system"
)

// KeyCommand maps a key press to a command; unbound keys give CmdNone.
func KeyCommand(ev *tcell.EventKey) system.Command {
	switch ev.Key() {
	case tcell.KeyLeft:
		return system.CmdLeft
	case tcell.KeyRight:
		return system.CmdRight
	case tcell.KeyEnter:
		return system.CmdRestart
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return system.CmdQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'a', 'h':
			return system.CmdLeft
		case 'd', 'l':
			return system.CmdRight
		case ' ', 'r':
			return system.CmdRestart
		case 'q':
			return system.CmdQuit
		}
	}
	return system.CmdNone
}

// Poll reads terminal events until the screen is finalized and forwards
// commands without blocking; a full queue drops the key press.
// Run it on its own goroutine.
func Poll(screen tcell.Screen, commands chan<- system.Command) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			cmd := KeyCommand(ev)
			if cmd == system.CmdNone {
				continue
			}
			select {
			case commands <- cmd:
			default:
			}
		}
	}
}
