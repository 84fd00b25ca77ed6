// Package view draws the run top-down in a terminal and turns key presses
// into commands. The far end of the track is at the top of the screen.
package view

import (
	"math"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/lanerunner/lanerunner/internal/core/pool"
	"github.com/lanerunner/lanerunner/internal/data"
	"github.com/lanerunner/lanerunner/internal/game"
	"github.com/lanerunner/lanerunner/internal/placement"
	"github.com/lanerunner/lanerunner/internal/world"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const colsPerLane = 4

var (
	styleTrack  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSeam   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleHazard = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleNotice = tcell.StyleDefault.Foreground(tcell.ColorAqua)
)

// Source is what the renderer reads each frame.
type Source interface {
	Snapshot(dst *world.Snapshot)
	Run() game.RunState
	FinalScore() int64
}

// Renderer owns the screen on the game-loop side.
type Renderer struct {
	screen    tcell.Screen
	catalog   *data.HazardCatalog
	printer   *message.Printer
	laneWidth float64
	maxLane   int
	zPerRow   float64
	snap      world.Snapshot
}

// NewRenderer draws laneCount lanes of laneWidth world units each; every
// screen row covers zPerRow units of track.
func NewRenderer(screen tcell.Screen, catalog *data.HazardCatalog, laneCount int, laneWidth, zPerRow float64) *Renderer {
	if laneWidth <= 0 {
		laneWidth = 1
	}
	if zPerRow <= 0 {
		zPerRow = 1
	}
	return &Renderer{
		screen:    screen,
		catalog:   catalog,
		printer:   message.NewPrinter(language.English),
		laneWidth: laneWidth,
		maxLane:   placement.MaxLane(laneCount),
		zPerRow:   zPerRow,
	}
}

// Draw renders one frame around the player's position.
func (r *Renderer) Draw(src Source, player pool.Vec3) {
	r.screen.Clear()
	src.Snapshot(&r.snap)
	w, h := r.screen.Size()
	cx := w / 2
	playerRow := h - 3
	edge := int(math.Round((float64(r.maxLane) + 0.5) * colsPerLane))

	rowOf := func(z float64) int {
		return playerRow - int(math.Round((z-player.Z)/r.zPerRow))
	}
	colOf := func(x float64) int {
		return cx + int(math.Round(x/r.laneWidth*colsPerLane))
	}

	for _, seg := range r.snap.Segments {
		top, bottom := rowOf(seg.StartZ+seg.Length), rowOf(seg.StartZ)
		for y := max(top+1, 1); y <= min(bottom, h-1); y++ {
			r.screen.SetContent(cx-edge, y, '|', nil, styleTrack)
			r.screen.SetContent(cx+edge, y, '|', nil, styleTrack)
		}
		if bottom >= 1 && bottom < h {
			for x := cx - edge + 1; x < cx+edge; x++ {
				r.screen.SetContent(x, bottom, '.', nil, styleSeam)
			}
		}
	}

	for _, hz := range r.snap.Hazards {
		y := rowOf(hz.Transform.Position.Z)
		if y < 1 || y >= h {
			continue
		}
		r.screen.SetContent(colOf(hz.Transform.Position.X), y, r.glyph(hz.Variant), nil, styleHazard)
	}

	run := src.Run()
	if playerRow >= 1 {
		glyph := '^'
		if run.State == game.Faulted {
			glyph = 'X'
		}
		r.screen.SetContent(colOf(player.X), playerRow, glyph, nil, stylePlayer)
	}

	r.drawHUD(src, run, w, h)
	r.screen.Show()
}

func (r *Renderer) drawHUD(src Source, run game.RunState, w, h int) {
	hud := r.printer.Sprintf("score %d  distance %.0f  run %d", src.FinalScore(), run.Distance, run.Attempt)
	r.text(0, 0, hud, styleHUD)

	var notice string
	switch run.State {
	case game.NotStarted:
		notice = "press enter to start"
	case game.Faulted:
		notice = r.printer.Sprintf("crashed at %d, enter to retry", src.FinalScore())
	}
	if notice != "" {
		r.text((w-len(notice))/2, h/2, notice, styleNotice)
	}
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, c := range s {
		r.screen.SetContent(x, y, c, nil, style)
		x++
	}
}

func (r *Renderer) glyph(kind pool.Kind) rune {
	if v := r.catalog.Get(kind); v != nil {
		for _, c := range v.Name {
			return unicode.ToUpper(c)
		}
	}
	return '#'
}
