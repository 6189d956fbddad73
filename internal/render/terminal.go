// Package render draws session frames on a character terminal.
package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/tiltmaze/backend/internal/game"
	"github.com/tiltmaze/backend/internal/input"
)

// World units covered by one terminal cell. Cells are roughly twice as tall
// as they are wide.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

const (
	BallRune     = '●'
	TargetRune   = '◎'
	TargetFill   = '·'
	HoleRune     = '░'
	WallRune     = '█'
	PadRune      = '+'
	KnobRune     = '◉'
	StatusHeight = 1
)

var (
	ballStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	targetStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	holeStyle   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	wallStyle   = tcell.StyleDefault.Foreground(tcell.ColorSaddleBrown)
	padStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	wonStyle    = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)
	lostStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed)
)

// Terminal presents frames on a tcell screen. The bottom row is a status
// line; the rest maps onto the session viewport.
type Terminal struct {
	screen tcell.Screen
}

func NewTerminal(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Viewport is the world size matching the current screen.
func (t *Terminal) Viewport() game.Viewport {
	w, h := t.screen.Size()
	rows := h - StatusHeight
	if rows < 1 {
		rows = 1
	}
	if w < 1 {
		w = 1
	}
	return game.Viewport{Width: float64(w) * CellWidth, Height: float64(rows) * CellHeight}
}

// ToWorld returns the world point at the center of a cell.
func (t *Terminal) ToWorld(col, row int) input.Point {
	return input.Point{
		X: (float64(col) + 0.5) * CellWidth,
		Y: (float64(row) + 0.5) * CellHeight,
	}
}

// ToCell returns the cell containing a world point.
func (t *Terminal) ToCell(x, y float64) (int, int) {
	return int(math.Floor(x / CellWidth)), int(math.Floor(y / CellHeight))
}

// Present draws f and shows it.
func (t *Terminal) Present(f game.Frame) {
	t.screen.Clear()

	for _, w := range f.Walls {
		t.fillRect(w, WallRune, wallStyle)
	}
	for _, h := range f.Holes {
		t.fillDisk(h.Position, h.Radius, HoleRune, holeStyle)
	}
	t.fillDisk(f.Target.Position, f.Target.Radius, TargetFill, targetStyle)
	t.put(f.Target.Position.X, f.Target.Position.Y, TargetRune, targetStyle)

	if j := f.Joystick; j != nil {
		t.put(j.Origin.X, j.Origin.Y, PadRune, padStyle)
		t.put(j.Origin.X+j.Knob.X, j.Origin.Y+j.Knob.Y, KnobRune, padStyle)
	}

	t.put(f.Ball.Position.X, f.Ball.Position.Y, BallRune, ballStyle)
	t.drawStatus(f)

	t.screen.Show()
}

// StatusText is the status line for a frame.
func StatusText(f game.Frame) string {
	switch f.Status {
	case game.StatusReady:
		return "READY  [Enter] start  [q] quit"
	case game.StatusPlaying:
		in := string(f.Input)
		if in == "" {
			in = "selecting"
		}
		return fmt.Sprintf("PLAYING  input: %s  [arrows/drag] tilt  [q] quit", in)
	default:
		return fmt.Sprintf("%s  [Enter] %s", f.Message, f.Action)
	}
}

func (t *Terminal) drawStatus(f game.Frame) {
	w, h := t.screen.Size()
	row := h - 1
	style := statusStyle
	switch f.Outcome {
	case game.OutcomeWon:
		style = wonStyle
	case game.OutcomeFellIn:
		style = lostStyle
	}

	text := []rune(StatusText(f))
	for col := 0; col < w; col++ {
		r := ' '
		if col < len(text) {
			r = text[col]
		}
		t.screen.SetContent(col, row, r, nil, style)
	}
}

func (t *Terminal) put(x, y float64, r rune, style tcell.Style) {
	col, row := t.ToCell(x, y)
	if !t.inPlayfield(col, row) {
		return
	}
	t.screen.SetContent(col, row, r, nil, style)
}

func (t *Terminal) fillRect(w game.Wall, r rune, style tcell.Style) {
	c0, r0 := t.ToCell(w.X, w.Y)
	c1, r1 := t.ToCell(w.X+w.W, w.Y+w.H)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if t.inPlayfield(col, row) {
				t.screen.SetContent(col, row, r, nil, style)
			}
		}
	}
}

// fillDisk marks every cell whose center lies within radius of c.
func (t *Terminal) fillDisk(c game.Vec2, radius float64, r rune, style tcell.Style) {
	c0, r0 := t.ToCell(c.X-radius, c.Y-radius)
	c1, r1 := t.ToCell(c.X+radius, c.Y+radius)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			p := t.ToWorld(col, row)
			if math.Hypot(p.X-c.X, p.Y-c.Y) > radius || !t.inPlayfield(col, row) {
				continue
			}
			t.screen.SetContent(col, row, r, nil, style)
		}
	}
}

func (t *Terminal) inPlayfield(col, row int) bool {
	w, h := t.screen.Size()
	return col >= 0 && row >= 0 && col < w && row < h-StatusHeight
}
