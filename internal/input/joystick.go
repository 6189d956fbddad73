package input

import (
	"math"
	"sync"
)

// Source is the device that produced a pointer event.
type Source string

const (
	SourceMouse Source = "mouse"
	SourceTouch Source = "touch"
)

// Phase is the stage of a drag gesture.
type Phase string

const (
	PhaseDown Phase = "down"
	PhaseMove Phase = "move"
	PhaseUp   Phase = "up"
)

// PointerEvent is a raw mouse or touch event in viewport coordinates.
type PointerEvent struct {
	Phase   Phase   `json:"phase"`
	Source  Source  `json:"source"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Touches []Point `json:"touches,omitempty"`
}

// Point returns the coordinates that drive the joystick: the first touch for
// touch events, the event position otherwise.
func (e PointerEvent) Point() (Point, bool) {
	if e.Source == SourceTouch || len(e.Touches) > 0 {
		if len(e.Touches) == 0 {
			return Point{}, false
		}
		return e.Touches[0], true
	}
	return Point{X: e.X, Y: e.Y}, true
}

// Joystick is the on-screen virtual control. The knob offset from the
// control origin, clamped to the radius, drives the tilt vector.
type Joystick struct {
	cfg    Config
	origin Point

	mu       sync.Mutex
	dragging bool
	knob     Point
	tilt     tiltCell
}

func NewJoystick(origin Point, cfg Config) *Joystick {
	return &Joystick{cfg: cfg, origin: origin}
}

func (j *Joystick) Kind() Kind { return KindJoystick }

func (j *Joystick) Tilt() Tilt { return j.tilt.load() }

func (j *Joystick) Origin() Point { return j.origin }

func (j *Joystick) Radius() float64 { return j.cfg.JoystickRadius }

// Knob returns the clamped knob offset from the origin.
func (j *Joystick) Knob() Point {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.knob
}

func (j *Joystick) Dragging() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dragging
}

// Press starts a drag at p.
func (j *Joystick) Press(p Point) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dragging = true
	j.moveLocked(p)
}

// Drag moves the knob; ignored unless a drag is in progress.
func (j *Joystick) Drag(p Point) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.dragging {
		return
	}
	j.moveLocked(p)
}

// Release recenters the knob and zeroes the vector.
func (j *Joystick) Release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dragging = false
	j.knob = Point{}
	j.tilt.store(Tilt{})
}

// Handle routes a pointer event to Press, Drag or Release.
func (j *Joystick) Handle(ev PointerEvent) {
	switch ev.Phase {
	case PhaseUp:
		j.Release()
	case PhaseDown:
		if p, ok := ev.Point(); ok {
			j.Press(p)
		}
	case PhaseMove:
		if p, ok := ev.Point(); ok {
			j.Drag(p)
		}
	}
}

func (j *Joystick) moveLocked(p Point) {
	maxR := j.cfg.JoystickRadius
	dx := p.X - j.origin.X
	dy := p.Y - j.origin.Y

	if dist := math.Hypot(dx, dy); dist > maxR {
		dx = dx / dist * maxR
		dy = dy / dist * maxR
	}

	j.knob = Point{X: dx, Y: dy}
	j.tilt.store(Tilt{
		AX: dx / maxR * j.cfg.JoystickGain,
		AY: dy / maxR * j.cfg.JoystickGain,
	})
}
