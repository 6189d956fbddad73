// Package input turns device orientation readings and virtual joystick
// drags into the single tilt vector the physics engine reads.
package input

import "sync/atomic"

// Kind names an input strategy.
type Kind string

const (
	KindNone        Kind = ""
	KindOrientation Kind = "orientation"
	KindJoystick    Kind = "joystick"
)

// Tilt is the normalized acceleration input.
type Tilt struct {
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
}

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Strategy produces the current tilt vector.
type Strategy interface {
	Kind() Kind
	Tilt() Tilt
}

// tiltCell is a last-write-wins holder shared by one producer and the frame loop.
type tiltCell struct {
	v atomic.Pointer[Tilt]
}

func (c *tiltCell) load() Tilt {
	if t := c.v.Load(); t != nil {
		return *t
	}
	return Tilt{}
}

func (c *tiltCell) store(t Tilt) {
	c.v.Store(&t)
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
