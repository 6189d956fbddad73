package game

import (
	"math"
	"time"
)

// Ball is the player-controlled ball.
type Ball struct {
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`
}

// Speed returns the magnitude of the ball's velocity.
func (b Ball) Speed() float64 { return b.Velocity.Magnitude() }

// Collision event types.
const (
	EventBounds = "bounds"
	EventWall   = "wall"
	EventHole   = "hole"
	EventTarget = "target"
)

// CollisionEvent records a collision for presentation (sound, effects).
type CollisionEvent struct {
	Type  string  `json:"type"`
	Index int     `json:"index"` // wall or hole index, edge index for bounds
	Speed float64 `json:"speed"` // impact speed
}

// Viewport edges reported in bounds events.
const (
	EdgeLeft = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// PhysicsEngine advances the ball one frame at a time.
type PhysicsEngine struct {
	Tuning Tuning
	Events []CollisionEvent
}

func NewPhysicsEngine(t Tuning) *PhysicsEngine {
	return &PhysicsEngine{
		Tuning: t,
		Events: make([]CollisionEvent, 0, 4),
	}
}

// FrameDelta converts a wall-clock frame delta into simulation steps
// relative to the 60 updates per second baseline, capped at MaxStepMs.
func FrameDelta(elapsed time.Duration, t Tuning) float64 {
	ms := float64(elapsed) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	if t.MaxStepMs > 0 && ms > t.MaxStepMs {
		ms = t.MaxStepMs
	}
	return ms / t.FrameBaselineMs
}

// Step integrates the ball under the tilt vector for dt steps and resolves
// collisions in a fixed order: bounds, walls, then hole and target checks
// against the corrected position. When a hole and the target both capture
// the ball in the same frame the target wins.
func (pe *PhysicsEngine) Step(ball *Ball, lvl *Level, tilt Vec2, dt float64) Outcome {
	pe.Events = pe.Events[:0]

	pe.integrate(ball, tilt, dt)
	pe.resolveBounds(ball, lvl.Viewport)
	for i := range lvl.Walls {
		if pe.resolveWall(ball, lvl.Walls[i]) {
			pe.Events = append(pe.Events, CollisionEvent{Type: EventWall, Index: i, Speed: ball.Speed()})
		}
	}

	hole := pe.capturingHole(ball, lvl.Holes)
	if ball.Position.Distance(lvl.Target.Position) < lvl.Target.Radius {
		pe.Events = append(pe.Events, CollisionEvent{Type: EventTarget, Index: 0, Speed: ball.Speed()})
		ball.Position = lvl.Target.Position
		return OutcomeWon
	}
	if hole >= 0 {
		pe.Events = append(pe.Events, CollisionEvent{Type: EventHole, Index: hole, Speed: ball.Speed()})
		ball.Position = lvl.Holes[hole].Position
		return OutcomeFellIn
	}
	return OutcomeNone
}

func (pe *PhysicsEngine) integrate(ball *Ball, tilt Vec2, dt float64) {
	ball.Velocity = ball.Velocity.Plus(tilt.Times(dt))
	ball.Velocity = ball.Velocity.Times(pe.Tuning.Damping)
	ball.Position = ball.Position.Plus(ball.Velocity.Times(dt))
}

func (pe *PhysicsEngine) resolveBounds(ball *Ball, vp Viewport) {
	r := ball.Radius
	bounce := pe.Tuning.Restitution

	if ball.Position.X-r < 0 {
		pe.bounds(EdgeLeft, ball.Velocity.X)
		ball.Position.X = r
		ball.Velocity.X *= bounce
	}
	if ball.Position.X+r > vp.Width {
		pe.bounds(EdgeRight, ball.Velocity.X)
		ball.Position.X = vp.Width - r
		ball.Velocity.X *= bounce
	}
	if ball.Position.Y-r < 0 {
		pe.bounds(EdgeTop, ball.Velocity.Y)
		ball.Position.Y = r
		ball.Velocity.Y *= bounce
	}
	if ball.Position.Y+r > vp.Height {
		pe.bounds(EdgeBottom, ball.Velocity.Y)
		ball.Position.Y = vp.Height - r
		ball.Velocity.Y *= bounce
	}
}

func (pe *PhysicsEngine) bounds(edge int, v float64) {
	pe.Events = append(pe.Events, CollisionEvent{Type: EventBounds, Index: edge, Speed: math.Abs(v)})
}

// resolveWall handles circle vs. axis-aligned rectangle. Only the dominant
// axis of the separation is corrected.
func (pe *PhysicsEngine) resolveWall(ball *Ball, w Wall) bool {
	r := ball.Radius
	bounce := pe.Tuning.Restitution

	closest := w.ClosestPoint(ball.Position)
	d := ball.Position.Minus(closest)
	dist := d.Magnitude()
	if dist > r {
		return false
	}
	if dist == 0 {
		pe.pushOutOfWall(ball, w)
		return true
	}

	if math.Abs(d.X) > math.Abs(d.Y) {
		ball.Velocity.X *= bounce
		if ball.Position.X < w.X {
			ball.Position.X = w.X - r
		} else {
			ball.Position.X = w.X + w.W + r
		}
	} else {
		ball.Velocity.Y *= bounce
		if ball.Position.Y < w.Y {
			ball.Position.Y = w.Y - r
		} else {
			ball.Position.Y = w.Y + w.H + r
		}
	}
	return true
}

// pushOutOfWall resolves a center lying on or inside the rectangle, where the
// separation vector is zero, through the side of least penetration.
func (pe *PhysicsEngine) pushOutOfWall(ball *Ball, w Wall) {
	r := ball.Radius
	bounce := pe.Tuning.Restitution
	p := ball.Position

	left := p.X - w.X
	right := w.X + w.W - p.X
	top := p.Y - w.Y
	bottom := w.Y + w.H - p.Y

	switch math.Min(math.Min(left, right), math.Min(top, bottom)) {
	case left:
		ball.Position.X = w.X - r
		ball.Velocity.X *= bounce
	case right:
		ball.Position.X = w.X + w.W + r
		ball.Velocity.X *= bounce
	case top:
		ball.Position.Y = w.Y - r
		ball.Velocity.Y *= bounce
	default:
		ball.Position.Y = w.Y + w.H + r
		ball.Velocity.Y *= bounce
	}
}

// capturingHole returns the index of the hole the ball fell into, or -1.
func (pe *PhysicsEngine) capturingHole(ball *Ball, holes []Hole) int {
	for i, h := range holes {
		if ball.Position.Distance(h.Position) < h.Radius-pe.Tuning.FallInMargin {
			return i
		}
	}
	return -1
}
