package game

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidViewport = errors.New("viewport width and height must be positive")

// Viewport is the playable area in viewport units.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate rejects viewports that are empty, not finite, or larger than the
// generator accepts. Hole and wall counts grow with the area.
func (v Viewport) Validate(lt LevelTuning) error {
	if !finite(v.Width) || !finite(v.Height) || v.Width <= 0 || v.Height <= 0 {
		return ErrInvalidViewport
	}
	if v.Width > lt.MaxViewportWidth || v.Height > lt.MaxViewportHeight {
		return fmt.Errorf("%w: %gx%g exceeds %gx%g", ErrInvalidViewport, v.Width, v.Height, lt.MaxViewportWidth, lt.MaxViewportHeight)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Hole swallows the ball when its center comes deep enough.
type Hole struct {
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Wall is an axis-aligned obstacle.
type Wall struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Horizontal reports whether the wall's long axis is horizontal.
func (w Wall) Horizontal() bool { return w.W >= w.H }

// ClosestPoint returns the point of the rectangle nearest to p.
func (w Wall) ClosestPoint(p Vec2) Vec2 {
	return Vec2{
		X: clamp(p.X, w.X, w.X+w.W),
		Y: clamp(p.Y, w.Y, w.Y+w.H),
	}
}

// Contains reports whether p lies strictly inside the rectangle.
func (w Wall) Contains(p Vec2) bool {
	return p.X > w.X && p.X < w.X+w.W && p.Y > w.Y && p.Y < w.Y+w.H
}

// Target is the goal zone.
type Target struct {
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Level is one generated play field.
type Level struct {
	Viewport       Viewport `json:"viewport"`
	Start          Vec2     `json:"start"`
	Target         Target   `json:"target"`
	Holes          []Hole   `json:"holes"`
	Walls          []Wall   `json:"walls"`
	RequestedHoles int      `json:"requested_holes"`
	Attempts       int      `json:"attempts"`
}

// RandSource is the random stream the generator draws from.
// *rand.Rand from golang.org/x/exp/rand satisfies it.
type RandSource interface {
	Float64() float64
}

// HoleCount is the number of holes requested for a viewport.
func HoleCount(vp Viewport, lt LevelTuning) int {
	return int(math.Floor(vp.Width * vp.Height / lt.HoleAreaPerHole))
}

// WallCount is the number of walls placed for a viewport.
func WallCount(vp Viewport, lt LevelTuning) int {
	return int(math.Floor(vp.Width / lt.WallWidthPerWall))
}

// GenerateLevel lays out start, target, holes and walls for the viewport.
// Hole placement is a bounded search; running out of attempts yields fewer
// holes than requested, which is not an error.
func GenerateLevel(vp Viewport, t Tuning, rng RandSource) Level {
	lt := t.Level
	lvl := Level{
		Viewport: vp,
		Start:    NewVec2(lt.StartX, lt.StartY),
		Target: Target{
			Position: NewVec2(vp.Width-lt.TargetInsetX, vp.Height-lt.TargetInsetY),
			Radius:   t.TargetRadius,
		},
		RequestedHoles: HoleCount(vp, lt),
	}

	lvl.Holes, lvl.Attempts = placeHoles(lvl, lt, rng)
	lvl.Walls = placeWalls(vp, lt, rng)
	return lvl
}

func placeHoles(lvl Level, lt LevelTuning, rng RandSource) ([]Hole, int) {
	vp := lvl.Viewport
	// Never more holes than attempts.
	holes := make([]Hole, 0, max(min(lvl.RequestedHoles, lt.HoleMaxAttempts), 0))
	spanX := math.Max(0, vp.Width-2*lt.HoleEdgeMargin)
	spanY := math.Max(0, vp.Height-2*lt.HoleEdgeMargin)

	attempts := 0
	for len(holes) < lvl.RequestedHoles && attempts < lt.HoleMaxAttempts {
		attempts++
		c := NewVec2(lt.HoleEdgeMargin+rng.Float64()*spanX, lt.HoleEdgeMargin+rng.Float64()*spanY)

		if c.Distance(lvl.Start) <= lt.HoleClearance || c.Distance(lvl.Target.Position) <= lt.HoleClearance {
			continue
		}
		if overlapsAny(c, holes, lt.HoleSpacingFactor) {
			continue
		}

		holes = append(holes, Hole{Position: c, Radius: lt.HoleMinRadius + rng.Float64()*lt.HoleRadiusSpread})
	}
	return holes, attempts
}

// overlapsAny reports whether c is closer to an accepted hole than
// factor times that hole's radius.
func overlapsAny(c Vec2, holes []Hole, factor float64) bool {
	for _, h := range holes {
		if c.Distance(h.Position) < h.Radius*factor {
			return true
		}
	}
	return false
}

func placeWalls(vp Viewport, lt LevelTuning, rng RandSource) []Wall {
	n := WallCount(vp, lt)
	walls := make([]Wall, 0, max(n, 0))
	for i := 0; i < n; i++ {
		var w, h float64
		if rng.Float64() > 0.5 {
			w, h = lt.WallMinLength+rng.Float64()*lt.WallLengthSpread, lt.WallThickness
		} else {
			w, h = lt.WallThickness, lt.WallMinLength+rng.Float64()*lt.WallLengthSpread
		}

		x := lt.WallMargin + rng.Float64()*math.Max(0, vp.Width-w-2*lt.WallMargin)
		y := lt.WallMargin + rng.Float64()*math.Max(0, vp.Height-h-2*lt.WallMargin)

		// Viewports smaller than the margins still keep the wall on screen.
		x = clamp(x, 0, math.Max(0, vp.Width-w))
		y = clamp(y, 0, math.Max(0, vp.Height-h))

		walls = append(walls, Wall{X: x, Y: y, W: w, H: h})
	}
	return walls
}
