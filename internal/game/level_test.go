package game

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestGenerateLevelStandardViewport(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	lvl := GenerateLevel(vp, DefaultTuning(), NewRand(1))

	if lvl.Start != NewVec2(40, 40) {
		t.Errorf("start = %+v, want (40, 40)", lvl.Start)
	}
	if lvl.Target.Position != NewVec2(750, 550) {
		t.Errorf("target = %+v, want (750, 550)", lvl.Target.Position)
	}
	if lvl.Target.Radius != TargetRadius {
		t.Errorf("target radius = %v, want %v", lvl.Target.Radius, TargetRadius)
	}
	if lvl.RequestedHoles != 32 {
		t.Errorf("requested holes = %d, want 32", lvl.RequestedHoles)
	}
	if len(lvl.Holes) > 32 {
		t.Errorf("placed %d holes, more than requested", len(lvl.Holes))
	}
	if len(lvl.Walls) != 5 {
		t.Errorf("walls = %d, want 5", len(lvl.Walls))
	}
	if lvl.Attempts > HoleMaxAttempts {
		t.Errorf("attempts = %d, exceeds %d", lvl.Attempts, HoleMaxAttempts)
	}
}

func TestGenerateLevelHoleSpacing(t *testing.T) {
	tuning := DefaultTuning()
	for seed := uint64(1); seed <= 50; seed++ {
		lvl := GenerateLevel(Viewport{Width: 1024, Height: 768}, tuning, NewRand(seed))

		for i, h := range lvl.Holes {
			if d := h.Position.Distance(lvl.Start); d <= HoleClearance {
				t.Errorf("seed %d: hole %d is %.1f from start", seed, i, d)
			}
			if d := h.Position.Distance(lvl.Target.Position); d <= HoleClearance {
				t.Errorf("seed %d: hole %d is %.1f from target", seed, i, d)
			}
			if h.Radius < HoleMinRadius || h.Radius > HoleMinRadius+HoleRadiusSpread {
				t.Errorf("seed %d: hole %d radius %.1f out of range", seed, i, h.Radius)
			}
			// Each hole keeps its distance from every hole placed before it.
			for j := 0; j < i; j++ {
				prev := lvl.Holes[j]
				if d := h.Position.Distance(prev.Position); d < prev.Radius*HoleSpacingFactor {
					t.Errorf("seed %d: holes %d and %d are %.1f apart", seed, j, i, d)
				}
			}
		}
	}
}

func TestGenerateLevelWallsStayOnScreen(t *testing.T) {
	tuning := DefaultTuning()
	viewports := []Viewport{
		{Width: 800, Height: 600},
		{Width: 375, Height: 667},
		{Width: 1920, Height: 1080},
	}
	for _, vp := range viewports {
		for seed := uint64(1); seed <= 20; seed++ {
			lvl := GenerateLevel(vp, tuning, NewRand(seed))
			for i, w := range lvl.Walls {
				if w.X < 0 || w.Y < 0 || w.X+w.W > vp.Width || w.Y+w.H > vp.Height {
					t.Errorf("%vx%v seed %d: wall %d %+v leaves the viewport", vp.Width, vp.Height, seed, i, w)
				}
				long, short := w.W, w.H
				if !w.Horizontal() {
					long, short = w.H, w.W
				}
				if short != WallThickness || long < WallMinLength || long > WallMinLength+WallLengthSpread {
					t.Errorf("wall %d has unexpected size %vx%v", i, w.W, w.H)
				}
			}
		}
	}
}

func TestGenerateLevelTinyViewport(t *testing.T) {
	lvl := GenerateLevel(Viewport{Width: 60, Height: 40}, DefaultTuning(), NewRand(7))
	if lvl.RequestedHoles != 0 || len(lvl.Holes) != 0 {
		t.Errorf("holes = %d/%d, want none", len(lvl.Holes), lvl.RequestedHoles)
	}
	if len(lvl.Walls) != 0 {
		t.Errorf("walls = %d, want none", len(lvl.Walls))
	}
}

func TestGenerateLevelNarrowViewportClampsWalls(t *testing.T) {
	lvl := GenerateLevel(Viewport{Width: 160, Height: 90}, DefaultTuning(), NewRand(3))
	if len(lvl.Walls) != 1 {
		t.Fatalf("walls = %d, want 1", len(lvl.Walls))
	}
	if w := lvl.Walls[0]; w.X < 0 || w.Y < 0 {
		t.Errorf("wall %+v starts off screen", w)
	}
}

func TestGenerateLevelDeterministicBySeed(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	a := GenerateLevel(vp, DefaultTuning(), NewRand(42))
	b := GenerateLevel(vp, DefaultTuning(), NewRand(42))
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different levels")
	}

	c := GenerateLevel(vp, DefaultTuning(), NewRand(43))
	if reflect.DeepEqual(a.Holes, c.Holes) {
		t.Error("different seeds produced identical holes")
	}
}

func TestGenerateLevelShortPlacement(t *testing.T) {
	tuning := DefaultTuning()
	tuning.Level.HoleMaxAttempts = 3

	lvl := GenerateLevel(Viewport{Width: 800, Height: 600}, tuning, NewRand(9))
	if lvl.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", lvl.Attempts)
	}
	if len(lvl.Holes) > 3 {
		t.Errorf("placed %d holes with 3 attempts", len(lvl.Holes))
	}
}

func TestViewportValidate(t *testing.T) {
	lt := DefaultTuning().Level
	bad := []Viewport{
		{0, 600},
		{800, 0},
		{-1, -1},
		{math.NaN(), 600},
		{math.Inf(1), 600},
		{800, math.Inf(-1)},
		{1e12, 1e12},
		{lt.MaxViewportWidth + 1, 600},
		{800, lt.MaxViewportHeight + 1},
	}
	for _, vp := range bad {
		if err := vp.Validate(lt); !errors.Is(err, ErrInvalidViewport) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidViewport", vp, err)
		}
	}
	for _, vp := range []Viewport{{1, 1}, {lt.MaxViewportWidth, lt.MaxViewportHeight}} {
		if err := vp.Validate(lt); err != nil {
			t.Errorf("Validate(%+v): unexpected error: %v", vp, err)
		}
	}
}

func TestGenerateLevelLargestViewportIsBounded(t *testing.T) {
	tuning := DefaultTuning()
	vp := Viewport{Width: tuning.Level.MaxViewportWidth, Height: tuning.Level.MaxViewportHeight}

	lvl := GenerateLevel(vp, tuning, NewRand(5))
	if cap(lvl.Holes) > tuning.Level.HoleMaxAttempts {
		t.Errorf("hole capacity = %d, want at most %d", cap(lvl.Holes), tuning.Level.HoleMaxAttempts)
	}
	if len(lvl.Walls) != WallCount(vp, tuning.Level) {
		t.Errorf("walls = %d, want %d", len(lvl.Walls), WallCount(vp, tuning.Level))
	}
}
