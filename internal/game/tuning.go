package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tiltmaze/backend/internal/input"
)

// LevelTuning controls the procedural level generator.
type LevelTuning struct {
	StartX            float64 `toml:"start_x" json:"start_x"`
	StartY            float64 `toml:"start_y" json:"start_y"`
	TargetInsetX      float64 `toml:"target_inset_x" json:"target_inset_x"`
	TargetInsetY      float64 `toml:"target_inset_y" json:"target_inset_y"`
	HoleAreaPerHole   float64 `toml:"hole_area_per_hole" json:"hole_area_per_hole"`
	HoleMaxAttempts   int     `toml:"hole_max_attempts" json:"hole_max_attempts"`
	HoleEdgeMargin    float64 `toml:"hole_edge_margin" json:"hole_edge_margin"`
	HoleMinRadius     float64 `toml:"hole_min_radius" json:"hole_min_radius"`
	HoleRadiusSpread  float64 `toml:"hole_radius_spread" json:"hole_radius_spread"`
	HoleClearance     float64 `toml:"hole_clearance" json:"hole_clearance"`
	HoleSpacingFactor float64 `toml:"hole_spacing_factor" json:"hole_spacing_factor"`
	WallWidthPerWall  float64 `toml:"wall_width_per_wall" json:"wall_width_per_wall"`
	WallMinLength     float64 `toml:"wall_min_length" json:"wall_min_length"`
	WallLengthSpread  float64 `toml:"wall_length_spread" json:"wall_length_spread"`
	WallThickness     float64 `toml:"wall_thickness" json:"wall_thickness"`
	WallMargin        float64 `toml:"wall_margin" json:"wall_margin"`
	MaxViewportWidth  float64 `toml:"max_viewport_width" json:"max_viewport_width"`
	MaxViewportHeight float64 `toml:"max_viewport_height" json:"max_viewport_height"`
}

// Tuning is the full set of gameplay parameters.
type Tuning struct {
	BallRadius      float64      `toml:"ball_radius" json:"ball_radius"`
	TargetRadius    float64      `toml:"target_radius" json:"target_radius"`
	Damping         float64      `toml:"damping" json:"damping"`
	Restitution     float64      `toml:"restitution" json:"restitution"`
	FallInMargin    float64      `toml:"fall_in_margin" json:"fall_in_margin"`
	FrameBaselineMs float64      `toml:"frame_baseline_ms" json:"frame_baseline_ms"`
	MaxStepMs       float64      `toml:"max_step_ms" json:"max_step_ms"`
	Level           LevelTuning  `toml:"level" json:"level"`
	Input           input.Config `toml:"input" json:"input"`
}

var ErrInvalidTuning = errors.New("invalid tuning")

func DefaultTuning() Tuning {
	return Tuning{
		BallRadius:      BallRadius,
		TargetRadius:    TargetRadius,
		Damping:         Damping,
		Restitution:     Restitution,
		FallInMargin:    FallInMargin,
		FrameBaselineMs: FrameBaselineMs,
		MaxStepMs:       MaxStepMs,
		Level: LevelTuning{
			StartX:            StartInsetX,
			StartY:            StartInsetY,
			TargetInsetX:      TargetInsetX,
			TargetInsetY:      TargetInsetY,
			HoleAreaPerHole:   HoleAreaPerHole,
			HoleMaxAttempts:   HoleMaxAttempts,
			HoleEdgeMargin:    HoleEdgeMargin,
			HoleMinRadius:     HoleMinRadius,
			HoleRadiusSpread:  HoleRadiusSpread,
			HoleClearance:     HoleClearance,
			HoleSpacingFactor: HoleSpacingFactor,
			WallWidthPerWall:  WallWidthPerWall,
			WallMinLength:     WallMinLength,
			WallLengthSpread:  WallLengthSpread,
			WallThickness:     WallThickness,
			WallMargin:        WallMargin,
			MaxViewportWidth:  MaxViewportWidth,
			MaxViewportHeight: MaxViewportHeight,
		},
		Input: input.DefaultConfig(),
	}
}

// LoadTuning reads a TOML tuning file on top of the defaults. An empty path
// returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return t, fmt.Errorf("decode tuning file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return t, fmt.Errorf("%w: unknown keys %s", ErrInvalidTuning, strings.Join(keys, ", "))
	}

	return t, t.Validate()
}

// Validate rejects parameter sets the engine cannot run with.
func (t Tuning) Validate() error {
	switch {
	case t.BallRadius <= 0:
		return fmt.Errorf("%w: ball_radius must be positive", ErrInvalidTuning)
	case t.TargetRadius <= 0:
		return fmt.Errorf("%w: target_radius must be positive", ErrInvalidTuning)
	case t.Damping <= 0 || t.Damping > 1:
		return fmt.Errorf("%w: damping must be in (0, 1]", ErrInvalidTuning)
	case t.Restitution > 0 || t.Restitution < -1:
		return fmt.Errorf("%w: restitution must be in [-1, 0]", ErrInvalidTuning)
	case t.FrameBaselineMs <= 0:
		return fmt.Errorf("%w: frame_baseline_ms must be positive", ErrInvalidTuning)
	case t.MaxStepMs < 0:
		return fmt.Errorf("%w: max_step_ms must not be negative", ErrInvalidTuning)
	case t.Level.HoleAreaPerHole <= 0:
		return fmt.Errorf("%w: level.hole_area_per_hole must be positive", ErrInvalidTuning)
	case t.Level.WallWidthPerWall <= 0:
		return fmt.Errorf("%w: level.wall_width_per_wall must be positive", ErrInvalidTuning)
	case t.Level.HoleMaxAttempts < 0:
		return fmt.Errorf("%w: level.hole_max_attempts must not be negative", ErrInvalidTuning)
	case !finite(t.Level.MaxViewportWidth) || t.Level.MaxViewportWidth <= 0:
		return fmt.Errorf("%w: level.max_viewport_width must be positive and finite", ErrInvalidTuning)
	case !finite(t.Level.MaxViewportHeight) || t.Level.MaxViewportHeight <= 0:
		return fmt.Errorf("%w: level.max_viewport_height must be positive and finite", ErrInvalidTuning)
	case t.Input.MaxTiltDegrees <= 0:
		return fmt.Errorf("%w: input.max_tilt_degrees must be positive", ErrInvalidTuning)
	case t.Input.JoystickRadius <= 0:
		return fmt.Errorf("%w: input.joystick_radius must be positive", ErrInvalidTuning)
	case t.Input.ProbeTimeoutMs <= 0:
		return fmt.Errorf("%w: input.probe_timeout_ms must be positive", ErrInvalidTuning)
	}
	return nil
}
