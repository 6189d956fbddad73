package game

// Physics and generator constants for the tilt maze.
// These are the defaults; a tuning file may override any of them (see Tuning).

const (
	BallRadius   = 12.0
	TargetRadius = 18.0
	Damping      = 0.96
	Restitution  = -0.5
	FallInMargin = 2.0

	// dt = real frame delta / FrameBaselineMs (60 updates per second).
	FrameBaselineMs = 16.66
	// A single frame never advances more than MaxStepMs.
	MaxStepMs = 100.0

	StartInsetX  = 40.0
	StartInsetY  = 40.0
	TargetInsetX = 50.0
	TargetInsetY = 50.0

	HoleAreaPerHole   = 15000.0
	HoleMaxAttempts   = 500
	HoleEdgeMargin    = 30.0
	HoleMinRadius     = 15.0
	HoleRadiusSpread  = 10.0
	HoleClearance     = 80.0
	HoleSpacingFactor = 2.5

	WallWidthPerWall = 150.0
	WallMinLength    = 100.0
	WallLengthSpread = 100.0
	WallThickness    = 15.0
	WallMargin       = 50.0

	MaxViewportWidth  = 10000.0
	MaxViewportHeight = 10000.0
)
