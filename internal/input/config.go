package input

import "time"

// Defaults for both input strategies.
const (
	MaxTiltDegrees     = 45.0
	OrientationGain    = 0.8
	JoystickGain       = 0.6
	JoystickMaxRadius  = 60.0
	GyroProbeMs        = 1000
	PermissionWaitMs   = 30000
	JoystickEdgeOffset = 30.0
)

// Config holds the tunable input parameters. It is embedded in the game
// tuning file under [input].
type Config struct {
	MaxTiltDegrees   float64 `toml:"max_tilt_degrees" json:"max_tilt_degrees"`
	OrientationGain  float64 `toml:"orientation_gain" json:"orientation_gain"`
	JoystickGain     float64 `toml:"joystick_gain" json:"joystick_gain"`
	JoystickRadius   float64 `toml:"joystick_radius" json:"joystick_radius"`
	ProbeTimeoutMs   int     `toml:"probe_timeout_ms" json:"probe_timeout_ms"`
	PermissionWaitMs int     `toml:"permission_wait_ms" json:"permission_wait_ms"`
}

func DefaultConfig() Config {
	return Config{
		MaxTiltDegrees:   MaxTiltDegrees,
		OrientationGain:  OrientationGain,
		JoystickGain:     JoystickGain,
		JoystickRadius:   JoystickMaxRadius,
		ProbeTimeoutMs:   GyroProbeMs,
		PermissionWaitMs: PermissionWaitMs,
	}
}

// ProbeTimeout is how long the orientation strategy may stay silent before
// the joystick takes over.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMs) * time.Millisecond
}

// PermissionWait bounds the asynchronous permission request.
func (c Config) PermissionWait() time.Duration {
	return time.Duration(c.PermissionWaitMs) * time.Millisecond
}

// DefaultJoystickOrigin places the control in the bottom-left corner of the viewport.
func (c Config) DefaultJoystickOrigin(viewportHeight float64) Point {
	return Point{
		X: c.JoystickRadius + JoystickEdgeOffset,
		Y: viewportHeight - c.JoystickRadius - JoystickEdgeOffset,
	}
}
