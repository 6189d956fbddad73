package input

import (
	"sync"
	"sync/atomic"
)

// Orientation maps device orientation readings (beta: front/back,
// gamma: left/right, in degrees) to a tilt vector.
type Orientation struct {
	cfg      Config
	tilt     tiltCell
	detached atomic.Bool
	ready    chan struct{}
	once     sync.Once
}

func NewOrientation(cfg Config) *Orientation {
	return &Orientation{cfg: cfg, ready: make(chan struct{})}
}

func (o *Orientation) Kind() Kind { return KindOrientation }

func (o *Orientation) Tilt() Tilt { return o.tilt.load() }

// Apply consumes one reading. A reading missing either axis keeps the last
// vector. Returns false when the reading was ignored.
func (o *Orientation) Apply(beta, gamma *float64) bool {
	if o.detached.Load() || beta == nil || gamma == nil {
		return false
	}

	max := o.cfg.MaxTiltDegrees
	g := clamp(*gamma, -max, max)
	b := clamp(*beta, -max, max)
	o.tilt.store(Tilt{
		AX: g / max * o.cfg.OrientationGain,
		AY: b / max * o.cfg.OrientationGain,
	})

	o.once.Do(func() { close(o.ready) })
	return true
}

// Ready is closed once the first usable reading arrived.
func (o *Orientation) Ready() <-chan struct{} { return o.ready }

// HasData reports whether a usable reading was ever received.
func (o *Orientation) HasData() bool {
	select {
	case <-o.ready:
		return true
	default:
		return false
	}
}

// Detach stops listening; later readings are ignored.
func (o *Orientation) Detach() {
	o.detached.Store(true)
}
