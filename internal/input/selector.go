package input

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Permission is the answer of an orientation permission gate.
type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnavailable Permission = "unavailable"
	// PermissionNotRequired means no gate exists and the sensor is probed directly.
	PermissionNotRequired Permission = "not_required"
)

// PermissionGate is an external capability that may need an explicit,
// asynchronous grant before orientation data can be read.
type PermissionGate interface {
	RequestPermission(ctx context.Context) (Permission, error)
}

// Selection describes which strategy won and why.
type Selection struct {
	Kind       Kind       `json:"kind"`
	Permission Permission `json:"permission"`
	Reason     string     `json:"reason"`
}

type slot struct {
	s Strategy
}

// Normalizer owns both strategies and exposes the tilt of whichever one is
// active. At most one strategy is active at any time.
type Normalizer struct {
	cfg         Config
	orientation *Orientation
	joystick    *Joystick
	active      atomic.Pointer[slot]
}

func NewNormalizer(cfg Config, joystickOrigin Point) *Normalizer {
	return &Normalizer{
		cfg:         cfg,
		orientation: NewOrientation(cfg),
		joystick:    NewJoystick(joystickOrigin, cfg),
	}
}

// Tilt returns the active strategy's vector, zero before selection.
func (n *Normalizer) Tilt() Tilt {
	if a := n.active.Load(); a != nil {
		return a.s.Tilt()
	}
	return Tilt{}
}

// Active reports the kind of the active strategy.
func (n *Normalizer) Active() Kind {
	if a := n.active.Load(); a != nil {
		return a.s.Kind()
	}
	return KindNone
}

func (n *Normalizer) Joystick() *Joystick { return n.joystick }

func (n *Normalizer) Orientation() *Orientation { return n.orientation }

// HandleOrientation forwards a reading while the orientation strategy listens.
func (n *Normalizer) HandleOrientation(beta, gamma *float64) bool {
	if n.Active() != KindOrientation {
		return false
	}
	return n.orientation.Apply(beta, gamma)
}

// HandlePointer forwards a pointer event once the joystick is enabled.
func (n *Normalizer) HandlePointer(ev PointerEvent) bool {
	if n.Active() != KindJoystick {
		return false
	}
	n.joystick.Handle(ev)
	return true
}

// Select decides between orientation and joystick. It blocks for at most the
// permission wait plus the probe timeout and always leaves exactly one
// strategy active. A nil gate means no permission is required.
func (n *Normalizer) Select(ctx context.Context, gate PermissionGate) Selection {
	perm := PermissionNotRequired
	if gate != nil {
		pctx, cancel := context.WithTimeout(ctx, n.cfg.PermissionWait())
		p, err := gate.RequestPermission(pctx)
		cancel()
		if err != nil {
			log.Printf("[INPUT] orientation permission request failed: %v", err)
			return n.fallback(PermissionUnavailable, "permission request failed")
		}
		if p != PermissionGranted {
			return n.fallback(p, "permission "+string(p))
		}
		perm = p
	}

	n.activate(n.orientation)

	timer := time.NewTimer(n.cfg.ProbeTimeout())
	defer timer.Stop()

	select {
	case <-n.orientation.Ready():
		return Selection{Kind: KindOrientation, Permission: perm, Reason: "orientation data received"}
	case <-timer.C:
		if n.orientation.HasData() {
			return Selection{Kind: KindOrientation, Permission: perm, Reason: "orientation data received"}
		}
		return n.fallback(perm, "no orientation data within probe timeout")
	case <-ctx.Done():
		return n.fallback(perm, "selection cancelled")
	}
}

func (n *Normalizer) fallback(perm Permission, reason string) Selection {
	n.orientation.Detach()
	n.activate(n.joystick)
	return Selection{Kind: KindJoystick, Permission: perm, Reason: reason}
}

func (n *Normalizer) activate(s Strategy) {
	n.active.Store(&slot{s: s})
}
