package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tiltmaze/backend/internal/input"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// StartOptions configures a (re)start.
type StartOptions struct {
	// Gate is the orientation permission capability, nil when none is required.
	Gate input.PermissionGate
	// JoystickOrigin overrides the default on-screen control position.
	JoystickOrigin *input.Point
}

// JoystickView is the renderable joystick control. Knob is relative to
// Origin.
type JoystickView struct {
	Origin input.Point `json:"origin"`
	Knob   input.Point `json:"knob"`
	Radius float64     `json:"radius"`
}

// Frame is the renderable state handed to presentation once per frame.
type Frame struct {
	Seq       uint64           `json:"seq"`
	SessionID string           `json:"session_id"`
	Status    GameStatus       `json:"status"`
	Outcome   Outcome          `json:"outcome,omitempty"`
	Message   string           `json:"message,omitempty"`
	Action    string           `json:"action,omitempty"`
	Finished  bool             `json:"finished,omitempty"`
	Viewport  Viewport         `json:"viewport"`
	Ball      Ball             `json:"ball"`
	Target    Target           `json:"target"`
	Holes     []Hole           `json:"holes"`
	Walls     []Wall           `json:"walls"`
	Input     input.Kind       `json:"input,omitempty"`
	Joystick  *JoystickView    `json:"joystick,omitempty"`
	Events    []CollisionEvent `json:"events,omitempty"`
}

// Sink consumes frames. Implementations must not block the frame loop.
type Sink interface {
	Present(Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Frame)

func (f SinkFunc) Present(fr Frame) { f(fr) }

// Session owns one play-through: ball, level, status and active input.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	tuning      Tuning
	rng         RandSource
	engine      *PhysicsEngine
	status      GameStatus
	viewport    Viewport
	pending     *Viewport
	level       Level
	ball        Ball
	outcome     Outcome
	input       *input.Normalizer
	selection   input.Selection
	cancelInput context.CancelFunc
	onSelect    func(input.Selection)
	lastTick    time.Time
	seq         uint64

	lastActivity atomic.Int64
	sinks        sync.Map // id -> Sink
	nextSink     atomic.Uint64
	done         chan struct{}
	closeOnce    sync.Once
}

// NewSession creates a session in the ready state with a generated level.
func NewSession(id string, vp Viewport, t Tuning, rng RandSource) (*Session, error) {
	if err := vp.Validate(t.Level); err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		tuning:    t,
		rng:       rng,
		engine:    NewPhysicsEngine(t),
		status:    StatusReady,
		viewport:  vp,
		done:      make(chan struct{}),
	}
	s.input = input.NewNormalizer(t.Input, t.Input.DefaultJoystickOrigin(vp.Height))
	s.lastActivity.Store(now.UnixNano())
	s.regenerateLocked()
	return s, nil
}

// regenerateLocked replaces the level and puts the ball back on the start.
func (s *Session) regenerateLocked() {
	s.level = GenerateLevel(s.viewport, s.tuning, s.rng)
	s.ball = Ball{Position: s.level.Start, Radius: s.tuning.BallRadius}
	if len(s.level.Holes) < s.level.RequestedHoles {
		log.Printf("[SESSION] %s placed %d of %d holes after %d attempts", s.ID, len(s.level.Holes), s.level.RequestedHoles, s.level.Attempts)
	}
}

// Status returns the current game state.
func (s *Session) Status() GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Input returns the normalizer of the current play-through.
func (s *Session) Input() *input.Normalizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Selection returns the latest input selection result.
func (s *Session) Selection() input.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// OnInputSelected registers a callback invoked once per start when the
// input strategy has been chosen.
func (s *Session) OnInputSelected(fn func(input.Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelect = fn
}

// Start begins a play-through from ready, or restarts one from over. The
// level is regenerated and the input strategy is selected asynchronously.
func (s *Session) Start(ctx context.Context, opts StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusPlaying {
		return fmt.Errorf("%w: session %s is already playing", ErrInvalidTransition, s.ID)
	}
	s.startLocked(ctx, opts)
	return nil
}

// Retry restarts a finished play-through.
func (s *Session) Retry(ctx context.Context, opts StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusOver {
		return fmt.Errorf("%w: cannot retry session %s from %s", ErrInvalidTransition, s.ID, s.status)
	}
	s.startLocked(ctx, opts)
	return nil
}

func (s *Session) startLocked(ctx context.Context, opts StartOptions) {
	if s.pending != nil {
		s.viewport = *s.pending
		s.pending = nil
	}
	s.regenerateLocked()
	s.status = StatusPlaying
	s.outcome = OutcomeNone
	s.selection = input.Selection{}

	if s.cancelInput != nil {
		s.cancelInput()
	}
	origin := s.tuning.Input.DefaultJoystickOrigin(s.viewport.Height)
	if opts.JoystickOrigin != nil {
		origin = *opts.JoystickOrigin
	}
	norm := input.NewNormalizer(s.tuning.Input, origin)
	s.input = norm

	sctx, cancel := context.WithCancel(ctx)
	s.cancelInput = cancel
	go s.selectInput(sctx, norm, opts.Gate)

	log.Printf("[SESSION] %s started (%.0fx%.0f, %d holes, %d walls)", s.ID, s.viewport.Width, s.viewport.Height, len(s.level.Holes), len(s.level.Walls))
}

func (s *Session) selectInput(ctx context.Context, norm *input.Normalizer, gate input.PermissionGate) {
	sel := norm.Select(ctx, gate)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.input != norm {
		s.mu.Unlock()
		return
	}
	s.selection = sel
	fn := s.onSelect
	s.mu.Unlock()

	log.Printf("[SESSION] %s input selected: %s (%s)", s.ID, sel.Kind, sel.Reason)
	if fn != nil {
		fn(sel)
	}
}

// Resize regenerates the level only while ready. During or after a
// play-through the viewport is remembered and applied on the next start.
func (s *Session) Resize(vp Viewport) (bool, error) {
	if err := vp.Validate(s.tuning.Level); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady {
		s.pending = &vp
		return false, nil
	}
	s.viewport = vp
	s.pending = nil
	s.regenerateLocked()
	return true, nil
}

// Tick advances the session to now and returns the frame to present.
func (s *Session) Tick(now time.Time) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var elapsed time.Duration
	if !s.lastTick.IsZero() {
		elapsed = now.Sub(s.lastTick)
	}
	s.lastTick = now

	return s.advanceLocked(FrameDelta(elapsed, s.tuning))
}

// Advance steps the session by dt baseline frames, bypassing the clock.
func (s *Session) Advance(dt float64) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(dt)
}

func (s *Session) advanceLocked(dt float64) Frame {
	s.seq++
	if s.status != StatusPlaying {
		return s.frameLocked(false, nil)
	}

	t := s.input.Tilt()
	outcome := s.engine.Step(&s.ball, &s.level, NewVec2(t.AX, t.AY), dt)
	events := append([]CollisionEvent(nil), s.engine.Events...)
	if outcome == OutcomeNone {
		return s.frameLocked(false, events)
	}

	s.status = StatusOver
	s.outcome = outcome
	if s.cancelInput != nil {
		s.cancelInput()
		s.cancelInput = nil
	}
	log.Printf("[SESSION] %s over: %s at (%.1f, %.1f)", s.ID, outcome, s.ball.Position.X, s.ball.Position.Y)
	return s.frameLocked(true, events)
}

// Snapshot returns the current frame without advancing.
func (s *Session) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked(false, nil)
}

// Level returns the current level.
func (s *Session) Level() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *Session) frameLocked(finished bool, events []CollisionEvent) Frame {
	msg, action := s.outcome.Message()
	f := Frame{
		Seq:       s.seq,
		SessionID: s.ID,
		Status:    s.status,
		Outcome:   s.outcome,
		Message:   msg,
		Action:    action,
		Finished:  finished,
		Viewport:  s.level.Viewport,
		Ball:      s.ball,
		Target:    s.level.Target,
		Holes:     s.level.Holes,
		Walls:     s.level.Walls,
		Events:    events,
	}
	if s.status == StatusPlaying {
		f.Input = s.input.Active()
		if f.Input == input.KindJoystick {
			j := s.input.Joystick()
			f.Joystick = &JoystickView{Origin: j.Origin(), Knob: j.Knob(), Radius: s.tuning.Input.JoystickRadius}
		}
	}
	return f
}

// HandleOrientation routes a sensor reading to the active normalizer.
func (s *Session) HandleOrientation(beta, gamma *float64) bool {
	s.Touch()
	return s.Input().HandleOrientation(beta, gamma)
}

// HandlePointer routes a mouse or touch event to the active normalizer.
func (s *Session) HandlePointer(ev input.PointerEvent) bool {
	s.Touch()
	return s.Input().HandlePointer(ev)
}

// Touch records client activity for idle expiry.
func (s *Session) Touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the time of the last recorded client activity.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// Attach registers a sink for frames produced by Run. The returned
// function detaches it.
func (s *Session) Attach(sink Sink) func() {
	id := s.nextSink.Add(1)
	s.sinks.Store(id, sink)
	return func() { s.sinks.Delete(id) }
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close ends the session and stops any pending input selection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.cancelInput != nil {
			s.cancelInput()
			s.cancelInput = nil
		}
		s.mu.Unlock()
		close(s.done)
	})
}
