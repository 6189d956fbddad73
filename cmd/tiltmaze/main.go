// Command tiltmaze plays a local session in the terminal. The mouse drags
// the on-screen joystick; arrow keys nudge it and space recenters it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/tiltmaze/backend/internal/config"
	"github.com/tiltmaze/backend/internal/game"
	"github.com/tiltmaze/backend/internal/input"
	"github.com/tiltmaze/backend/internal/render"
)

// noSensor is the permission gate of a terminal: there is never an
// orientation source, so the joystick is selected immediately.
type noSensor struct{}

func (noSensor) RequestPermission(context.Context) (input.Permission, error) {
	return input.PermissionUnavailable, nil
}

type client struct {
	screen  tcell.Screen
	term    *render.Terminal
	session *game.Session

	// Keyboard joystick offset in units of half the joystick radius.
	keyX, keyY int
	dragging   bool
}

func main() {
	seed := flag.Uint64("seed", 0, "level seed (0 picks one from the clock)")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	cfg := config.Load()

	log.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	tuning := game.DefaultTuning()
	if cfg.TuningFile != "" {
		t, err := game.LoadTuning(cfg.TuningFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load tuning file: %v\n", err)
			os.Exit(1)
		}
		tuning = t
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.EnableMouse()

	term := render.NewTerminal(screen)

	sd := uint64(time.Now().UnixNano())
	if *seed != 0 {
		sd = *seed
	}
	session, err := game.NewSession(uuid.NewString(), term.Viewport(), tuning, game.NewRand(sd))
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session.Attach(term)
	go session.Run(ctx, cfg.FrameRate)

	c := &client{screen: screen, term: term, session: session}
	c.run()
}

func (c *client) run() {
	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	for ev := range eventChan {
		if !c.handleEvent(ev) {
			return
		}
	}
}

func (c *client) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			c.startOrRetry()
		case tcell.KeyUp:
			c.nudge(0, -1)
		case tcell.KeyDown:
			c.nudge(0, 1)
		case tcell.KeyLeft:
			c.nudge(-1, 0)
		case tcell.KeyRight:
			c.nudge(1, 0)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				c.recenter()
			}
		}

	case *tcell.EventMouse:
		c.handleMouse(ev)

	case *tcell.EventResize:
		c.screen.Sync()
		regenerated, err := c.session.Resize(c.term.Viewport())
		if err != nil {
			log.Printf("[TERM] resize rejected: %v", err)
		} else if regenerated {
			c.term.Present(c.session.Snapshot())
		}
	}
	return true
}

func (c *client) startOrRetry() {
	opts := game.StartOptions{Gate: noSensor{}}
	var err error
	switch c.session.Status() {
	case game.StatusReady:
		err = c.session.Start(context.Background(), opts)
	case game.StatusOver:
		err = c.session.Retry(context.Background(), opts)
	default:
		return
	}
	if err != nil {
		log.Printf("[TERM] start failed: %v", err)
	}
	c.keyX, c.keyY = 0, 0
	c.dragging = false
}

func (c *client) handleMouse(ev *tcell.EventMouse) {
	col, row := ev.Position()
	p := c.term.ToWorld(col, row)
	pressed := ev.Buttons()&tcell.Button1 != 0

	var phase input.Phase
	switch {
	case pressed && !c.dragging:
		phase = input.PhaseDown
		c.dragging = true
	case pressed:
		phase = input.PhaseMove
	case c.dragging:
		phase = input.PhaseUp
		c.dragging = false
	default:
		return
	}
	c.session.HandlePointer(input.PointerEvent{Phase: phase, Source: input.SourceMouse, X: p.X, Y: p.Y})
}

// nudge moves the keyboard joystick one step; terminals report no key
// releases, so the offset holds until space recenters it.
func (c *client) nudge(dx, dy int) {
	c.keyX = clampStep(c.keyX + dx)
	c.keyY = clampStep(c.keyY + dy)

	j := c.session.Input().Joystick()
	half := j.Radius() / 2
	origin := j.Origin()
	c.session.HandlePointer(input.PointerEvent{Phase: input.PhaseDown, Source: input.SourceMouse, X: origin.X, Y: origin.Y})
	c.session.HandlePointer(input.PointerEvent{
		Phase:  input.PhaseMove,
		Source: input.SourceMouse,
		X:      origin.X + float64(c.keyX)*half,
		Y:      origin.Y + float64(c.keyY)*half,
	})
}

func (c *client) recenter() {
	c.keyX, c.keyY = 0, 0
	c.session.HandlePointer(input.PointerEvent{Phase: input.PhaseUp, Source: input.SourceMouse})
}

func clampStep(v int) int {
	if v > 2 {
		return 2
	}
	if v < -2 {
		return -2
	}
	return v
}
