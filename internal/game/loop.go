package game

import (
	"context"
	"log"
	"time"
)

// DefaultFrameRate matches the display refresh the physics is tuned for.
const DefaultFrameRate = 60

// Run drives the session at frameRate ticks per second until ctx is
// cancelled or the session is closed. Every frame is handed to all attached
// sinks before the next tick.
func (s *Session) Run(ctx context.Context, frameRate int) {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	ticker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()

	log.Printf("[LOOP] session %s running at %d fps", s.ID, frameRate)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[LOOP] session %s stopping: %v", s.ID, ctx.Err())
			return
		case <-s.done:
			log.Printf("[LOOP] session %s ended", s.ID)
			return
		case now := <-ticker.C:
			s.present(s.Tick(now))
		}
	}
}

func (s *Session) present(f Frame) {
	s.sinks.Range(func(_, v any) bool {
		v.(Sink).Present(f)
		return true
	})
}
