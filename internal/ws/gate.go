package ws

import (
	"context"
	"sync"

	"github.com/tiltmaze/backend/internal/input"
)

// remoteGate asks the browser for orientation permission and waits for its
// orientation_permission reply.
type remoteGate struct {
	client  *Client
	mu      sync.Mutex
	pending chan input.Permission
}

func newRemoteGate(c *Client) *remoteGate {
	return &remoteGate{client: c}
}

func (g *remoteGate) RequestPermission(ctx context.Context) (input.Permission, error) {
	ch := make(chan input.Permission, 1)
	g.mu.Lock()
	g.pending = ch
	g.mu.Unlock()

	g.client.sendJSON(map[string]interface{}{"type": "request_orientation_permission"})

	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		g.mu.Lock()
		if g.pending == ch {
			g.pending = nil
		}
		g.mu.Unlock()
		return input.PermissionUnavailable, ctx.Err()
	}
}

// resolve delivers the client's answer; false when nothing was pending.
func (g *remoteGate) resolve(p input.Permission) bool {
	g.mu.Lock()
	ch := g.pending
	g.pending = nil
	g.mu.Unlock()

	if ch == nil {
		return false
	}
	ch <- p
	return true
}

func normalizePermission(p input.Permission) input.Permission {
	switch p {
	case input.PermissionGranted, input.PermissionUnavailable:
		return p
	}
	return input.PermissionDenied
}
