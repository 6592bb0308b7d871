package feedws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// gateway is the only path by which the client writes to the transport.
// It stamps protocol metadata on every outbound envelope and fails fast
// when no connection is open; nothing is ever queued.
type gateway struct {
	logger  Logger
	version string

	mu        sync.Mutex
	transport Transport
	open      bool
}

func newGateway(logger Logger, version string) *gateway {
	return &gateway{
		logger:  logger.WithField("component", "gateway"),
		version: version,
	}
}

// activate binds the gateway to a freshly opened transport and sends the
// replay envelopes before releasing the lock, so the subscription replay
// is guaranteed to hit the wire before any caller-initiated Send.
func (g *gateway) activate(t Transport, replay ...Envelope) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.transport = t
	g.open = true

	for _, env := range replay {
		g.writeLocked(env)
	}
}

// deactivate detaches the gateway from the transport. Subsequent Sends
// report failure until the next activate.
func (g *gateway) deactivate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.open = false
	g.transport = nil
}

// Send serializes and transmits one envelope. Returns false when the
// connection is not open or the write failed; it never panics and never
// blocks on a dead transport.
func (g *gateway) Send(env Envelope) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.open {
		g.logger.Warnf("dropping outbound %q envelope: connection not open", env.Kind)
		return false
	}
	return g.writeLocked(env)
}

func (g *gateway) writeLocked(env Envelope) bool {
	env.Timestamp = nowRFC3339()
	env.SchemaVersion = g.version
	env.ID = uuid.NewString()

	frame, err := json.Marshal(env)
	if err != nil {
		g.logger.Errorf("cannot marshal outbound %q envelope: %s", env.Kind, err)
		return false
	}

	if err := g.transport.Write(frame); err != nil {
		g.logger.Errorf("cannot write outbound %q envelope: %s", env.Kind, err)
		return false
	}
	return true
}
