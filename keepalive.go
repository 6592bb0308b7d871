package feedws

import (
	"sync"
	"time"
)

// keepaliveMonitor emits ping envelopes at a fixed interval while a
// connection is open. It only sends; pong handling is the dispatcher's
// job and is purely informational. Staleness detection relies on
// transport-level close events.
type keepaliveMonitor struct {
	logger   Logger
	gateway  *gateway
	interval time.Duration

	mu     sync.Mutex
	stopC  chan struct{}
	active bool
}

func newKeepaliveMonitor(logger Logger, gw *gateway, interval time.Duration) *keepaliveMonitor {
	return &keepaliveMonitor{
		logger:   logger.WithField("component", "keepalive"),
		gateway:  gw,
		interval: interval,
	}
}

// start begins the ping loop. No-op when already running or when the
// interval is non-positive.
func (k *keepaliveMonitor) start() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.active || k.interval <= 0 {
		return
	}
	k.active = true
	k.stopC = make(chan struct{})
	go k.run(k.stopC)
}

// stop halts the ping loop synchronously. No ping is emitted after stop
// returns; a tick racing with stop is swallowed by the gateway's
// open-state check.
func (k *keepaliveMonitor) stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.active {
		return
	}
	k.active = false
	close(k.stopC)
}

func (k *keepaliveMonitor) run(stopC chan struct{}) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopC:
			return
		case <-ticker.C:
			env, err := NewEnvelope(KindPing, nil)
			if err != nil {
				continue
			}
			if !k.gateway.Send(env) {
				k.logger.Debugln("ping skipped, connection not open")
			}
		}
	}
}
