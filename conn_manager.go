package feedws

import (
	"context"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

// connManager owns the single active transport and every lifecycle
// transition. All other components read ConnectionState through it but
// never mutate it.
type connManager struct {
	logger  Logger
	factory TransportFactory
	emitter *EventEmitterCallback[EventType, StateChange]

	dispatcher *dispatcher
	subs       *subscriptionRegistry
	gateway    *gateway
	keepalive  *keepaliveMonitor

	mu             sync.Mutex
	state          ConnectionState
	transport      Transport
	budget         retryBudget
	info           ConnectionInfo
	reconnectTimer *time.Timer
	gen            int
	disposed       bool
	pending        []StateChange
	flushing       bool
}

func newConnManager(
	logger Logger,
	factory TransportFactory,
	registry *SchemaRegistry,
	validate bool,
	maxAttempts int,
	reconnectDelay time.Duration,
	pingInterval time.Duration,
) *connManager {
	m := &connManager{
		logger:  logger.WithField("component", "conn_manager"),
		factory: factory,
		emitter: NewEventEmitter[EventType, StateChange](),
		subs:    newSubscriptionRegistry(logger),
		gateway: newGateway(logger, BaselineSchemaVersion),
		state:   StateIdle,
		budget: retryBudget{
			maxAttempts: maxAttempts,
			fixedDelay:  reconnectDelay,
		},
	}
	m.dispatcher = newDispatcher(logger, registry, validate, m)
	m.keepalive = newKeepaliveMonitor(logger, m.gateway, pingInterval)
	return m
}

// State returns the current connection state.
func (m *connManager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Info returns a copy of the observable connection info.
func (m *connManager) Info() ConnectionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info.clone()
}

// Connect opens a new transport. No-op when already Open or Connecting.
// On success the retry budget resets, the keepalive monitor starts and
// the desired-channel set is replayed before anything else is sent.
func (m *connManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrTerminated
	}
	if m.state == StateOpen || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}

	m.cancelReconnectTimerLocked()

	err := m.dialLocked(ctx)
	m.flushEvents()
	return err
}

// dialLocked performs one connection attempt. It must be entered with
// m.mu held and returns with it released.
func (m *connManager) dialLocked(ctx context.Context) error {
	// Tear down any stale transport before dialing a fresh one.
	if stale := m.transport; stale != nil {
		m.transport = nil
		stale.Close(websocket.CloseNormalClosure)
	}

	m.setStateLocked(StateConnecting, nil)
	m.gen++
	gen := m.gen

	recv := make(chan []byte, 64)
	t := m.factory(recv)
	m.transport = t
	m.mu.Unlock()

	err := t.Open(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.disposed {
		// Superseded by a disconnect or dispose while dialing.
		t.Close(websocket.CloseNormalClosure)
		return nil
	}

	if err != nil {
		m.transport = nil
		m.budget.spend()
		m.info.ReconnectAttempts = m.budget.attemptsUsed
		if m.budget.exhausted() {
			m.logger.Errorf("giving up after %d reconnect attempt(s)", m.budget.attemptsUsed)
			err = errors.Wrap(ErrRetriesExhausted, err.Error())
			m.setStateLocked(StateFailed, err)
			return err
		}
		m.setStateLocked(StateReconnecting, err)
		m.scheduleReconnectLocked()
		return err
	}

	m.budget.reset()
	m.info.ReconnectAttempts = 0
	m.info.ConnectedAt = time.Now().UTC()
	m.setStateLocked(StateOpen, nil)

	// Bind the gateway and replay subscriptions in one step so the
	// server learns the full desired set before any other traffic.
	if env, ok := m.subs.replayEnvelope(); ok {
		m.gateway.activate(t, env)
	} else {
		m.gateway.activate(t)
	}

	m.keepalive.start()

	go m.serve(gen, t, recv)

	return nil
}

// Disconnect closes the transport with a normal-closure code, cancels
// any pending reconnection and stops the keepalive monitor. The desired
// channel set is preserved for a later manual Connect.
func (m *connManager) Disconnect() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}

	m.cancelReconnectTimerLocked()
	// Deactivate before stopping the keepalive so a tick already past
	// its stop check is swallowed by the gateway's open-state guard.
	m.gateway.deactivate()
	m.keepalive.stop()

	t := m.transport
	m.transport = nil
	// Invalidate the serve goroutine and any in-flight dial.
	m.gen++

	if t != nil {
		m.setStateLocked(StateClosing, nil)
	}
	m.budget.reset()
	m.info.ReconnectAttempts = 0
	m.setStateLocked(StateClosed, nil)
	m.mu.Unlock()

	if t != nil {
		t.Close(websocket.CloseNormalClosure)
	}
	m.flushEvents()
}

// Reconnect is disconnect-then-connect with a fresh retry budget. It is
// the only way out of StateFailed.
func (m *connManager) Reconnect(ctx context.Context) error {
	m.Disconnect()

	m.mu.Lock()
	m.budget.reset()
	m.info.ReconnectAttempts = 0
	m.mu.Unlock()

	return m.Connect(ctx)
}

// Subscribe adds channels to the desired set and announces them when a
// connection is open. When not open the announcement is deferred to the
// replay on the next successful open.
func (m *connManager) Subscribe(channels []string) {
	requested := m.subs.add(channels)
	if len(requested) == 0 {
		return
	}
	if m.State() != StateOpen {
		return
	}
	env, err := NewEnvelope(KindSubscribe, ChannelsPayload{Events: requested})
	if err != nil {
		m.logger.Errorf("cannot build subscribe request: %s", err)
		return
	}
	m.gateway.Send(env)
}

// Unsubscribe removes channels from the desired set. Nothing is sent
// when the connection is not open, there is nothing to revoke.
func (m *connManager) Unsubscribe(channels []string) {
	m.subs.remove(channels)
	if len(channels) == 0 || m.State() != StateOpen {
		return
	}
	env, err := NewEnvelope(KindUnsubscribe, ChannelsPayload{Events: channels})
	if err != nil {
		m.logger.Errorf("cannot build unsubscribe request: %s", err)
		return
	}
	m.gateway.Send(env)
}

// Send forwards a caller envelope through the outbound gateway.
func (m *connManager) Send(env Envelope) bool {
	return m.gateway.Send(env)
}

func (m *connManager) dispose() {
	m.Disconnect()

	m.mu.Lock()
	m.disposed = true
	m.mu.Unlock()

	m.emitter.Close()
	m.dispatcher.onError(nil)
}

// serve pumps inbound frames into the dispatcher until the transport
// dies. Frames dispatch in arrival order, one at a time.
func (m *connManager) serve(gen int, t Transport, recv <-chan []byte) {
	for {
		select {
		case frame := <-recv:
			m.dispatcher.Dispatch(frame)
		case <-t.CloseChan():
			m.drain(recv)
			m.onTransportClosed(gen, t)
			return
		}
	}
}

// drain dispatches frames that arrived before the close was observed.
func (m *connManager) drain(recv <-chan []byte) {
	for {
		select {
		case frame := <-recv:
			m.dispatcher.Dispatch(frame)
		default:
			return
		}
	}
}

func (m *connManager) onTransportClosed(gen int, t Transport) {
	m.mu.Lock()
	defer m.flushEvents()
	defer m.mu.Unlock()

	if gen != m.gen || m.disposed {
		// A newer connection already superseded this one.
		return
	}

	m.gateway.deactivate()
	m.keepalive.stop()
	m.transport = nil

	code := t.CloseCode()
	closeErr := t.CloseErr()

	if m.state == StateClosing {
		m.setStateLocked(StateClosed, nil)
		return
	}

	if code == websocket.CloseNormalClosure {
		m.logger.Infoln("connection closed normally, not reconnecting")
		m.setStateLocked(StateClosed, closeErr)
		return
	}

	m.budget.spend()
	m.info.ReconnectAttempts = m.budget.attemptsUsed
	if m.budget.exhausted() {
		m.logger.Errorf("giving up after %d reconnect attempt(s)", m.budget.attemptsUsed)
		failure := ErrRetriesExhausted
		if closeErr != nil {
			failure = errors.Wrap(ErrRetriesExhausted, closeErr.Error())
		}
		m.setStateLocked(StateFailed, failure)
		return
	}

	m.logger.Warnf("abnormal close (code %d), reconnect attempt %d/%d in %s",
		code, m.budget.attemptsUsed, m.budget.maxAttempts, m.budget.fixedDelay)
	m.setStateLocked(StateReconnecting, closeErr)
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the reconnect timer. The fired callback
// verifies the generation and state and starts the dial under the same
// lock acquisition, so a concurrent Disconnect either cancels the timer
// or invalidates the generation before the dial can begin.
func (m *connManager) scheduleReconnectLocked() {
	gen := m.gen
	m.reconnectTimer = time.AfterFunc(m.budget.fixedDelay, func() {
		m.mu.Lock()
		if m.disposed || gen != m.gen || m.state != StateReconnecting {
			m.mu.Unlock()
			return
		}
		_ = m.dialLocked(context.Background())
		m.flushEvents()
	})
}

func (m *connManager) cancelReconnectTimerLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

func (m *connManager) setStateLocked(next ConnectionState, err error) {
	if m.state == next {
		return
	}
	m.pending = append(m.pending, StateChange{From: m.state, To: next, Err: err})
	m.state = next
}

// flushEvents delivers pending state changes to listeners in transition
// order. Called without m.mu held; at most one flusher drains the queue
// at a time, so listeners run sequentially.
func (m *connManager) flushEvents() {
	m.mu.Lock()
	if m.flushing {
		m.mu.Unlock()
		return
	}
	m.flushing = true
	for len(m.pending) > 0 {
		change := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()

		m.emitter.Emit(EventStateChange, change)
		switch change.To {
		case StateOpen:
			m.emitter.Emit(EventConnect, change)
		case StateClosed, StateFailed:
			m.emitter.Emit(EventClose, change)
		case StateReconnecting:
			m.emitter.Emit(EventReconnect, change)
		}

		m.mu.Lock()
	}
	m.flushing = false
	m.mu.Unlock()
}

// connectionSink implementation. These are the only paths by which the
// dispatcher mutates ConnectionInfo; the desired set is off limits.

func (m *connManager) handleHandshake(hs HandshakePayload) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.info.AssignedClientID = hs.ClientID
	m.info.ConnectedAt = time.Now().UTC()
	m.info.AvailableChannels = append([]string(nil), hs.AvailableChannels...)
	m.logger.Infof("handshake complete, client id %s", hs.ClientID)
}

func (m *connManager) handleSubscribed(channels []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.info.SubscribedChannels = union(m.info.SubscribedChannels, channels)
}

func (m *connManager) handleUnsubscribed(channels []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.info.SubscribedChannels = difference(m.info.SubscribedChannels, channels)
}

func (m *connManager) handlePing() {
	env, err := NewEnvelope(KindPong, nil)
	if err != nil {
		return
	}
	m.gateway.Send(env)
}

func (m *connManager) handlePong(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.info.LastPongAt = at
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func difference(a, b []string) []string {
	drop := make(map[string]struct{}, len(b))
	for _, s := range b {
		drop[s] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, s := range a {
		if _, ok := drop[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
