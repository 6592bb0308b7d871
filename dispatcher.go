package feedws

import (
	"sync"
	"time"
)

type (
	// EnvelopeHandler receives every envelope of the kind it was
	// registered for, in transport arrival order.
	EnvelopeHandler func(Envelope)

	// ErrorHandler receives decode failures, schema warnings and
	// server-reported errors. It is never invoked concurrently with
	// itself for envelopes of the same connection.
	ErrorHandler func(error)

	// connectionSink receives the side effects of built-in kinds. The
	// connection manager implements it; the dispatcher may only update
	// confirmed subscription state through it, never the desired set.
	connectionSink interface {
		handleHandshake(HandshakePayload)
		handleSubscribed(channels []string)
		handleUnsubscribed(channels []string)
		handlePing()
		handlePong(at time.Time)
	}

	// dispatcher turns raw inbound frames into validated, routed, typed
	// events. A failure here is local to one frame: it is reported and
	// the frame discarded, it never tears down the connection.
	dispatcher struct {
		logger   Logger
		registry *SchemaRegistry
		validate bool
		sink     connectionSink

		mu         sync.RWMutex
		handlers   map[string]EnvelopeHandler
		errHandler ErrorHandler
		last       Envelope
		hasLast    bool
	}
)

func newDispatcher(
	logger Logger,
	registry *SchemaRegistry,
	validate bool,
	sink connectionSink,
) *dispatcher {
	return &dispatcher{
		logger:   logger.WithField("component", "dispatcher"),
		registry: registry,
		validate: validate,
		sink:     sink,
		handlers: make(map[string]EnvelopeHandler),
	}
}

// on registers the caller's handler for a domain kind, replacing any
// previous one.
func (d *dispatcher) on(kind string, h EnvelopeHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

func (d *dispatcher) onError(h ErrorHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errHandler = h
}

// lastEnvelope returns the most recently dispatched envelope.
func (d *dispatcher) lastEnvelope() (Envelope, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last, d.hasLast
}

// Dispatch decodes, validates and routes one inbound frame. Exactly one
// handler fires per envelope.
func (d *dispatcher) Dispatch(frame []byte) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		d.logger.Errorf("discarding frame: %s", err)
		d.reportError(err)
		return
	}

	if !d.registry.Knows(env.Kind) {
		d.logger.Warnf("dropping envelope with unknown kind %q", env.Kind)
		return
	}

	if expected, ok := d.registry.Version(env.Kind); ok && env.Version() != expected {
		// Best-effort backward compatibility: warn, keep going.
		warn := ErrSchemaMismatch{Kind: env.Kind, Got: env.Version(), Expected: expected}
		d.logger.Warnln(warn.Error())
		d.reportError(warn)
	}

	if d.validate {
		if err := d.registry.Validate(env); err != nil {
			d.logger.Errorf("discarding invalid %q envelope: %s", env.Kind, err)
			d.reportError(err)
			return
		}
	}

	d.mu.Lock()
	d.last = env
	d.hasLast = true
	d.mu.Unlock()

	switch env.Kind {
	case KindConnection:
		hs, err := decodePayload[HandshakePayload](env)
		if err != nil {
			d.logger.Errorf("discarding handshake: %s", err)
			d.reportError(err)
			return
		}
		d.sink.handleHandshake(hs)
	case KindSubscribed:
		ack, err := decodePayload[ChannelsPayload](env)
		if err != nil {
			d.reportError(err)
			return
		}
		d.sink.handleSubscribed(ack.Events)
	case KindUnsubscribed:
		ack, err := decodePayload[ChannelsPayload](env)
		if err != nil {
			d.reportError(err)
			return
		}
		d.sink.handleUnsubscribed(ack.Events)
	case KindPing:
		// A server-initiated probe, answered in kind.
		d.sink.handlePing()
	case KindPong:
		// Consumed by the keepalive bookkeeping, never forwarded.
		d.sink.handlePong(time.Now().UTC())
	case KindError:
		p, err := decodePayload[ServerErrorPayload](env)
		if err != nil {
			d.reportError(err)
			return
		}
		d.reportError(ErrServer{Code: p.Code, Message: p.Message})
	default:
		d.forward(env)
	}
}

func (d *dispatcher) forward(env Envelope) {
	d.mu.RLock()
	h, ok := d.handlers[env.Kind]
	d.mu.RUnlock()

	if !ok {
		d.logger.Debugf("no handler registered for kind %q", env.Kind)
		return
	}
	h(env)
}

func (d *dispatcher) reportError(err error) {
	d.mu.RLock()
	h := d.errHandler
	d.mu.RUnlock()

	if h != nil {
		h(err)
	}
}
