package feedws

import (
	"context"
)

// Client is the behavior the UI layer consumes: lifecycle control,
// desired-set mutation, outbound passthrough and observable state.
type Client interface {
	// Connect establishes a connection with the feed server.
	Connect(ctx context.Context) error
	// Disconnect closes the connection and cancels pending reconnects.
	// The desired-channel set survives for a later Connect.
	Disconnect()
	// Reconnect is disconnect-then-connect with a fresh retry budget.
	Reconnect(ctx context.Context) error

	// Subscribe adds channels to the desired set.
	Subscribe(channels ...string)
	// Unsubscribe removes channels from the desired set.
	Unsubscribe(channels ...string)

	// Send transmits a caller envelope, false when no connection is open.
	Send(env Envelope) bool

	// State returns the current connection state.
	State() ConnectionState
	// Info returns a copy of the observable connection info.
	Info() ConnectionInfo
	// LastEnvelope returns the most recently dispatched envelope.
	LastEnvelope() (Envelope, bool)

	// On registers a handler for a domain envelope kind.
	On(kind string, h EnvelopeHandler)
	// OnError registers the generic error handler.
	OnError(h ErrorHandler)

	// Close disposes the client for good.
	Close()
}
