package feedws

import (
	"context"
)

type (
	CloseChan chan struct{}

	// Transport is one physical connection to the feed server. It is
	// exclusively owned by the connection manager: nothing else opens,
	// closes or writes to it directly.
	Transport interface {
		// Open establishes the connection. Blocking; returns once the
		// connection is established or the attempt failed.
		Open(ctx context.Context) error
		// Write sends one raw frame to the server.
		Write(frame []byte) error
		// Close terminates the connection with the given close code.
		Close(code int)
		// CloseChan returns a channel closed when the connection dies,
		// whichever side initiated it.
		CloseChan() CloseChan
		// CloseCode returns the close code observed for this connection.
		// Valid once CloseChan is closed.
		CloseCode() int
		// CloseErr explains why the connection closed, nil for a normal
		// closure initiated by us.
		CloseErr() error
	}

	// TransportFactory builds a fresh Transport delivering inbound frames
	// to recv. One transport serves exactly one connection attempt.
	TransportFactory func(recv chan<- []byte) Transport
)
