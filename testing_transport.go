package feedws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fasthttp/websocket"
)

// fakeTransport is a scriptable in-memory Transport. Tests drive it to
// simulate open failures, inbound frames and close codes.
type fakeTransport struct {
	openErr error
	recv    chan<- []byte

	mu        sync.Mutex
	written   [][]byte
	closeChan CloseChan
	closeOnce sync.Once
	closeCode int
	closeErr  error
}

func (f *fakeTransport) Open(_ context.Context) error {
	return f.openErr
}

func (f *fakeTransport) Write(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), frame...)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeTransport) Close(code int) {
	f.closeWith(code, nil)
}

func (f *fakeTransport) CloseChan() CloseChan {
	return f.closeChan
}

func (f *fakeTransport) CloseCode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode
}

func (f *fakeTransport) CloseErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeErr
}

func (f *fakeTransport) closeWith(code int, err error) {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closeCode = code
		f.closeErr = err
		f.mu.Unlock()
		close(f.closeChan)
	})
}

// serverClose simulates the peer closing the connection.
func (f *fakeTransport) serverClose(code int, err error) {
	f.closeWith(code, err)
}

// inject delivers one inbound frame as if it arrived on the wire.
func (f *fakeTransport) inject(frame []byte) {
	f.recv <- frame
}

// injectEnvelope delivers one inbound envelope.
func (f *fakeTransport) injectEnvelope(env Envelope) {
	frame, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}
	f.inject(frame)
}

// sentEnvelopes decodes every frame written so far, in order.
func (f *fakeTransport) sentEnvelopes() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Envelope, 0, len(f.written))
	for _, frame := range f.written {
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			panic(err)
		}
		out = append(out, env)
	}
	return out
}

// fakeTransportFactory hands out one fakeTransport per connection
// attempt, consuming scripted open results in order. Attempts beyond the
// script succeed.
type fakeTransportFactory struct {
	mu       sync.Mutex
	openErrs []error
	conns    []*fakeTransport
	created  chan *fakeTransport
}

func newFakeTransportFactory() *fakeTransportFactory {
	return &fakeTransportFactory{
		created: make(chan *fakeTransport, 16),
	}
}

// scriptOpen queues open results for upcoming connection attempts. A nil
// entry means the attempt succeeds.
func (f *fakeTransportFactory) scriptOpen(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErrs = append(f.openErrs, errs...)
}

func (f *fakeTransportFactory) factory() TransportFactory {
	return func(recv chan<- []byte) Transport {
		f.mu.Lock()
		var openErr error
		if len(f.openErrs) > 0 {
			openErr = f.openErrs[0]
			f.openErrs = f.openErrs[1:]
		}
		conn := &fakeTransport{
			openErr:   openErr,
			recv:      recv,
			closeChan: make(CloseChan),
			closeCode: websocket.CloseAbnormalClosure,
		}
		f.conns = append(f.conns, conn)
		f.mu.Unlock()

		f.created <- conn
		return conn
	}
}

// attempts returns how many transports were created so far.
func (f *fakeTransportFactory) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// last returns the most recently created transport.
func (f *fakeTransportFactory) last() *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}
