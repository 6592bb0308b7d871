package feedws

import (
	"sync"
	"time"

	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/fasthttp/websocket"
)

// wsTransport is a Transport backed by a websocket connection.
type wsTransport struct {
	logger  Logger
	dialer  *websocket.Dialer
	address string
	header  http.Header

	conn *websocket.Conn

	closeChan       CloseChan
	closeOnce       sync.Once
	closeReason     error
	closeReasonOnce sync.Once
	closeCode       int
	closeCodeOnce   sync.Once

	recv chan<- []byte // frames received over the wire
	send chan []byte   // frames to be sent over the wire
}

// NewWebsocketTransportFactory returns a TransportFactory dialing the
// given address. Protocols, when non-empty, are offered as websocket
// subprotocols.
func NewWebsocketTransportFactory(
	logger Logger,
	address string,
	protocols []string,
	header http.Header,
) TransportFactory {
	return func(recv chan<- []byte) Transport {
		dialer := &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			Subprotocols:     protocols,
		}
		return &wsTransport{
			logger:    logger.WithField("net", "ws_transport"),
			dialer:    dialer,
			address:   address,
			header:    header,
			recv:      recv,
			send:      make(chan []byte, 32),
			closeChan: make(CloseChan),
			closeCode: websocket.CloseAbnormalClosure,
		}
	}
}

// Open dials the server and starts the read and write pumps.
func (w *wsTransport) Open(ctx context.Context) error {
	conn, resp, err := w.dialer.DialContext(ctx, w.address, w.header)

	if err = w.handleDialError(resp, err); err != nil {
		w.logger.Errorf("connection err to %s: %s", w.address, err)
		return err
	}

	w.logger.Debugf("success opening connection to %s", w.address)

	w.conn = conn

	conn.SetCloseHandler(func(code int, text string) error {
		w.logger.Debugf("<= [CLOSE] %d %s", code, text)
		w.setCloseCode(code)
		return nil
	})

	go w.read(ctx)
	go w.write(ctx)

	return nil
}

// Write enqueues one frame for transmission.
func (w *wsTransport) Write(frame []byte) error {
	select {
	case w.send <- frame:
		return nil
	case <-w.closeChan:
		return ErrConnectionClosed
	}
}

// Close terminates the connection with the given websocket close code.
func (w *wsTransport) Close(code int) {
	w.setCloseCode(code)
	if w.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = w.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""),
			deadline,
		)
	}
	w.safeClose()
}

func (w *wsTransport) CloseChan() CloseChan {
	return w.closeChan
}

func (w *wsTransport) CloseCode() int {
	return w.closeCode
}

func (w *wsTransport) CloseErr() error {
	return w.closeReason
}

func (w *wsTransport) read(ctx context.Context) {
	defer w.safeClose()

	for {
		select {
		case <-w.closeChan:
			w.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			w.setCloseReason(ErrTerminated)
			return
		default:
			_, bts, err := w.conn.ReadMessage()
			if err != nil {
				if ce, ok := err.(*websocket.CloseError); ok {
					w.setCloseCode(ce.Code)
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					w.logger.Debugln("connection closed normally by peer")
					return
				}
				w.logger.Errorf("error occurred on websocket read: %s", err)
				w.setCloseReason(errors.Wrap(
					ErrConnectionClosed,
					"error occurred on websocket read: "+err.Error(),
				))
				return
			}
			w.logger.Debugf("<= [DATA] %s", string(bts))
			w.recv <- bts
		}
	}
}

func (w *wsTransport) write(ctx context.Context) {
	defer w.safeClose()

	for {
		select {
		case <-w.closeChan:
			w.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			w.setCloseReason(ErrTerminated)
			return
		case frame := <-w.send:
			deadline := time.Now().Add(time.Second)
			_ = w.conn.SetWriteDeadline(deadline)

			w.logger.Debugf("=> [DATA] %s", frame)
			err := w.conn.WriteMessage(websocket.TextMessage, frame)

			if err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					w.setCloseReason(ErrConnectionClosed)
				} else {
					w.setCloseReason(errors.Wrap(ErrConnectionClosed, err.Error()))
				}
				return
			}
		}
	}
}

func (w *wsTransport) safeClose() {
	w.closeOnce.Do(w.close)
}

func (w *wsTransport) close() {
	if w.conn != nil {
		_ = w.conn.Close()
	}
	close(w.closeChan)
}

func (w *wsTransport) setCloseReason(err error) {
	w.closeReasonOnce.Do(func() {
		w.closeReason = err
	})
}

func (w *wsTransport) setCloseCode(code int) {
	w.closeCodeOnce.Do(func() {
		w.closeCode = code
	})
}

func (w *wsTransport) handleDialError(resp *http.Response, err error) error {
	// HTTP-level rejections carry a useful body, keep it in the error.
	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, rerr := io.ReadAll(resp.Body)
			if rerr == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrCannotConnect, "rate limited: "+msg)
		}
	}

	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}

	return nil
}
