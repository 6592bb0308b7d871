package feedws

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("client disposed")
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
	ErrUnknownKind      = errors.New("unknown envelope kind")
	ErrMalformedFrame   = errors.New("malformed frame")
)

// ErrServer carries an error reported by the feed server inside an
// error-kind envelope. The connection stays open unless the server
// closes it on its own.
type ErrServer struct {
	Code    string
	Message string
}

func (e ErrServer) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server error: %s", e.Message)
	}
	return fmt.Sprintf("server error [%s]: %s", e.Code, e.Message)
}

// ErrSchemaMismatch signals that an inbound envelope declared a schema
// version other than the one registered for its kind. It is surfaced as
// a warning only; the envelope is still dispatched.
type ErrSchemaMismatch struct {
	Kind     string
	Got      string
	Expected string
}

func (e ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("schema version mismatch for %q: got %s, expected %s",
		e.Kind, e.Got, e.Expected)
}

func wrapDecodeError(err error, frame []byte) error {
	if len(frame) > 64 {
		frame = frame[:64]
	}
	return errors.Wrapf(ErrMalformedFrame, "%s: %s", err, frame)
}
