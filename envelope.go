package feedws

import (
	"encoding/json"
	"time"
)

// Well-known envelope kinds. Inbound kinds below KindSubscribe receive
// built-in handling in the dispatcher; the domain kinds are forwarded
// verbatim to caller-registered handlers.
const (
	KindConnection   = "connection"
	KindSubscribed   = "subscribed"
	KindUnsubscribed = "unsubscribed"
	KindPing         = "ping"
	KindPong         = "pong"
	KindError        = "error"

	KindSubscribe   = "subscribe"
	KindUnsubscribe = "unsubscribe"

	KindPrice        = "price"
	KindExchangeRate = "exchange_rate"
	KindSignal       = "signal"
	KindMarketStatus = "market_status"
	KindNews         = "news"
)

// BaselineSchemaVersion is assumed for envelopes that carry no explicit
// schemaVersion tag.
const BaselineSchemaVersion = "1.0"

// Envelope is one discrete unit of wire communication, inbound or
// outbound. Kind discriminates the payload; an envelope whose kind is
// not registered is dropped with a diagnostic, never coerced.
type Envelope struct {
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Timestamp     string          `json:"timestamp"`
	SchemaVersion string          `json:"schemaVersion,omitempty"`
	// ID is stamped on outbound envelopes for log correlation. Inbound
	// envelopes normally omit it.
	ID string `json:"id,omitempty"`
}

// Version returns the declared schema version, or the baseline when the
// envelope carries none.
func (e Envelope) Version() string {
	if e.SchemaVersion == "" {
		return BaselineSchemaVersion
	}
	return e.SchemaVersion
}

// NewEnvelope builds an outbound envelope for the given kind. Timestamp
// and schema version stamping happen in the outbound gateway regardless
// of what is set here.
func NewEnvelope(kind string, payload any) (Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		bts, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		raw = bts
	}
	return Envelope{Kind: kind, Payload: raw}, nil
}

func (e Envelope) marshal() ([]byte, error) {
	return json.Marshal(e)
}

// decodeEnvelope parses a raw inbound frame.
func decodeEnvelope(frame []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(frame, &e); err != nil {
		return Envelope{}, wrapDecodeError(err, frame)
	}
	return e, nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
