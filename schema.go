package feedws

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type (
	// PayloadValidator checks the structural shape of one kind's payload.
	PayloadValidator func(payload json.RawMessage) error

	schemaEntry struct {
		version  string
		validate PayloadValidator
	}

	// SchemaRegistry maps envelope kinds to their expected schema version
	// and an optional payload validator. It is scoped to one client
	// instance; there is no process-wide registry.
	SchemaRegistry struct {
		entries map[string]schemaEntry
	}
)

// NewSchemaRegistry returns a registry pre-loaded with every well-known
// kind at the baseline version.
func NewSchemaRegistry() *SchemaRegistry {
	r := &SchemaRegistry{entries: make(map[string]schemaEntry)}

	r.Register(KindConnection, BaselineSchemaVersion, requireFields("client_id"))
	r.Register(KindSubscribed, BaselineSchemaVersion, requireFields("events"))
	r.Register(KindUnsubscribed, BaselineSchemaVersion, requireFields("events"))
	r.Register(KindPing, BaselineSchemaVersion, nil)
	r.Register(KindPong, BaselineSchemaVersion, nil)
	r.Register(KindError, BaselineSchemaVersion, requireFields("message"))

	r.Register(KindPrice, BaselineSchemaVersion, requireFields("symbol", "price"))
	r.Register(KindExchangeRate, BaselineSchemaVersion, requireFields("base", "quote", "rate"))
	r.Register(KindSignal, BaselineSchemaVersion, requireFields("symbol", "action"))
	r.Register(KindMarketStatus, BaselineSchemaVersion, requireFields("market", "status"))
	r.Register(KindNews, BaselineSchemaVersion, requireFields("title"))

	return r
}

// Register adds or replaces the schema for a kind. A nil validator
// means any payload shape is accepted for that kind.
func (r *SchemaRegistry) Register(kind, version string, validate PayloadValidator) {
	r.entries[kind] = schemaEntry{version: version, validate: validate}
}

// Knows reports whether a kind is registered.
func (r *SchemaRegistry) Knows(kind string) bool {
	_, ok := r.entries[kind]
	return ok
}

// Version returns the expected schema version for a kind.
func (r *SchemaRegistry) Version(kind string) (string, bool) {
	e, ok := r.entries[kind]
	return e.version, ok
}

// Validate checks an envelope's payload against its kind's validator.
// Unknown kinds fail with ErrUnknownKind.
func (r *SchemaRegistry) Validate(e Envelope) error {
	entry, ok := r.entries[e.Kind]
	if !ok {
		return errors.Wrap(ErrUnknownKind, e.Kind)
	}
	if entry.validate == nil {
		return nil
	}
	return entry.validate(e.Payload)
}

// requireFields validates that the payload is a JSON object containing
// every named top-level key.
func requireFields(fields ...string) PayloadValidator {
	return func(payload json.RawMessage) error {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return wrapDecodeError(err, payload)
		}
		for _, f := range fields {
			if _, ok := obj[f]; !ok {
				return errors.Errorf("payload missing required field %q", f)
			}
		}
		return nil
	}
}
