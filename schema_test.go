package feedws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaRegistryKnowsBuiltinKinds(t *testing.T) {
	r := NewSchemaRegistry()

	for _, kind := range []string{
		KindConnection, KindSubscribed, KindUnsubscribed, KindPong, KindError,
		KindPrice, KindExchangeRate, KindSignal, KindMarketStatus, KindNews,
	} {
		assert.True(t, r.Knows(kind), "kind %q should be registered", kind)
	}

	assert.False(t, r.Knows("galactic_weather"))
}

func TestSchemaRegistryVersion(t *testing.T) {
	r := NewSchemaRegistry()

	v, ok := r.Version(KindPrice)
	require.True(t, ok)
	assert.Equal(t, BaselineSchemaVersion, v)

	_, ok = r.Version("nope")
	assert.False(t, ok)
}

func TestSchemaRegistryRegisterReplaces(t *testing.T) {
	r := NewSchemaRegistry()
	r.Register(KindPrice, "2.0", nil)

	v, ok := r.Version(KindPrice)
	require.True(t, ok)
	assert.Equal(t, "2.0", v)

	// nil validator accepts anything
	env := Envelope{Kind: KindPrice, Payload: json.RawMessage(`"whatever"`)}
	assert.NoError(t, r.Validate(env))
}

func TestSchemaRegistryValidate(t *testing.T) {
	r := NewSchemaRegistry()

	valid := Envelope{
		Kind:    KindPrice,
		Payload: json.RawMessage(`{"symbol":"005930","price":"71200"}`),
	}
	assert.NoError(t, r.Validate(valid))

	missing := Envelope{
		Kind:    KindPrice,
		Payload: json.RawMessage(`{"symbol":"005930"}`),
	}
	assert.Error(t, r.Validate(missing))

	unknown := Envelope{Kind: "nope"}
	assert.ErrorIs(t, r.Validate(unknown), ErrUnknownKind)
}

func TestRequireFieldsNonObjectPayload(t *testing.T) {
	v := requireFields("symbol")
	err := v(json.RawMessage(`[1,2,3]`))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}
