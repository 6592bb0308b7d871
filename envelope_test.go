package feedws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	frame := []byte(`{"kind":"price","payload":{"symbol":"005930","price":"71200"},"timestamp":"2026-08-29T09:00:00Z"}`)

	env, err := decodeEnvelope(frame)
	require.NoError(t, err)

	assert.Equal(t, KindPrice, env.Kind)
	assert.Equal(t, "2026-08-29T09:00:00Z", env.Timestamp)
	assert.NotEmpty(t, env.Payload)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	_, err := decodeEnvelope([]byte(`{"kind":`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestEnvelopeVersionDefaultsToBaseline(t *testing.T) {
	env := Envelope{Kind: KindPrice}
	assert.Equal(t, BaselineSchemaVersion, env.Version())

	env.SchemaVersion = "2.1"
	assert.Equal(t, "2.1", env.Version())
}

func TestNewEnvelopeMarshalsPayload(t *testing.T) {
	env, err := NewEnvelope(KindSubscribe, ChannelsPayload{Events: []string{"prices"}})
	require.NoError(t, err)

	payload, err := decodePayload[ChannelsPayload](env)
	require.NoError(t, err)
	assert.Equal(t, []string{"prices"}, payload.Events)
}

func TestNewEnvelopeNilPayload(t *testing.T) {
	env, err := NewEnvelope(KindPing, nil)
	require.NoError(t, err)
	assert.Empty(t, env.Payload)

	frame, err := env.marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(frame), "payload")
}
