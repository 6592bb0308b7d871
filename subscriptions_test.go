package feedws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeIsIdempotent(t *testing.T) {
	s := newSubscriptionRegistry(nopLogger{})

	s.add([]string{"prices", "fx"})
	first := s.snapshot()

	s.add([]string{"prices", "fx"})
	second := s.snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"fx", "prices"}, second)
}

func TestSubscribeKeepsOriginalRequestTime(t *testing.T) {
	s := newSubscriptionRegistry(nopLogger{})

	s.add([]string{"prices"})
	original := s.desired["prices"].RequestedAt

	s.add([]string{"prices"})
	assert.Equal(t, original, s.desired["prices"].RequestedAt)
}

func TestUnsubscribeRemovesFromDesiredSet(t *testing.T) {
	s := newSubscriptionRegistry(nopLogger{})

	s.add([]string{"prices", "fx", "news"})
	s.remove([]string{"fx", "absent"})

	assert.Equal(t, []string{"news", "prices"}, s.snapshot())
}

func TestReplayEnvelopeCarriesFullDesiredSet(t *testing.T) {
	s := newSubscriptionRegistry(nopLogger{})

	s.add([]string{"prices", "fx"})

	env, ok := s.replayEnvelope()
	require.True(t, ok)
	assert.Equal(t, KindSubscribe, env.Kind)

	payload, err := decodePayload[ChannelsPayload](env)
	require.NoError(t, err)
	assert.Equal(t, []string{"fx", "prices"}, payload.Events)
}

func TestReplayEnvelopeEmptySet(t *testing.T) {
	s := newSubscriptionRegistry(nopLogger{})

	_, ok := s.replayEnvelope()
	assert.False(t, ok)
}
