package feedws

import (
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeConn() *fakeTransport {
	return &fakeTransport{
		closeChan: make(CloseChan),
		closeCode: websocket.CloseAbnormalClosure,
	}
}

func TestGatewaySendFailsFastWhenNotOpen(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)

	env, err := NewEnvelope(KindPing, nil)
	require.NoError(t, err)

	assert.False(t, gw.Send(env))
}

func TestGatewaySendFailsAfterDeactivate(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)
	conn := newFakeConn()

	gw.activate(conn)
	gw.deactivate()

	env, err := NewEnvelope(KindPing, nil)
	require.NoError(t, err)

	assert.False(t, gw.Send(env))
	assert.Empty(t, conn.sentEnvelopes())
}

func TestGatewayStampsOutboundEnvelopes(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)
	conn := newFakeConn()
	gw.activate(conn)

	env, err := NewEnvelope(KindSubscribe, ChannelsPayload{Events: []string{"prices"}})
	require.NoError(t, err)
	// Whatever the caller supplied is overwritten.
	env.Timestamp = "bogus"
	env.SchemaVersion = "0.0"

	require.True(t, gw.Send(env))

	sent := conn.sentEnvelopes()
	require.Len(t, sent, 1)

	assert.Equal(t, BaselineSchemaVersion, sent[0].SchemaVersion)

	_, err = time.Parse(time.RFC3339Nano, sent[0].Timestamp)
	assert.NoError(t, err)

	_, err = uuid.Parse(sent[0].ID)
	assert.NoError(t, err)
}

func TestGatewayActivateSendsReplayFirst(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)
	conn := newFakeConn()

	replay, err := NewEnvelope(KindSubscribe, ChannelsPayload{Events: []string{"fx", "prices"}})
	require.NoError(t, err)

	gw.activate(conn, replay)

	ping, err := NewEnvelope(KindPing, nil)
	require.NoError(t, err)
	require.True(t, gw.Send(ping))

	sent := conn.sentEnvelopes()
	require.Len(t, sent, 2)
	assert.Equal(t, KindSubscribe, sent[0].Kind)
	assert.Equal(t, KindPing, sent[1].Kind)
}
