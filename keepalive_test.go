package feedws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepaliveEmitsPingsWhileOpen(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)
	conn := newFakeConn()
	gw.activate(conn)

	k := newKeepaliveMonitor(nopLogger{}, gw, 10*time.Millisecond)
	k.start()
	defer k.stop()

	require.Eventually(t, func() bool {
		return kindCount(conn.sentEnvelopes(), KindPing) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestKeepaliveStops(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)
	conn := newFakeConn()
	gw.activate(conn)

	k := newKeepaliveMonitor(nopLogger{}, gw, 10*time.Millisecond)
	k.start()

	require.Eventually(t, func() bool {
		return kindCount(conn.sentEnvelopes(), KindPing) >= 1
	}, time.Second, 5*time.Millisecond)

	k.stop()
	gw.deactivate()

	count := kindCount(conn.sentEnvelopes(), KindPing)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, kindCount(conn.sentEnvelopes(), KindPing))
}

func TestKeepaliveDisabled(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)
	conn := newFakeConn()
	gw.activate(conn)

	k := newKeepaliveMonitor(nopLogger{}, gw, -1)
	k.start()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, conn.sentEnvelopes())
	k.stop()
}

func TestKeepaliveStartIsIdempotent(t *testing.T) {
	gw := newGateway(nopLogger{}, BaselineSchemaVersion)
	conn := newFakeConn()
	gw.activate(conn)

	k := newKeepaliveMonitor(nopLogger{}, gw, time.Hour)
	k.start()
	k.start()
	k.stop()
	k.stop()
	_ = conn
}
