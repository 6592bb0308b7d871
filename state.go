package feedws

import (
	"time"
)

// ConnectionState is the single authoritative lifecycle state of the
// client. It is owned by the connection manager; every other component
// reads it but never mutates it.
type ConnectionState int32

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateReconnecting
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConnectionInfo is the observable, derived state of the current
// connection. AssignedClientID and AvailableChannels are replaced on
// every handshake; SubscribedChannels tracks server acknowledgements,
// not caller intent.
type ConnectionInfo struct {
	AssignedClientID   string
	ConnectedAt        time.Time
	ReconnectAttempts  int
	AvailableChannels  []string
	SubscribedChannels []string
	LastPongAt         time.Time
}

func (i ConnectionInfo) clone() ConnectionInfo {
	out := i
	out.AvailableChannels = append([]string(nil), i.AvailableChannels...)
	out.SubscribedChannels = append([]string(nil), i.SubscribedChannels...)
	return out
}

// retryBudget bounds automatic reconnection. Once attemptsUsed reaches
// maxAttempts the state machine parks in StateFailed until the caller
// resets it through an explicit Reconnect.
type retryBudget struct {
	maxAttempts  int
	attemptsUsed int
	fixedDelay   time.Duration
}

func (b *retryBudget) exhausted() bool {
	return b.attemptsUsed >= b.maxAttempts
}

func (b *retryBudget) spend() {
	b.attemptsUsed++
}

func (b *retryBudget) reset() {
	b.attemptsUsed = 0
}
