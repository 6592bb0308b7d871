package feedws

// EventType identifies a connection lifecycle notification delivered to
// state listeners.
type EventType byte

const (
	EventConnect EventType = iota + 1
	EventClose
	EventReconnect
	EventStateChange
)

func (e EventType) String() string {
	switch e {
	case EventConnect:
		return "connect"
	case EventClose:
		return "close"
	case EventReconnect:
		return "reconnect"
	case EventStateChange:
		return "state_change"
	default:
		return "unknown"
	}
}

// StateChange is the payload delivered with every lifecycle event.
type StateChange struct {
	From ConnectionState
	To   ConnectionState
	Err  error
}
