package feedws

import (
	"sort"
	"sync"
	"time"
)

// ChannelSubscription is one logical channel the caller wants delivered.
// It survives reconnections: the registry re-announces it, the entry is
// never recreated.
type ChannelSubscription struct {
	Name        string
	RequestedAt time.Time
}

// subscriptionRegistry owns the caller's desired-channel set. The
// confirmed set lives in ConnectionInfo and is maintained by the
// dispatcher from server acknowledgements; this registry never touches it.
type subscriptionRegistry struct {
	logger Logger

	mu      sync.Mutex
	desired map[string]ChannelSubscription
}

func newSubscriptionRegistry(logger Logger) *subscriptionRegistry {
	return &subscriptionRegistry{
		logger:  logger.WithField("component", "subscriptions"),
		desired: make(map[string]ChannelSubscription),
	}
}

// add records the channels in the desired set. Already-desired channels
// keep their original RequestedAt. Returns the channels as given, for
// the wire request.
func (s *subscriptionRegistry) add(channels []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, name := range channels {
		if _, ok := s.desired[name]; ok {
			continue
		}
		s.desired[name] = ChannelSubscription{Name: name, RequestedAt: now}
	}
	return channels
}

// remove drops the channels from the desired set.
func (s *subscriptionRegistry) remove(channels []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range channels {
		delete(s.desired, name)
	}
}

// snapshot returns the full desired set, sorted for deterministic wire
// requests.
func (s *subscriptionRegistry) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.desired))
	for name := range s.desired {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// replayEnvelope builds the single subscribe request re-announcing the
// whole desired set after a (re)connection. Returns false when there is
// nothing to replay.
func (s *subscriptionRegistry) replayEnvelope() (Envelope, bool) {
	channels := s.snapshot()
	if len(channels) == 0 {
		return Envelope{}, false
	}

	env, err := NewEnvelope(KindSubscribe, ChannelsPayload{Events: channels})
	if err != nil {
		s.logger.Errorf("cannot build replay request: %s", err)
		return Envelope{}, false
	}
	s.logger.Infof("replaying %d channel subscription(s)", len(channels))
	return env, true
}
