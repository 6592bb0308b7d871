package feedws

import (
	"sync"
	"testing"
)

func TestEmitterSingleListener(t *testing.T) {
	emitter := NewEventEmitter[EventType, StateChange]()
	var mu sync.Mutex
	var results []StateChange

	emitter.On(EventConnect, func(change StateChange) {
		mu.Lock()
		results = append(results, change)
		mu.Unlock()
	})

	emitter.Emit(EventConnect, StateChange{From: StateConnecting, To: StateOpen})

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0].To != StateOpen {
		t.Errorf("expected one open transition, got %v", results)
	}
}

func TestEmitterMultipleListeners(t *testing.T) {
	emitter := NewEventEmitter[EventType, StateChange]()
	var mu sync.Mutex
	calls := 0

	for i := 0; i < 2; i++ {
		emitter.On(EventClose, func(StateChange) {
			mu.Lock()
			calls++
			mu.Unlock()
		})
	}

	emitter.Emit(EventClose, StateChange{From: StateOpen, To: StateClosed})

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("expected 2 callbacks, got %d", calls)
	}
}

func TestEmitterNoListeners(t *testing.T) {
	emitter := NewEventEmitter[EventType, StateChange]()
	// Emitting with no listeners must be a harmless no-op.
	emitter.Emit(EventReconnect, StateChange{})
}

func TestEmitterClose(t *testing.T) {
	emitter := NewEventEmitter[EventType, StateChange]()
	fired := false

	emitter.On(EventConnect, func(StateChange) {
		fired = true
	})

	emitter.Close()
	emitter.Emit(EventConnect, StateChange{})

	if fired {
		t.Error("listener fired after Close")
	}
}

func TestEmitterConcurrent(t *testing.T) {
	emitter := NewEventEmitter[EventType, StateChange]()
	var mu sync.Mutex
	calls := 0
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emitter.On(EventStateChange, func(StateChange) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	for j := 0; j < 10; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emitter.Emit(EventStateChange, StateChange{})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 100 {
		t.Errorf("expected 100 callbacks, got %d", calls)
	}
}
