package event

import (
	"sync"
	"time"

	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// Handler is a subscriber callback. Handlers run synchronously on the
// goroutine performing the triggering transition; they should be short.
type Handler func(Event)

type subscription struct {
	id      int
	names   map[string]bool // nil means all events
	handler Handler
}

// Emitter is a synchronous observer registry. Subscribers receive events in
// registration order; a panicking subscriber never prevents delivery to the
// others or corrupts orchestrator state.
type Emitter struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
}

// NewEmitter creates a new, empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers a handler for the given event names. With no names the
// handler receives every event. It returns an unsubscribe function.
func (e *Emitter) Subscribe(h Handler, names ...string) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	var nameSet map[string]bool
	if len(names) > 0 {
		nameSet = make(map[string]bool, len(names))
		for _, n := range names {
			nameSet[n] = true
		}
	}

	id := e.nextID
	e.nextID++
	e.subs = append(e.subs, subscription{id: id, names: nameSet, handler: h})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of registered subscriptions.
func (e *Emitter) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// Emit dispatches the event synchronously, in registration order, to every
// subscriber registered for its name at the moment of the call. A zero
// Timestamp is filled in with the current time.
func (e *Emitter) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	e.mu.RLock()
	subs := make([]subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.RUnlock()

	for _, s := range subs {
		if s.names != nil && !s.names[ev.Name] {
			continue
		}
		e.dispatch(s, ev)
	}
}

// dispatch invokes one handler, isolating its panics.
func (e *Emitter) dispatch(s subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Event subscriber panicked on '%s' (job %s): %v", ev.Name, ev.JobID, r)
		}
	}()
	s.handler(ev)
}
