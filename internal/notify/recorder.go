package notify

import (
	"context"
	"sync"
)

// Recorder is a Notifier that keeps every event it receives. Used in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned from every Notify call when set
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.Err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
