// Package notification relays short-lived shopper-facing messages. Domain and
// store failures become notifications here instead of propagating as faults;
// entries expire on their own after a short TTL, like a toast.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindInfo    = "info"
	KindSuccess = "success"
	KindError   = "error"
)

// DefaultTTL is how long an entry stays live unless dismissed.
const DefaultTTL = 3 * time.Second

// Notification is one live message.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Relay holds live notifications and pushes them to subscribers.
type Relay struct {
	ttl time.Duration

	// OnPublish, when set before use, observes every published entry.
	OnPublish func(kind string)

	mu      sync.Mutex
	entries []Notification
	timers  map[string]*time.Timer
	subs    []chan Notification
	closed  bool
}

func NewRelay(ttl time.Duration) *Relay {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Relay{
		ttl:    ttl,
		timers: map[string]*time.Timer{},
	}
}

// Publish adds a notification and schedules its expiry.
func (r *Relay) Publish(kind, message string) Notification {
	n := Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return n
	}
	r.entries = append(r.entries, n)
	r.timers[n.ID] = time.AfterFunc(r.ttl, func() { r.Dismiss(n.ID) })
	subs := make([]chan Notification, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	if r.OnPublish != nil {
		r.OnPublish(kind)
	}
	for _, ch := range subs {
		select {
		case ch <- n:
		default:
		}
	}
	return n
}

// Info publishes an informational message.
func (r *Relay) Info(message string) { r.Publish(KindInfo, message) }

// Success publishes a success message.
func (r *Relay) Success(message string) { r.Publish(KindSuccess, message) }

// Error publishes an error message. The signature stays return-free so the
// relay satisfies mirror.Notifier.
func (r *Relay) Error(message string) { r.Publish(KindError, message) }

// Recent returns the live entries, oldest first.
func (r *Relay) Recent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// Dismiss removes an entry before its expiry. Unknown ids are ignored.
func (r *Relay) Dismiss(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if timer, ok := r.timers[id]; ok {
		timer.Stop()
		delete(r.timers, id)
	}
	for i, n := range r.entries {
		if n.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Subscribe returns a channel receiving future notifications and a cancel
// func the caller must invoke on teardown.
func (r *Relay) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 8)

	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, sub := range r.subs {
			if sub == ch {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

// Close stops expiry timers and drops all state.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
	r.entries = nil
}
