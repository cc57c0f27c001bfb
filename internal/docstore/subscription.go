package docstore

import "sync"

// Snapshot is one delivery on a subscription: the full ordered contents of the
// watched collection, or a single document for document watches. Snapshots are
// immutable; last snapshot wins.
type Snapshot struct {
	Docs []Document

	// Exists reports document presence for document watches. Always true
	// for collection watches.
	Exists bool
}

// Subscription is a cancellable handle on a live collection or document.
// Consumers range over Snapshots and must call Close when the owning view or
// session ends. After the channel closes, Err reports why.
type Subscription struct {
	snapshots chan Snapshot
	done      chan struct{}

	mu      sync.Mutex
	err     error
	closed  bool
	onClose func()
}

func newSubscription(onClose func()) *Subscription {
	return &Subscription{
		snapshots: make(chan Snapshot, 1),
		done:      make(chan struct{}),
		onClose:   onClose,
	}
}

// Snapshots yields snapshots in backend emission order. Delivery coalesces:
// if the consumer lags, intermediate snapshots are replaced by newer ones.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Err returns the terminal error, if any, once Snapshots is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeWithErr(nil)
}

func (s *Subscription) closeWithErr(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	onClose := s.onClose
	s.mu.Unlock()

	close(s.done)
	if onClose != nil {
		onClose()
	}
	close(s.snapshots)
}

// send delivers a snapshot without blocking: a stale undelivered snapshot in
// the buffer is dropped in favour of the new one.
func (s *Subscription) send(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.snapshots <- snap:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}
