package usecase

import "sync"

// OrderLocks serializes all mutations for one order while letting distinct
// orders proceed independently. Entries are reference counted so the map
// does not grow with the order space.
type OrderLocks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewOrderLocks() *OrderLocks {
	return &OrderLocks{entries: make(map[int64]*lockEntry)}
}

// Lock blocks until the per-order lock is held and returns the release func.
func (l *OrderLocks) Lock(orderID int64) func() {
	l.mu.Lock()
	e, ok := l.entries[orderID]
	if !ok {
		e = &lockEntry{}
		l.entries[orderID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, orderID)
		}
		l.mu.Unlock()
	}
}
