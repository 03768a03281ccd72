package usecase

import (
	"context"
	"sync"

	domain "github.com/nexflow/easepay-confirm/internal/entity"
)

// fakeLedger is an in-memory OrderLedger with the same guarded-update
// semantics as the MySQL adapter, plus call counters for the side-effect
// assertions. Set the err fields to simulate a failing store.
type fakeLedger struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order

	getErr      error
	markPaidErr error
	updateErr   error
	adjustErr   error

	gets             int
	markPaidApplied  int
	reservesApplied  int
	releasesApplied  int
	statusTransition int
}

func newFakeLedger(orders ...*domain.Order) *fakeLedger {
	l := &fakeLedger{orders: make(map[int64]*domain.Order)}
	for _, o := range orders {
		cp := *o
		l.orders[o.ID] = &cp
	}
	return l
}

func (l *fakeLedger) Get(_ context.Context, orderID int64) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gets++
	if l.getErr != nil {
		return nil, l.getErr
	}
	o, ok := l.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (l *fakeLedger) UpdateStatusIf(_ context.Context, orderID int64, from, to domain.Status, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.updateErr != nil {
		return false, l.updateErr
	}
	o, ok := l.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	l.statusTransition++
	return true, nil
}

func (l *fakeLedger) MarkPaid(_ context.Context, orderID int64, txRef string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.markPaidErr != nil {
		return false, l.markPaidErr
	}
	o, ok := l.orders[orderID]
	if !ok {
		return false, nil
	}
	if o.Status != domain.StatusAwaitingPayment && o.Status != domain.StatusOnHold {
		return false, nil
	}
	o.Status = domain.StatusPaid
	if o.TxRef == "" {
		o.TxRef = txRef
	}
	l.markPaidApplied++
	return true, nil
}

func (l *fakeLedger) AdjustInventory(_ context.Context, orderID int64, dir InventoryDirection) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.adjustErr != nil {
		return false, l.adjustErr
	}
	o, ok := l.orders[orderID]
	if !ok {
		return false, nil
	}
	switch dir {
	case InventoryReserve:
		if o.InventoryReserved {
			return false, nil
		}
		o.InventoryReserved = true
		l.reservesApplied++
	case InventoryRelease:
		if !o.InventoryReserved {
			return false, nil
		}
		o.InventoryReserved = false
		l.releasesApplied++
	}
	return true, nil
}

func (l *fakeLedger) order(id int64) domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.orders[id]
}

type fakeAnomalySink struct {
	mu   sync.Mutex
	recs []AnomalyRecord
}

func (s *fakeAnomalySink) Record(_ context.Context, rec AnomalyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *fakeAnomalySink) records() []AnomalyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AnomalyRecord(nil), s.recs...)
}

type fakeAlerts struct {
	mu   sync.Mutex
	recs []AnomalyRecord
}

func (a *fakeAlerts) PublishAnomaly(_ context.Context, rec AnomalyRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
	return nil
}

type fakeStatusCache struct {
	mu sync.Mutex
	m  map[int64]string
}

func newFakeStatusCache() *fakeStatusCache {
	return &fakeStatusCache{m: make(map[int64]string)}
}

func (c *fakeStatusCache) SetStatus(_ context.Context, orderID int64, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[orderID] = status
	return nil
}

func (c *fakeStatusCache) GetStatus(_ context.Context, orderID int64) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[orderID]
	return s, ok, nil
}
