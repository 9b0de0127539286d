package store

import (
	"context"
	"sync"

	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/types"
)

// MemoryStore implements Repository using in-memory maps.
// Suitable for development, tests and the demo server.
type MemoryStore struct {
	mu sync.RWMutex
	d  *memData
}

type memData struct {
	houses        *table[types.House]
	tenants       *table[types.Tenant]
	payments      *table[types.Payment]
	waterBills    *table[types.WaterBill]
	notifications *table[types.Notification]
	maintenance   *table[types.MaintenanceRequest]
	entries       *table[ledger.Entry]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{d: &memData{
		houses:        newTable[types.House](),
		tenants:       newTable[types.Tenant](),
		payments:      newTable[types.Payment](),
		waterBills:    newTable[types.WaterBill](),
		notifications: newTable[types.Notification](),
		maintenance:   newTable[types.MaintenanceRequest](),
		entries:       newTable[ledger.Entry](),
	}}
}

func (d *memData) clone() *memData {
	return &memData{
		houses:        d.houses.clone(),
		tenants:       d.tenants.clone(),
		payments:      d.payments.clone(),
		waterBills:    d.waterBills.clone(),
		notifications: d.notifications.clone(),
		maintenance:   d.maintenance.clone(),
		entries:       d.entries.clone(),
	}
}

// table keeps rows by id and remembers first-insertion order.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{
		order: append([]string(nil), t.order...),
		rows:  make(map[string]T, len(t.rows)),
	}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

func (s *MemoryStore) LoadHouses(_ context.Context) ([]types.House, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.houses.all(), nil
}

func (s *MemoryStore) LoadTenants(_ context.Context) ([]types.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.tenants.all(), nil
}

func (s *MemoryStore) LoadPayments(_ context.Context) ([]types.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.payments.all(), nil
}

func (s *MemoryStore) LoadWaterBills(_ context.Context) ([]types.WaterBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.waterBills.all(), nil
}

func (s *MemoryStore) LoadNotifications(_ context.Context) ([]types.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.notifications.all(), nil
}

func (s *MemoryStore) LoadMaintenance(_ context.Context) ([]types.MaintenanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.maintenance.all(), nil
}

func (s *MemoryStore) LoadLedgerEntries(_ context.Context) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.entries.all(), nil
}

func (s *MemoryStore) GetHouse(_ context.Context, id string) (types.House, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.d.houses.get(id)
	if !ok {
		return types.House{}, notFound("house", id)
	}
	return h, nil
}

func (s *MemoryStore) GetTenant(_ context.Context, id string) (types.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.d.tenants.get(id)
	if !ok {
		return types.Tenant{}, notFound("tenant", id)
	}
	return t, nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id string) (types.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.d.payments.get(id)
	if !ok {
		return types.Payment{}, notFound("payment", id)
	}
	return p, nil
}

func (s *MemoryStore) SaveHouse(_ context.Context, h types.House) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.houses.put(h.ID, h)
	return nil
}

func (s *MemoryStore) SaveTenant(_ context.Context, t types.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.tenants.put(t.ID, t)
	return nil
}

func (s *MemoryStore) SavePayment(_ context.Context, p types.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Split != nil {
		split := *p.Split
		p.Split = &split
	}
	s.d.payments.put(p.ID, p)
	return nil
}

func (s *MemoryStore) SaveWaterBill(_ context.Context, b types.WaterBill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.waterBills.put(b.ID, b)
	return nil
}

func (s *MemoryStore) SaveNotification(_ context.Context, n types.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.notifications.put(n.ID, n)
	return nil
}

func (s *MemoryStore) SaveMaintenance(_ context.Context, m types.MaintenanceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.maintenance.put(m.ID, m)
	return nil
}

func (s *MemoryStore) SaveLedgerEntry(_ context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.entries.put(e.PaymentID, e)
	return nil
}

// Atomic holds the write lock for the duration of fn and runs it against a
// copy of the data, which replaces the live data only if fn succeeds. fn must
// use the Repository it is given; calling back into s deadlocks.
func (s *MemoryStore) Atomic(_ context.Context, fn func(Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &MemoryStore{d: s.d.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.d = tx.d
	return nil
}
