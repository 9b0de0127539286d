// Package rental orchestrates the billing, ledger and dashboard rules over a
// store.Repository. It is the only place mutations are serialised; the rule
// packages it calls hold no state of their own.
package rental

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matthewbaird/rentals/internal/dashboard"
	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/reminder"
	"github.com/matthewbaird/rentals/internal/store"
	"github.com/matthewbaird/rentals/internal/types"
)

// Config holds the tunables the service applies to every operation.
type Config struct {
	Currency            string
	WaterUnitPriceCents int64
	// WaterBillDueDays is how long a tenant has to pay a water bill after
	// the reading is taken.
	WaterBillDueDays int
	ReminderLeadDays int
	Dashboard        dashboard.Options
}

// DefaultConfig bills water at KES 1.50 per unit, due 14 days after the
// reading.
func DefaultConfig() Config {
	return Config{
		Currency:            types.DefaultCurrency,
		WaterUnitPriceCents: 150,
		WaterBillDueDays:    14,
		ReminderLeadDays:    reminder.DefaultLeadDays,
		Dashboard:           dashboard.DefaultOptions(),
	}
}

// Service runs rental operations. Reads recompute every aggregate from the
// repository; nothing is cached.
type Service struct {
	mu   sync.Mutex
	repo store.Repository
	rec  event.Recorder
	cfg  Config
	now  func() time.Time
}

// New creates a Service. rec may be nil, in which case no events are recorded.
func New(repo store.Repository, rec event.Recorder, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = types.DefaultCurrency
	}
	if cfg.Dashboard.RecentLimit <= 0 {
		cfg.Dashboard.RecentLimit = dashboard.DefaultOptions().RecentLimit
	}
	if cfg.Dashboard.RevenueMonths <= 0 {
		cfg.Dashboard.RevenueMonths = dashboard.DefaultOptions().RevenueMonths
	}
	if cfg.Dashboard.MovedOut == "" {
		cfg.Dashboard.MovedOut = dashboard.MovedOutExclude
	}
	return &Service{repo: repo, rec: rec, cfg: cfg, now: time.Now}
}

// SetClock replaces the time source. Intended for tests and replays.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the service's current time.
func (s *Service) Now() time.Time { return s.now() }

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// mutate runs fn inside one repository transaction while holding the service
// lock, then records the events fn produced. Events are only recorded when
// the transaction commits.
func (s *Service) mutate(ctx context.Context, fn func(tx store.Repository, emit func(event.DomainEvent)) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []event.DomainEvent
	err := s.repo.Atomic(ctx, func(tx store.Repository) error {
		pending = pending[:0]
		return fn(tx, func(evt event.DomainEvent) { pending = append(pending, evt) })
	})
	if err != nil {
		return err
	}
	s.record(ctx, pending)
	return nil
}

// record writes events best-effort. A failure is logged and never undoes the
// committed mutation.
func (s *Service) record(ctx context.Context, evts []event.DomainEvent) {
	if s.rec == nil {
		return
	}
	for _, evt := range evts {
		if err := s.rec.Record(ctx, evt); err != nil {
			log.Printf("rental: recording %s failed: %v", evt.EventType, err)
		}
	}
}

func (s *Service) money(cents int64) types.Money {
	return types.NewMoney(cents, s.cfg.Currency)
}

// book rebuilds the application book from the persisted entries.
func book(ctx context.Context, tx store.Repository) (*ledger.Book, error) {
	entries, err := tx.LoadLedgerEntries(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.NewBook(entries), nil
}

// snapshot loads every collection a dashboard can be computed from. All
// loads run in one repository transaction, so a payment committed meanwhile
// is seen either completely or not at all.
func (s *Service) snapshot(ctx context.Context) (dashboard.Snapshot, error) {
	var snap dashboard.Snapshot
	err := s.repo.Atomic(ctx, func(tx store.Repository) error {
		var err error
		if snap.Houses, err = tx.LoadHouses(ctx); err != nil {
			return err
		}
		if snap.Tenants, err = tx.LoadTenants(ctx); err != nil {
			return err
		}
		if snap.Payments, err = tx.LoadPayments(ctx); err != nil {
			return err
		}
		if snap.WaterBills, err = tx.LoadWaterBills(ctx); err != nil {
			return err
		}
		if snap.Notifications, err = tx.LoadNotifications(ctx); err != nil {
			return err
		}
		snap.Maintenance, err = tx.LoadMaintenance(ctx)
		return err
	})
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	return snap, nil
}

// occupant returns the tenant currently living in the house.
func occupant(tenants []types.Tenant, houseID string) (types.Tenant, bool) {
	for _, t := range tenants {
		if t.HouseID == houseID && t.Status != types.TenantMovedOut {
			return t, true
		}
	}
	return types.Tenant{}, false
}
