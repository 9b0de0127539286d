package rental

import (
	"context"
	"errors"

	"github.com/matthewbaird/rentals/internal/dashboard"
	"github.com/matthewbaird/rentals/internal/filter"
	"github.com/matthewbaird/rentals/internal/reminder"
	"github.com/matthewbaird/rentals/internal/session"
	"github.com/matthewbaird/rentals/internal/store"
	"github.com/matthewbaird/rentals/internal/types"
)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// scoped loads a snapshot and restricts it to what p may see.
func (s *Service) scoped(ctx context.Context, p session.Principal) (dashboard.Snapshot, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	return dashboard.ScopeFor(p, snap), nil
}

// Dashboard computes the principal's role dashboard from current records.
func (s *Service) Dashboard(ctx context.Context, p session.Principal) (dashboard.View, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard.Build(p, snap, s.cfg.Dashboard, s.now())
}

// Revenue returns the trailing monthly revenue series over the payments the
// principal may see. months <= 0 uses the configured window.
func (s *Service) Revenue(ctx context.Context, p session.Principal, months int) ([]dashboard.MonthlyRevenue, error) {
	if p.Role == types.RoleTenant {
		return nil, ErrForbidden
	}
	if months <= 0 {
		months = s.cfg.Dashboard.RevenueMonths
	}
	if months > 120 {
		return nil, invalid("months", "at most 120, got %d", months)
	}
	snap, err := s.scoped(ctx, p)
	if err != nil {
		return nil, err
	}
	return dashboard.RevenueSeries(snap.Payments, s.now(), months), nil
}

// SearchHouses filters the visible houses by free text and status.
func (s *Service) SearchHouses(ctx context.Context, p session.Principal, query, status string) ([]types.House, error) {
	snap, err := s.scoped(ctx, p)
	if err != nil {
		return nil, err
	}
	return filter.Apply(snap.Houses, filter.Houses(query, status)), nil
}

// SearchTenants filters the visible tenants by free text and status.
func (s *Service) SearchTenants(ctx context.Context, p session.Principal, query, status string) ([]types.Tenant, error) {
	snap, err := s.scoped(ctx, p)
	if err != nil {
		return nil, err
	}
	return filter.Apply(snap.Tenants, filter.Tenants(query, status, snap.Houses)), nil
}

// SearchPayments filters the visible payments by free text and status.
func (s *Service) SearchPayments(ctx context.Context, p session.Principal, query, status string) ([]types.Payment, error) {
	snap, err := s.scoped(ctx, p)
	if err != nil {
		return nil, err
	}
	return filter.Apply(snap.Payments, filter.Payments(query, status, snap.Tenants, snap.Houses)), nil
}

// Reminders returns the rent and water reminders in effect now for the
// tenancies the principal may see.
func (s *Service) Reminders(ctx context.Context, p session.Principal) ([]types.Reminder, error) {
	snap, err := s.scoped(ctx, p)
	if err != nil {
		return nil, err
	}
	return reminder.Due(snap.Tenants, snap.Houses, snap.WaterBills, s.now(), reminder.Options{
		LeadDays: s.cfg.ReminderLeadDays,
		Currency: s.cfg.Currency,
	}), nil
}
