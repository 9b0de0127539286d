// Package ledger holds the rules that move tenant balances in response to
// payments and billing-cycle accruals.
//
// The functions here are pure: they take a tenant by value and return the
// updated copy. A failed call returns the tenant unchanged. Book adds
// duplicate detection keyed by payment id; it does not serialise concurrent
// callers.
package ledger

import (
	"fmt"
	"log"
	"time"

	"github.com/matthewbaird/rentals/internal/types"
)

// Components returns how much of the payment settles rent and how much
// settles water. Both are non-negative.
func Components(p types.Payment) (rentCents, waterCents int64, err error) {
	if p.AmountCents <= 0 {
		return 0, 0, fmt.Errorf("%w: payment %s amount %d must be positive", ErrInvalidAmount, p.ID, p.AmountCents)
	}
	switch p.Type {
	case types.PaymentRent:
		return p.AmountCents, 0, nil
	case types.PaymentWater:
		return 0, p.AmountCents, nil
	case types.PaymentCombined:
		s := p.Split
		if s == nil || s.RentCents < 0 || s.WaterCents < 0 || s.RentCents+s.WaterCents != p.AmountCents {
			return 0, 0, &SplitMismatchError{PaymentID: p.ID, AmountCents: p.AmountCents, Split: s}
		}
		return s.RentCents, s.WaterCents, nil
	case types.PaymentOther:
		return 0, 0, nil
	default:
		return 0, 0, fmt.Errorf("payment %s has unknown type %q", p.ID, p.Type)
	}
}

// ApplyPayment reduces the tenant's balances by a completed payment.
// Overpayment leaves a negative balance (credit); nothing is clamped.
func ApplyPayment(tenant types.Tenant, p types.Payment) (types.Tenant, error) {
	if p.TenantID != tenant.ID {
		return tenant, fmt.Errorf("%w: payment %s is for tenant %s, not %s", ErrTenantMismatch, p.ID, p.TenantID, tenant.ID)
	}
	if p.Status != types.PaymentCompleted {
		return tenant, fmt.Errorf("%w: payment %s is %s", ErrNotCompleted, p.ID, p.Status)
	}
	rent, water, err := Components(p)
	if err != nil {
		return tenant, err
	}
	if p.Type == types.PaymentOther {
		log.Printf("ledger: payment %s (other) recorded for tenant %s without balance change", p.ID, tenant.ID)
	}
	tenant.RentBalanceCents -= rent
	tenant.WaterBillBalanceCents -= water
	return tenant, nil
}

// Accrue adds a billing cycle's charges to the tenant's balances. An
// existing credit absorbs the charge naturally; it is never auto-applied
// elsewhere.
func Accrue(tenant types.Tenant, rentCents, waterCents int64) (types.Tenant, error) {
	if rentCents < 0 || waterCents < 0 {
		return tenant, fmt.Errorf("%w: accrual rent=%d water=%d must be >= 0", ErrInvalidAmount, rentCents, waterCents)
	}
	tenant.RentBalanceCents += rentCents
	tenant.WaterBillBalanceCents += waterCents
	return tenant, nil
}

// Entry records one applied payment so it can be detected as a duplicate and
// reversed exactly once.
type Entry struct {
	PaymentID  string     `json:"payment_id"`
	TenantID   string     `json:"tenant_id"`
	RentCents  int64      `json:"rent_cents"`
	WaterCents int64      `json:"water_cents"`
	AppliedAt  time.Time  `json:"applied_at"`
	ReversedAt *time.Time `json:"reversed_at,omitempty"`
}

// Book tracks which payments have been applied.
type Book struct {
	entries map[string]Entry
}

// NewBook rebuilds a Book from persisted entries.
func NewBook(entries []Entry) *Book {
	b := &Book{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		b.entries[e.PaymentID] = e
	}
	return b
}

// Lookup returns the entry for a payment, if it was ever applied.
func (b *Book) Lookup(paymentID string) (Entry, bool) {
	e, ok := b.entries[paymentID]
	return e, ok
}

// Apply applies a completed payment once. A second Apply for the same
// payment id fails with DuplicateApplicationError, even after a reversal.
func (b *Book) Apply(tenant types.Tenant, p types.Payment, at time.Time) (types.Tenant, Entry, error) {
	if _, seen := b.entries[p.ID]; seen {
		return tenant, Entry{}, &DuplicateApplicationError{PaymentID: p.ID, Op: "apply"}
	}
	updated, err := ApplyPayment(tenant, p)
	if err != nil {
		return tenant, Entry{}, err
	}
	rent, water, _ := Components(p)
	e := Entry{
		PaymentID:  p.ID,
		TenantID:   tenant.ID,
		RentCents:  rent,
		WaterCents: water,
		AppliedAt:  at,
	}
	b.entries[p.ID] = e
	return updated, e, nil
}

// Reverse undoes an applied payment exactly once, restoring the amounts it
// removed from each balance.
func (b *Book) Reverse(tenant types.Tenant, paymentID string, at time.Time) (types.Tenant, Entry, error) {
	e, ok := b.entries[paymentID]
	if !ok {
		return tenant, Entry{}, fmt.Errorf("%w: payment %s was never applied", ErrNotCompleted, paymentID)
	}
	if e.ReversedAt != nil {
		return tenant, Entry{}, &DuplicateApplicationError{PaymentID: paymentID, Op: "reverse"}
	}
	if e.TenantID != tenant.ID {
		return tenant, Entry{}, fmt.Errorf("%w: payment %s was applied to tenant %s", ErrTenantMismatch, paymentID, e.TenantID)
	}
	tenant.RentBalanceCents += e.RentCents
	tenant.WaterBillBalanceCents += e.WaterCents
	reversedAt := at
	e.ReversedAt = &reversedAt
	b.entries[paymentID] = e
	return tenant, e, nil
}

// Transition moves a payment to target. Only pending→completed touches the
// tenant, and it does so through Apply, so it happens at most once per
// payment id. The returned entry is non-nil only when balances moved.
func (b *Book) Transition(tenant types.Tenant, p types.Payment, target types.PaymentStatus, at time.Time) (types.Tenant, types.Payment, *Entry, error) {
	if err := ValidateTransition(p.Status, target); err != nil {
		if te, ok := err.(*InvalidStateTransitionError); ok {
			te.PaymentID = p.ID
		}
		return tenant, p, nil, err
	}
	next := p
	next.Status = target
	if target != types.PaymentCompleted {
		return tenant, next, nil, nil
	}
	updated, e, err := b.Apply(tenant, next, at)
	if err != nil {
		return tenant, p, nil, err
	}
	return updated, next, &e, nil
}
