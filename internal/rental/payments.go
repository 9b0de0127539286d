package rental

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/store"
	"github.com/matthewbaird/rentals/internal/types"
)

// NewPayment is the input to RecordPayment.
type NewPayment struct {
	TenantID    string              `json:"tenant_id"`
	AmountCents int64               `json:"amount_cents"`
	Type        types.PaymentType   `json:"type"`
	Status      types.PaymentStatus `json:"status"` // pending (default) or completed
	Method      string              `json:"method"`
	Reference   string              `json:"reference"`
	Description string              `json:"description"`
	Date        time.Time           `json:"date"`
	Split       *types.PaymentSplit `json:"split,omitempty"`
}

// PaymentResult is a payment together with the tenant balances after the
// operation.
type PaymentResult struct {
	Payment types.Payment `json:"payment"`
	Tenant  types.Tenant  `json:"tenant"`
}

func (np NewPayment) validate() error {
	if strings.TrimSpace(np.TenantID) == "" {
		return invalid("tenant_id", "is required")
	}
	if np.AmountCents <= 0 {
		return invalid("amount_cents", "must be positive, got %d", np.AmountCents)
	}
	if !np.Type.Valid() {
		return invalid("type", "unknown payment type %q", np.Type)
	}
	switch np.Status {
	case "", types.PaymentPending, types.PaymentCompleted:
	default:
		return invalid("status", "a new payment must be pending or completed, got %q", np.Status)
	}
	if np.Split != nil && np.Type != types.PaymentCombined {
		return invalid("split", "only combined payments carry a split")
	}
	return nil
}

// RecordPayment stores a new payment. A payment recorded as completed is
// applied to the tenant's balances in the same transaction; a pending one
// waits for VerifyPayment. A combined payment's split is checked up front so
// a bad split is never stored.
func (s *Service) RecordPayment(ctx context.Context, np NewPayment) (PaymentResult, error) {
	if err := np.validate(); err != nil {
		return PaymentResult{}, err
	}

	p := types.Payment{
		ID:          uuid.NewString(),
		TenantID:    np.TenantID,
		AmountCents: np.AmountCents,
		Type:        np.Type,
		Status:      np.Status,
		Method:      np.Method,
		Reference:   np.Reference,
		Description: np.Description,
		Date:        np.Date,
		Split:       np.Split,
	}
	if p.Status == "" {
		p.Status = types.PaymentPending
	}
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	if _, _, err := ledger.Components(p); err != nil {
		return PaymentResult{}, err
	}

	var res PaymentResult
	err := s.mutate(ctx, func(tx store.Repository, emit func(event.DomainEvent)) error {
		tenant, err := tx.GetTenant(ctx, p.TenantID)
		if err != nil {
			return err
		}
		p.HouseID = tenant.HouseID
		house, err := s.houseOf(ctx, tx, tenant)
		if err != nil {
			return err
		}

		if p.Status == types.PaymentCompleted {
			b, err := book(ctx, tx)
			if err != nil {
				return err
			}
			updated, entry, err := b.Apply(tenant, p, s.now())
			if err != nil {
				return err
			}
			if err := tx.SaveLedgerEntry(ctx, entry); err != nil {
				return err
			}
			if err := tx.SaveTenant(ctx, updated); err != nil {
				return err
			}
			if _, err := reconcileWaterBills(ctx, tx, updated, p.ID, s.now()); err != nil {
				return err
			}
			tenant = updated
		}
		if err := tx.SavePayment(ctx, p); err != nil {
			return err
		}

		payload := s.paymentPayload(p, tenant, house)
		emit(event.NewPaymentRecorded(payload))
		if p.Status == types.PaymentCompleted {
			emit(event.NewPaymentCompleted(payload))
		}
		res = PaymentResult{Payment: p, Tenant: tenant}
		return nil
	})
	return res, err
}

// VerifyPayment moves a pending payment to completed and applies it.
func (s *Service) VerifyPayment(ctx context.Context, paymentID string) (PaymentResult, error) {
	return s.transition(ctx, paymentID, types.PaymentCompleted)
}

// FailPayment marks a pending payment as failed. Balances are unchanged.
func (s *Service) FailPayment(ctx context.Context, paymentID string) (PaymentResult, error) {
	return s.transition(ctx, paymentID, types.PaymentFailed)
}

// RetryPayment returns a failed payment to pending for another verification.
func (s *Service) RetryPayment(ctx context.Context, paymentID string) (PaymentResult, error) {
	return s.transition(ctx, paymentID, types.PaymentPending)
}

func (s *Service) transition(ctx context.Context, paymentID string, target types.PaymentStatus) (PaymentResult, error) {
	var res PaymentResult
	err := s.mutate(ctx, func(tx store.Repository, emit func(event.DomainEvent)) error {
		p, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		tenant, err := tx.GetTenant(ctx, p.TenantID)
		if err != nil {
			return err
		}
		house, err := s.houseOf(ctx, tx, tenant)
		if err != nil {
			return err
		}
		b, err := book(ctx, tx)
		if err != nil {
			return err
		}

		updated, next, entry, err := b.Transition(tenant, p, target, s.now())
		if err != nil {
			return err
		}
		if entry != nil {
			if err := tx.SaveLedgerEntry(ctx, *entry); err != nil {
				return err
			}
			if err := tx.SaveTenant(ctx, updated); err != nil {
				return err
			}
			if _, err := reconcileWaterBills(ctx, tx, updated, next.ID, s.now()); err != nil {
				return err
			}
		}
		if err := tx.SavePayment(ctx, next); err != nil {
			return err
		}

		payload := s.paymentPayload(next, updated, house)
		switch target {
		case types.PaymentCompleted:
			emit(event.NewPaymentCompleted(payload))
		case types.PaymentFailed:
			emit(event.NewPaymentFailed(payload))
		case types.PaymentPending:
			emit(event.NewPaymentRetried(payload))
		}
		res = PaymentResult{Payment: next, Tenant: updated}
		return nil
	})
	return res, err
}

// ReversePayment undoes a completed payment's effect on the tenant's
// balances. The payment keeps its completed status; a second reversal fails
// with DuplicateApplicationError. Water bills the restored balance no
// longer covers return to unpaid.
func (s *Service) ReversePayment(ctx context.Context, paymentID string) (PaymentResult, error) {
	var res PaymentResult
	err := s.mutate(ctx, func(tx store.Repository, emit func(event.DomainEvent)) error {
		p, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		tenant, err := tx.GetTenant(ctx, p.TenantID)
		if err != nil {
			return err
		}
		house, err := s.houseOf(ctx, tx, tenant)
		if err != nil {
			return err
		}
		b, err := book(ctx, tx)
		if err != nil {
			return err
		}

		updated, entry, err := b.Reverse(tenant, p.ID, s.now())
		if err != nil {
			return err
		}
		if err := tx.SaveLedgerEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.SaveTenant(ctx, updated); err != nil {
			return err
		}
		if _, err := reconcileWaterBills(ctx, tx, updated, "", s.now()); err != nil {
			return err
		}

		emit(event.NewPaymentReversed(s.paymentPayload(p, updated, house)))
		res = PaymentResult{Payment: p, Tenant: updated}
		return nil
	})
	return res, err
}

// reconcileWaterBills derives the tenant's water bill statuses from the
// water balance. What is still owed is attributed to the newest bills, so a
// bill is paid once the bills issued after it account for the whole balance.
// Installments and credit settle bills the same way a single payment does.
// Bills that become paid record paymentID; bills that reopen are pending, or
// overdue when their due date has passed. It returns the tenant's bills,
// oldest first, as saved.
func reconcileWaterBills(ctx context.Context, tx store.Repository, tenant types.Tenant, paymentID string, now time.Time) ([]types.WaterBill, error) {
	all, err := tx.LoadWaterBills(ctx)
	if err != nil {
		return nil, err
	}
	var bills []types.WaterBill
	for _, b := range all {
		if b.TenantID == tenant.ID {
			bills = append(bills, b)
		}
	}
	sort.SliceStable(bills, func(i, j int) bool { return issuedBefore(bills[i], bills[j]) })

	owed := tenant.WaterBillBalanceCents
	for i := len(bills) - 1; i >= 0; i-- {
		b := bills[i]
		covered := owed <= 0 || b.AmountCents <= 0
		if b.AmountCents > 0 {
			owed -= b.AmountCents
		}

		switch {
		case covered && b.Status != types.WaterBillPaid:
			b.Status = types.WaterBillPaid
			b.PaymentID = paymentID
		case !covered && b.Status == types.WaterBillPaid:
			b.PaymentID = ""
			b.Status = types.WaterBillPending
			if !b.DueDate.IsZero() && now.After(b.DueDate) {
				b.Status = types.WaterBillOverdue
			}
		default:
			continue
		}
		if err := tx.SaveWaterBill(ctx, b); err != nil {
			return nil, err
		}
		bills[i] = b
	}
	return bills, nil
}

func issuedBefore(a, b types.WaterBill) bool {
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	return a.ID < b.ID
}

// houseOf returns the tenant's house. A tenant whose house record is gone
// still gets an empty house so payments against residual balances work.
func (s *Service) houseOf(ctx context.Context, tx store.Repository, t types.Tenant) (types.House, error) {
	if t.HouseID == "" {
		return types.House{}, nil
	}
	h, err := tx.GetHouse(ctx, t.HouseID)
	if err != nil {
		if isNotFound(err) {
			return types.House{}, nil
		}
		return types.House{}, err
	}
	return h, nil
}

func (s *Service) paymentPayload(p types.Payment, t types.Tenant, h types.House) event.PaymentPayload {
	payload := event.PaymentPayload{
		PaymentID:       p.ID,
		TenantID:        p.TenantID,
		HouseID:         p.HouseID,
		LandlordID:      h.LandlordID,
		Amount:          s.money(p.AmountCents),
		Type:            p.Type,
		Status:          p.Status,
		Method:          p.Method,
		Reference:       p.Reference,
		NewRentBalance:  t.RentBalanceCents,
		NewWaterBalance: t.WaterBillBalanceCents,
	}
	if rent, water, err := ledger.Components(p); err == nil {
		payload.RentApplied = rent
		payload.WaterApplied = water
	}
	return payload
}
