package rental

import (
	"context"
	"fmt"
	"time"

	"github.com/matthewbaird/rentals/internal/billing"
	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/store"
	"github.com/matthewbaird/rentals/internal/types"
)

// QuoteBill prices a reading without touching any record.
func (s *Service) QuoteBill(previousReading, newReading, fixedRentCents int64) (billing.Bill, error) {
	return billing.ComputeBill(previousReading, newReading, s.cfg.WaterUnitPriceCents, fixedRentCents)
}

// RecordReading records a new water meter reading for a house, issues the
// water bill to its occupant and adds the amount to their water balance.
// month defaults to the current month.
func (s *Service) RecordReading(ctx context.Context, houseID string, newReading int64, month string) (types.WaterBill, error) {
	if month == "" {
		month = s.now().Format(billing.MonthLayout)
	}

	var bill types.WaterBill
	err := s.mutate(ctx, func(tx store.Repository, emit func(event.DomainEvent)) error {
		house, err := tx.GetHouse(ctx, houseID)
		if err != nil {
			return err
		}
		tenants, err := tx.LoadTenants(ctx)
		if err != nil {
			return err
		}
		tenant, ok := occupant(tenants, house.ID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoOccupant, house.ID)
		}

		due := s.now().AddDate(0, 0, s.cfg.WaterBillDueDays)
		wb, advanced, err := billing.IssueWaterBill(house, tenant, newReading, s.cfg.WaterUnitPriceCents, month, due)
		if err != nil {
			return err
		}
		tenant, err = ledger.Accrue(tenant, 0, wb.AmountCents)
		if err != nil {
			return err
		}

		if err := tx.SaveWaterBill(ctx, wb); err != nil {
			return err
		}
		if err := tx.SaveHouse(ctx, advanced); err != nil {
			return err
		}
		if err := tx.SaveTenant(ctx, tenant); err != nil {
			return err
		}
		// Existing water credit may already cover the new bill.
		bills, err := reconcileWaterBills(ctx, tx, tenant, "", s.now())
		if err != nil {
			return err
		}
		for _, b := range bills {
			if b.ID == wb.ID {
				wb = b
			}
		}

		emit(event.NewWaterBillIssued(s.waterBillPayload(wb, house)))
		bill = wb
		return nil
	})
	return bill, err
}

// AccrueRent adds each occupied house's monthly rent to its occupant's rent
// balance and returns the updated tenants. It does not track which months
// were already accrued; callers run it once per billing cycle.
func (s *Service) AccrueRent(ctx context.Context, month string) ([]types.Tenant, error) {
	if month == "" {
		month = s.now().Format(billing.MonthLayout)
	}
	if _, err := time.Parse(billing.MonthLayout, month); err != nil {
		return nil, invalid("month", "want YYYY-MM, got %q", month)
	}

	accrued := []types.Tenant{}
	err := s.mutate(ctx, func(tx store.Repository, emit func(event.DomainEvent)) error {
		accrued = accrued[:0]
		houses, err := tx.LoadHouses(ctx)
		if err != nil {
			return err
		}
		tenants, err := tx.LoadTenants(ctx)
		if err != nil {
			return err
		}
		for _, h := range houses {
			if h.Status != types.HouseOccupied || h.MonthlyRentCents <= 0 {
				continue
			}
			tenant, ok := occupant(tenants, h.ID)
			if !ok {
				continue
			}
			tenant, err = ledger.Accrue(tenant, h.MonthlyRentCents, 0)
			if err != nil {
				return err
			}
			if err := tx.SaveTenant(ctx, tenant); err != nil {
				return err
			}
			emit(event.NewRentAccrued(event.RentAccruedPayload{
				TenantID:       tenant.ID,
				HouseID:        h.ID,
				LandlordID:     h.LandlordID,
				Month:          month,
				Amount:         s.money(h.MonthlyRentCents),
				NewRentBalance: tenant.RentBalanceCents,
			}))
			accrued = append(accrued, tenant)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accrued, nil
}

// MarkOverdueBills flags pending water bills whose due date has passed and
// returns them.
func (s *Service) MarkOverdueBills(ctx context.Context) ([]types.WaterBill, error) {
	marked := []types.WaterBill{}
	err := s.mutate(ctx, func(tx store.Repository, emit func(event.DomainEvent)) error {
		marked = marked[:0]
		bills, err := tx.LoadWaterBills(ctx)
		if err != nil {
			return err
		}
		houses, err := tx.LoadHouses(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]types.House, len(houses))
		for _, h := range houses {
			byID[h.ID] = h
		}
		for _, b := range billing.MarkOverdue(bills, s.now()) {
			if err := tx.SaveWaterBill(ctx, b); err != nil {
				return err
			}
			emit(event.NewWaterBillOverdue(s.waterBillPayload(b, byID[b.HouseID])))
			marked = append(marked, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

func (s *Service) waterBillPayload(b types.WaterBill, h types.House) event.WaterBillPayload {
	return event.WaterBillPayload{
		WaterBillID:     b.ID,
		HouseID:         b.HouseID,
		TenantID:        b.TenantID,
		LandlordID:      h.LandlordID,
		Month:           b.Month,
		PreviousReading: b.PreviousReading,
		CurrentReading:  b.CurrentReading,
		UnitsUsed:       b.UnitsUsed,
		Amount:          s.money(b.AmountCents),
		DueDate:         b.DueDate,
	}
}
