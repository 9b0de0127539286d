// Package seed provides demo data seeding for the rentals database.
package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/matthewbaird/rentals/internal/billing"
	"github.com/matthewbaird/rentals/internal/rental"
	"github.com/matthewbaird/rentals/internal/store"
	"github.com/matthewbaird/rentals/internal/types"
)

// Demo principals. Pass these as X-Actor with the matching X-Role.
const (
	Landlord  = "landlord-1"
	Landlord2 = "landlord-2"
	Caretaker = "caretaker-1"
)

// Summary counts what Seed created.
type Summary struct {
	Houses      int
	Tenants     int
	WaterBills  int
	Payments    int
	Maintenance int
}

// Seed creates a small estate: two landlords, five houses and four tenants,
// with one month of rent accrued, water bills issued and a mix of payments.
// Balances are produced by the service, so the ledger agrees with them.
// If houses already exist, it skips seeding.
func Seed(ctx context.Context, repo store.Repository, svc *rental.Service) (Summary, error) {
	var sum Summary

	existing, err := repo.LoadHouses(ctx)
	if err != nil {
		return sum, fmt.Errorf("checking houses: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("seed: %d houses already present, skipping", len(existing))
		return sum, nil
	}

	now := svc.Now()
	moveIn := now.AddDate(-1, 0, 0)

	// ── Houses and tenants ──────────────────────────────────────────
	houses := []types.House{
		{ID: "house-a1", Number: "A1", Name: "Umoja Court", LandlordID: Landlord, CaretakerID: Caretaker,
			MonthlyRentCents: 1500000, Status: types.HouseOccupied, KPLCMeterNumber: "37190012345", WaterMeterReading: 1200, RentDueDay: 5},
		{ID: "house-a2", Number: "A2", Name: "Umoja Court", LandlordID: Landlord, CaretakerID: Caretaker,
			MonthlyRentCents: 1500000, Status: types.HouseOccupied, KPLCMeterNumber: "37190012346", WaterMeterReading: 860, RentDueDay: 5},
		{ID: "house-a3", Number: "A3", Name: "Umoja Court", LandlordID: Landlord, CaretakerID: Caretaker,
			MonthlyRentCents: 1800000, Status: types.HouseVacant, KPLCMeterNumber: "37190012347", RentDueDay: 5},
		{ID: "house-b1", Number: "B1", Name: "Kilimani Heights", LandlordID: Landlord2,
			MonthlyRentCents: 4500000, Status: types.HouseOccupied, KPLCMeterNumber: "37190098765", WaterMeterReading: 310, RentDueDay: 1},
		{ID: "house-b2", Number: "B2", Name: "Kilimani Heights", LandlordID: Landlord2,
			MonthlyRentCents: 4500000, Status: types.HouseOccupied, KPLCMeterNumber: "37190098766", WaterMeterReading: 95, RentDueDay: 1},
	}
	tenants := []types.Tenant{
		{ID: "tenant-1", Name: "Wanjiru Kamau", Email: "wanjiru@example.com", Phone: "+254700000001",
			HouseID: "house-a1", Status: types.TenantActive, MoveInDate: moveIn},
		{ID: "tenant-2", Name: "Otieno Ouma", Email: "otieno@example.com", Phone: "+254700000002",
			HouseID: "house-a2", Status: types.TenantActive, MoveInDate: moveIn},
		{ID: "tenant-3", Name: "Amina Hassan", Email: "amina@example.com", Phone: "+254700000003",
			HouseID: "house-b1", Status: types.TenantActive, MoveInDate: moveIn},
		{ID: "tenant-4", Name: "Kiprop Cheruiyot", Email: "kiprop@example.com", Phone: "+254700000004",
			HouseID: "house-b2", Status: types.TenantMovingOut, MoveInDate: moveIn.AddDate(0, -6, 0)},
	}
	maintenance := []types.MaintenanceRequest{
		{ID: "maint-1", HouseID: "house-a2", TenantID: "tenant-2", Title: "Leaking kitchen tap",
			Description: "Tap drips constantly", Priority: "medium", Status: types.MaintenanceOpen, CreatedAt: now.AddDate(0, 0, -3)},
		{ID: "maint-2", HouseID: "house-a3", Title: "Repaint before letting",
			Description: "Walls need a fresh coat", Priority: "low", Status: types.MaintenanceInProgress, CreatedAt: now.AddDate(0, 0, -10)},
	}

	err = repo.Atomic(ctx, func(tx store.Repository) error {
		for _, h := range houses {
			if err := tx.SaveHouse(ctx, h); err != nil {
				return fmt.Errorf("creating house %s: %w", h.Number, err)
			}
		}
		for _, t := range tenants {
			if err := tx.SaveTenant(ctx, t); err != nil {
				return fmt.Errorf("creating tenant %s: %w", t.Name, err)
			}
		}
		for _, m := range maintenance {
			if err := tx.SaveMaintenance(ctx, m); err != nil {
				return fmt.Errorf("creating maintenance request %s: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return sum, err
	}
	sum.Houses, sum.Tenants, sum.Maintenance = len(houses), len(tenants), len(maintenance)

	// ── Rent and water ──────────────────────────────────────────────
	if _, err := svc.AccrueRent(ctx, now.Format(billing.MonthLayout)); err != nil {
		return sum, fmt.Errorf("accruing rent: %w", err)
	}
	lastMonth := now.AddDate(0, -1, 0).Format(billing.MonthLayout)
	readings := map[string]int64{"house-a1": 1245, "house-a2": 902, "house-b1": 338, "house-b2": 120}
	for _, h := range houses {
		reading, ok := readings[h.ID]
		if !ok {
			continue
		}
		if _, err := svc.RecordReading(ctx, h.ID, reading, lastMonth); err != nil {
			return sum, fmt.Errorf("recording reading for %s: %w", h.Number, err)
		}
		sum.WaterBills++
	}

	// ── Payments ────────────────────────────────────────────────────
	payments := []rental.NewPayment{
		{TenantID: "tenant-1", AmountCents: 1500000, Type: types.PaymentRent, Status: types.PaymentCompleted,
			Method: "mpesa", Reference: "SGH4K2L9QX", Description: "Rent"},
		{TenantID: "tenant-1", AmountCents: 6750, Type: types.PaymentWater, Status: types.PaymentCompleted,
			Method: "mpesa", Reference: "SGH4K2M1QY", Description: "Water"},
		{TenantID: "tenant-2", AmountCents: 1000000, Type: types.PaymentRent, Status: types.PaymentPending,
			Method: "bank", Reference: "FT24031187", Description: "Partial rent"},
		{TenantID: "tenant-3", AmountCents: 4504200, Type: types.PaymentCombined, Status: types.PaymentCompleted,
			Method: "bank", Reference: "FT24031190", Description: "Rent and water",
			Split: &types.PaymentSplit{RentCents: 4500000, WaterCents: 4200}},
		{TenantID: "tenant-4", AmountCents: 2000000, Type: types.PaymentRent, Status: types.PaymentPending,
			Method: "mpesa", Reference: "SGH4K2P7RZ"},
	}
	var failedID string
	for _, np := range payments {
		res, err := svc.RecordPayment(ctx, np)
		if err != nil {
			return sum, fmt.Errorf("recording payment %s: %w", np.Reference, err)
		}
		if np.TenantID == "tenant-4" {
			failedID = res.Payment.ID
		}
		sum.Payments++
	}
	if _, err := svc.FailPayment(ctx, failedID); err != nil {
		return sum, fmt.Errorf("failing payment: %w", err)
	}

	log.Printf("seed: created %d houses, %d tenants, %d water bills, %d payments",
		sum.Houses, sum.Tenants, sum.WaterBills, sum.Payments)
	return sum, nil
}
