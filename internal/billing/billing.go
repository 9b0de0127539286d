// Package billing turns meter readings and fixed rent into bills. Every
// amount is an integer number of cents; nothing here rounds.
package billing

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/matthewbaird/rentals/internal/types"
)

// MonthLayout is the format of WaterBill.Month.
const MonthLayout = "2006-01"

// Bill is the result of one billing computation.
type Bill struct {
	UnitsUsed        int64 `json:"units_used"`
	WaterAmountCents int64 `json:"water_amount_cents"`
	RentAmountCents  int64 `json:"rent_amount_cents"`
	TotalAmountCents int64 `json:"total_amount_cents"`
}

// InvalidReadingError reports a meter reading that did not strictly increase.
// A stalled or reset meter is reported, never billed as zero usage.
type InvalidReadingError struct {
	Previous int64
	New      int64
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("invalid meter reading: new reading %d must be greater than previous reading %d", e.New, e.Previous)
}

// InvalidAmountError reports a price, rent or reading outside its allowed range.
type InvalidAmountError struct {
	Field  string
	Value  int64
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

// ComputeBill combines the water charge for a reading delta with fixed rent.
func ComputeBill(previousReading, newReading, unitPriceCents, fixedRentCents int64) (Bill, error) {
	if previousReading < 0 {
		return Bill{}, &InvalidAmountError{Field: "previous reading", Value: previousReading, Reason: "must be >= 0"}
	}
	if unitPriceCents <= 0 {
		return Bill{}, &InvalidAmountError{Field: "unit price", Value: unitPriceCents, Reason: "must be > 0"}
	}
	if fixedRentCents < 0 {
		return Bill{}, &InvalidAmountError{Field: "rent", Value: fixedRentCents, Reason: "must be >= 0"}
	}
	if newReading <= previousReading {
		return Bill{}, &InvalidReadingError{Previous: previousReading, New: newReading}
	}

	units := newReading - previousReading
	if units > math.MaxInt64/unitPriceCents {
		return Bill{}, &InvalidAmountError{Field: "units used", Value: units, Reason: "water charge overflows"}
	}
	water := units * unitPriceCents
	if water > math.MaxInt64-fixedRentCents {
		return Bill{}, &InvalidAmountError{Field: "rent", Value: fixedRentCents, Reason: "total overflows"}
	}

	return Bill{
		UnitsUsed:        units,
		WaterAmountCents: water,
		RentAmountCents:  fixedRentCents,
		TotalAmountCents: water + fixedRentCents,
	}, nil
}

// IssueWaterBill bills a house's tenant for the water used since the house's
// last reading. It returns the new bill and the house with its reading
// advanced; on error neither is meaningful and the inputs are untouched.
func IssueWaterBill(house types.House, tenant types.Tenant, newReading, unitPriceCents int64, month string, dueDate time.Time) (types.WaterBill, types.House, error) {
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return types.WaterBill{}, house, fmt.Errorf("invalid billing month %q: want YYYY-MM", month)
	}
	if tenant.HouseID != house.ID {
		return types.WaterBill{}, house, fmt.Errorf("tenant %s does not occupy house %s", tenant.ID, house.ID)
	}
	bill, err := ComputeBill(house.WaterMeterReading, newReading, unitPriceCents, 0)
	if err != nil {
		return types.WaterBill{}, house, err
	}

	wb := types.WaterBill{
		ID:              uuid.NewString(),
		HouseID:         house.ID,
		TenantID:        tenant.ID,
		PreviousReading: house.WaterMeterReading,
		CurrentReading:  newReading,
		UnitsUsed:       bill.UnitsUsed,
		UnitPriceCents:  unitPriceCents,
		AmountCents:     bill.WaterAmountCents,
		Month:           month,
		DueDate:         dueDate,
		Status:          types.WaterBillPending,
	}
	house.WaterMeterReading = newReading
	return wb, house, nil
}
