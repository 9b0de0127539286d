// Package reminder derives rent and water reminders from tenant balances and
// water bills. Reminders are recomputed on every call and never stored.
package reminder

import (
	"fmt"
	"sort"
	"time"

	"github.com/matthewbaird/rentals/internal/billing"
	"github.com/matthewbaird/rentals/internal/types"
)

// DefaultLeadDays is how far ahead of the due date a rent_due reminder starts.
const DefaultLeadDays = 3

// Options tunes Due.
type Options struct {
	LeadDays int    // negative is treated as zero
	Currency string // ISO code for message amounts; empty uses types.DefaultCurrency
}

// Due returns the reminders in effect at now, ordered by due date then tenant.
//
// A tenant who is not moved out and owes rent gets rent_overdue once the
// current month's due date has passed, or rent_due when the next due date is
// within LeadDays. Every overdue water bill, or pending bill past its due
// date, gets water_overdue.
func Due(tenants []types.Tenant, houses []types.House, bills []types.WaterBill, now time.Time, opts Options) []types.Reminder {
	leadDays := max(opts.LeadDays, 0)
	currency := opts.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	byID := make(map[string]types.House, len(houses))
	for _, h := range houses {
		byID[h.ID] = h
	}

	out := []types.Reminder{}
	for _, t := range tenants {
		if t.Status == types.TenantMovedOut || t.RentBalanceCents <= 0 {
			continue
		}
		house, ok := byID[t.HouseID]
		if !ok {
			continue
		}
		if r, ok := rentReminder(t, house, now, leadDays, currency); ok {
			out = append(out, r)
		}
	}

	for _, b := range bills {
		if r, ok := waterReminder(b, now, currency); ok {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out
}

func rentReminder(t types.Tenant, h types.House, now time.Time, leadDays int, currency string) (types.Reminder, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	current := billing.CurrentDueDate(now, h.RentDueDay)
	amount := types.NewMoney(t.RentBalanceCents, currency)

	if today.After(current) {
		return types.Reminder{
			ID:          id(types.ReminderRentOverdue, t.ID, current),
			TenantID:    t.ID,
			HouseID:     h.ID,
			Kind:        types.ReminderRentOverdue,
			AmountCents: t.RentBalanceCents,
			DueDate:     current,
			Message:     fmt.Sprintf("Rent of %s for house %s was due on %s", amount, h.Number, current.Format("2 Jan 2006")),
		}, true
	}

	days := billing.DaysUntilDue(now, h.RentDueDay)
	if days > leadDays {
		return types.Reminder{}, false
	}
	due := billing.NextDueDate(now, h.RentDueDay)
	msg := fmt.Sprintf("Rent of %s for house %s is due in %d days", amount, h.Number, days)
	if days == 0 {
		msg = fmt.Sprintf("Rent of %s for house %s is due today", amount, h.Number)
	}
	return types.Reminder{
		ID:          id(types.ReminderRentDue, t.ID, due),
		TenantID:    t.ID,
		HouseID:     h.ID,
		Kind:        types.ReminderRentDue,
		AmountCents: t.RentBalanceCents,
		DueDate:     due,
		Message:     msg,
	}, true
}

func waterReminder(b types.WaterBill, now time.Time, currency string) (types.Reminder, bool) {
	switch b.Status {
	case types.WaterBillOverdue:
	case types.WaterBillPending:
		if b.DueDate.IsZero() || !now.After(b.DueDate) {
			return types.Reminder{}, false
		}
	default:
		return types.Reminder{}, false
	}
	return types.Reminder{
		ID:          id(types.ReminderWaterOverdue, b.TenantID, b.DueDate) + ":" + b.ID,
		TenantID:    b.TenantID,
		HouseID:     b.HouseID,
		Kind:        types.ReminderWaterOverdue,
		AmountCents: b.AmountCents,
		DueDate:     b.DueDate,
		Message: fmt.Sprintf("Water bill for %s of %s is overdue",
			b.Month, types.NewMoney(b.AmountCents, currency)),
	}, true
}

// id is stable for a given kind, tenant and due date so consumers can
// deduplicate reminders across runs.
func id(kind types.ReminderKind, tenantID string, due time.Time) string {
	return string(kind) + ":" + tenantID + ":" + due.Format("2006-01-02")
}
