package billing

import (
	"time"

	"github.com/matthewbaird/rentals/internal/types"
)

// DefaultDueDay is used for houses without a configured rent due day.
const DefaultDueDay = 5

// NextDueDate returns the next rent due date on or after now. A due day past
// the end of a short month falls on that month's last day.
func NextDueDate(now time.Time, dueDay int) time.Time {
	if dueDay < 1 || dueDay > 31 {
		dueDay = DefaultDueDay
	}
	today := startOfDay(now)
	due := dueDateIn(today.Year(), today.Month(), dueDay, now.Location())
	if due.Before(today) {
		next := today.AddDate(0, 0, -today.Day()+1).AddDate(0, 1, 0)
		due = dueDateIn(next.Year(), next.Month(), dueDay, now.Location())
	}
	return due
}

// DaysUntilDue is the whole number of days from now until the next due date;
// 0 on the due day itself.
func DaysUntilDue(now time.Time, dueDay int) int {
	due := NextDueDate(now, dueDay)
	today := startOfDay(now)
	// Round to absorb DST shifts.
	return int((due.Sub(today) + 12*time.Hour) / (24 * time.Hour))
}

// MarkOverdue returns the pending bills whose due date has passed, with their
// status set to overdue. The input slice is not modified.
func MarkOverdue(bills []types.WaterBill, now time.Time) []types.WaterBill {
	var overdue []types.WaterBill
	for _, b := range bills {
		if b.Status != types.WaterBillPending || b.DueDate.IsZero() {
			continue
		}
		if now.After(b.DueDate) {
			b.Status = types.WaterBillOverdue
			overdue = append(overdue, b)
		}
	}
	return overdue
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dueDateIn(year int, month time.Month, day int, loc *time.Location) time.Time {
	// Day 0 of the following month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// CurrentDueDate returns the rent due date inside now's calendar month.
func CurrentDueDate(now time.Time, dueDay int) time.Time {
	if dueDay < 1 || dueDay > 31 {
		dueDay = DefaultDueDay
	}
	return dueDateIn(now.Year(), now.Month(), dueDay, now.Location())
}
