// Package dashboard reduces house, tenant and payment collections into the
// counters and series shown on the role dashboards. Every function here is a
// pure function of its inputs; nothing is cached between calls.
package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/types"
)

// MovedOutPolicy decides whether moved-out tenants' residual balances count
// toward the pending totals.
type MovedOutPolicy string

const (
	MovedOutExclude MovedOutPolicy = "exclude"
	MovedOutInclude MovedOutPolicy = "include"
)

// Options tunes aggregation.
type Options struct {
	MovedOut      MovedOutPolicy
	RecentLimit   int
	RevenueMonths int
}

// DefaultOptions excludes moved-out balances and shows five recent items and
// six months of revenue.
func DefaultOptions() Options {
	return Options{MovedOut: MovedOutExclude, RecentLimit: 5, RevenueMonths: 6}
}

// Snapshot is the set of collections a dashboard is computed from.
type Snapshot struct {
	Houses        []types.House
	Tenants       []types.Tenant
	Payments      []types.Payment
	WaterBills    []types.WaterBill
	Notifications []types.Notification
	Maintenance   []types.MaintenanceRequest
}

// Dashboard is the derived summary. It is never stored.
type Dashboard struct {
	TotalHouses             int                  `json:"total_houses"`
	OccupiedHouses          int                  `json:"occupied_houses"`
	VacantHouses            int                  `json:"vacant_houses"`
	MaintenanceHouses       int                  `json:"maintenance_houses"`
	OccupancyRate           float64              `json:"occupancy_rate"`
	TotalTenants            int                  `json:"total_tenants"`
	ActiveTenants           int                  `json:"active_tenants"`
	PendingRentCents        int64                `json:"pending_rent_cents"`
	PendingWaterBillsCents  int64                `json:"pending_water_bills_cents"`
	CollectedCents          int64                `json:"collected_cents"`
	PendingPayments         int                  `json:"pending_payments"`
	OpenMaintenanceRequests int                  `json:"open_maintenance_requests"`
	RecentPayments          []types.Payment      `json:"recent_payments"`
	RecentNotifications     []types.Notification `json:"recent_notifications"`
}

// Aggregate computes the dashboard counters with default options.
func Aggregate(houses []types.House, tenants []types.Tenant, payments []types.Payment) Dashboard {
	return Summarize(Snapshot{Houses: houses, Tenants: tenants, Payments: payments}, DefaultOptions())
}

// Summarize computes the dashboard for a snapshot. Empty collections produce
// zero counters and a zero occupancy rate.
func Summarize(s Snapshot, opts Options) Dashboard {
	var d Dashboard

	d.TotalHouses = len(s.Houses)
	for _, h := range s.Houses {
		switch h.Status {
		case types.HouseOccupied:
			d.OccupiedHouses++
		case types.HouseVacant:
			d.VacantHouses++
		case types.HouseMaintenance:
			d.MaintenanceHouses++
		}
	}
	d.OccupancyRate = Percent(d.OccupiedHouses, d.TotalHouses)

	d.TotalTenants = len(s.Tenants)
	for _, t := range s.Tenants {
		if t.Status == types.TenantActive {
			d.ActiveTenants++
		}
		if t.Status == types.TenantMovedOut && opts.MovedOut != MovedOutInclude {
			continue
		}
		d.PendingRentCents += t.RentBalanceCents
		d.PendingWaterBillsCents += t.WaterBillBalanceCents
	}

	for _, p := range s.Payments {
		switch p.Status {
		case types.PaymentCompleted:
			d.CollectedCents += p.AmountCents
		case types.PaymentPending:
			d.PendingPayments++
		}
	}

	for _, m := range s.Maintenance {
		if m.Status != types.MaintenanceResolved {
			d.OpenMaintenanceRequests++
		}
	}

	d.RecentPayments = recentPayments(s.Payments, opts.RecentLimit)
	d.RecentNotifications = recentNotifications(s.Notifications, opts.RecentLimit)
	return d
}

// Percent returns part as a percentage of whole rounded to two decimals, or
// 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(2).
		InexactFloat64()
}

// MonthlyRevenue is one bucket of the revenue chart.
type MonthlyRevenue struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	RentCents  int64      `json:"rent_cents"`
	WaterCents int64      `json:"water_cents"`
}

// RevenueSeries buckets completed payments into the trailing months calendar
// months ending with now's month, oldest first. Months without payments are
// present with zero amounts. Combined payments contribute their split.
func RevenueSeries(payments []types.Payment, now time.Time, months int) []MonthlyRevenue {
	if months <= 0 {
		return []MonthlyRevenue{}
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	series := make([]MonthlyRevenue, months)
	index := make(map[int]int, months)
	for i := range series {
		m := first.AddDate(0, i, 0)
		series[i] = MonthlyRevenue{Year: m.Year(), Month: m.Month()}
		index[monthKey(m)] = i
	}

	for _, p := range payments {
		if p.Status != types.PaymentCompleted {
			continue
		}
		i, ok := index[monthKey(p.Date.In(now.Location()))]
		if !ok {
			continue
		}
		rent, water, err := ledger.Components(p)
		if err != nil {
			continue
		}
		series[i].RentCents += rent
		series[i].WaterCents += water
	}
	return series
}

func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func recentPayments(payments []types.Payment, limit int) []types.Payment {
	out := append([]types.Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return truncate(out, limit)
}

func recentNotifications(notes []types.Notification, limit int) []types.Notification {
	out := append([]types.Notification(nil), notes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit)
}

func truncate[T any](items []T, limit int) []T {
	if items == nil {
		return []T{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
