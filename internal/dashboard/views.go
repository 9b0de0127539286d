package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/matthewbaird/rentals/internal/billing"
	"github.com/matthewbaird/rentals/internal/session"
	"github.com/matthewbaird/rentals/internal/types"
)

// ErrNoTenancy is returned when a tenant principal has no tenant record.
var ErrNoTenancy = errors.New("no tenancy for principal")

// View is a role-specific dashboard. The concrete types are AdminView,
// LandlordView, CaretakerView and TenantView; callers switch on the type.
type View interface {
	Role() types.Role
	isView()
}

// AdminView covers every house.
type AdminView struct {
	Dashboard
	Revenue []MonthlyRevenue `json:"revenue"`
}

// LandlordView covers the houses the landlord owns.
type LandlordView struct {
	LandlordID string `json:"landlord_id"`
	Dashboard
	Revenue []MonthlyRevenue `json:"revenue"`
}

// CaretakerView covers the houses the caretaker looks after, with the work
// queue a caretaker acts on.
type CaretakerView struct {
	CaretakerID string `json:"caretaker_id"`
	Dashboard
	OpenRequests []types.MaintenanceRequest `json:"open_requests"`
	OverdueBills []types.WaterBill          `json:"overdue_bills"`
}

// TenantView is a single tenancy.
type TenantView struct {
	Tenant            types.Tenant         `json:"tenant"`
	House             types.House          `json:"house"`
	TotalBalanceCents int64                `json:"total_balance_cents"`
	NextDueDate       time.Time            `json:"next_due_date"`
	DaysUntilDue      int                  `json:"days_until_due"`
	UnpaidWaterBills  []types.WaterBill    `json:"unpaid_water_bills"`
	RecentPayments    []types.Payment      `json:"recent_payments"`
	Notifications     []types.Notification `json:"notifications"`
}

func (AdminView) Role() types.Role     { return types.RoleAdmin }
func (LandlordView) Role() types.Role  { return types.RoleLandlord }
func (CaretakerView) Role() types.Role { return types.RoleCaretaker }
func (TenantView) Role() types.Role    { return types.RoleTenant }

func (AdminView) isView()     {}
func (LandlordView) isView()  {}
func (CaretakerView) isView() {}
func (TenantView) isView()    {}

// Build computes the dashboard variant for the principal's role.
func Build(p session.Principal, s Snapshot, opts Options, now time.Time) (View, error) {
	switch p.Role {
	case types.RoleAdmin:
		return AdminView{
			Dashboard: Summarize(s, opts),
			Revenue:   RevenueSeries(s.Payments, now, opts.RevenueMonths),
		}, nil

	case types.RoleLandlord:
		scoped := scope(s, p.UserID, func(h types.House) bool { return h.LandlordID == p.UserID })
		return LandlordView{
			LandlordID: p.UserID,
			Dashboard:  Summarize(scoped, opts),
			Revenue:    RevenueSeries(scoped.Payments, now, opts.RevenueMonths),
		}, nil

	case types.RoleCaretaker:
		scoped := scope(s, p.UserID, func(h types.House) bool { return h.CaretakerID == p.UserID })
		v := CaretakerView{
			CaretakerID:  p.UserID,
			Dashboard:    Summarize(scoped, opts),
			OpenRequests: []types.MaintenanceRequest{},
			OverdueBills: []types.WaterBill{},
		}
		for _, m := range scoped.Maintenance {
			if m.Status != types.MaintenanceResolved {
				v.OpenRequests = append(v.OpenRequests, m)
			}
		}
		for _, b := range scoped.WaterBills {
			if b.Status == types.WaterBillOverdue {
				v.OverdueBills = append(v.OverdueBills, b)
			}
		}
		return v, nil

	case types.RoleTenant:
		return tenantView(p, s, opts, now)
	}
	return nil, fmt.Errorf("no dashboard for role %q", p.Role)
}

func tenantView(p session.Principal, s Snapshot, opts Options, now time.Time) (View, error) {
	var (
		tenant types.Tenant
		found  bool
	)
	for _, t := range s.Tenants {
		if t.ID == p.UserID {
			tenant, found = t, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w %s", ErrNoTenancy, p.UserID)
	}

	var house types.House
	for _, h := range s.Houses {
		if h.ID == tenant.HouseID {
			house = h
			break
		}
	}

	v := TenantView{
		Tenant:            tenant,
		House:             house,
		TotalBalanceCents: tenant.TotalBalanceCents(),
		NextDueDate:       billing.NextDueDate(now, house.RentDueDay),
		DaysUntilDue:      billing.DaysUntilDue(now, house.RentDueDay),
		UnpaidWaterBills:  []types.WaterBill{},
	}
	for _, b := range s.WaterBills {
		if b.TenantID == tenant.ID && b.Status != types.WaterBillPaid {
			v.UnpaidWaterBills = append(v.UnpaidWaterBills, b)
		}
	}

	var own []types.Payment
	for _, pay := range s.Payments {
		if pay.TenantID == tenant.ID {
			own = append(own, pay)
		}
	}
	v.RecentPayments = recentPayments(own, opts.RecentLimit)

	var notes []types.Notification
	for _, n := range s.Notifications {
		if n.UserID == tenant.ID {
			notes = append(notes, n)
		}
	}
	v.Notifications = recentNotifications(notes, opts.RecentLimit)
	return v, nil
}

// scope restricts a snapshot to the houses keep accepts and the records that
// reference them. Notifications are restricted to the user's own.
func scope(s Snapshot, userID string, keep func(types.House) bool) Snapshot {
	var out Snapshot
	houseIDs := make(map[string]bool)
	for _, h := range s.Houses {
		if keep(h) {
			out.Houses = append(out.Houses, h)
			houseIDs[h.ID] = true
		}
	}
	for _, t := range s.Tenants {
		if houseIDs[t.HouseID] {
			out.Tenants = append(out.Tenants, t)
		}
	}
	for _, p := range s.Payments {
		if houseIDs[p.HouseID] {
			out.Payments = append(out.Payments, p)
		}
	}
	for _, b := range s.WaterBills {
		if houseIDs[b.HouseID] {
			out.WaterBills = append(out.WaterBills, b)
		}
	}
	for _, m := range s.Maintenance {
		if houseIDs[m.HouseID] {
			out.Maintenance = append(out.Maintenance, m)
		}
	}
	for _, n := range s.Notifications {
		if n.UserID == userID {
			out.Notifications = append(out.Notifications, n)
		}
	}
	return out
}

// ScopeFor restricts a snapshot to what the principal may see: everything
// for admins, their houses for landlords and caretakers, and their own
// tenancy for tenants.
func ScopeFor(p session.Principal, s Snapshot) Snapshot {
	switch p.Role {
	case types.RoleAdmin:
		return s
	case types.RoleLandlord:
		return scope(s, p.UserID, func(h types.House) bool { return h.LandlordID == p.UserID })
	case types.RoleCaretaker:
		return scope(s, p.UserID, func(h types.House) bool { return h.CaretakerID == p.UserID })
	case types.RoleTenant:
		var houseID string
		for _, t := range s.Tenants {
			if t.ID == p.UserID {
				houseID = t.HouseID
				break
			}
		}
		out := scope(s, p.UserID, func(h types.House) bool { return houseID != "" && h.ID == houseID })
		out.Tenants = keepIf(out.Tenants, func(t types.Tenant) bool { return t.ID == p.UserID })
		out.Payments = keepIf(out.Payments, func(pay types.Payment) bool { return pay.TenantID == p.UserID })
		out.WaterBills = keepIf(out.WaterBills, func(b types.WaterBill) bool { return b.TenantID == p.UserID })
		return out
	}
	return Snapshot{}
}

func keepIf[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
