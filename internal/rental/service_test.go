package rental

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentals/internal/billing"
	"github.com/matthewbaird/rentals/internal/dashboard"
	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/session"
	"github.com/matthewbaird/rentals/internal/store"
	"github.com/matthewbaird/rentals/internal/types"
)

var clock = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type captureRecorder struct {
	events []event.DomainEvent
}

func (c *captureRecorder) Record(_ context.Context, evt event.DomainEvent) error {
	c.events = append(c.events, evt)
	return nil
}

func (c *captureRecorder) eventTypes() []string {
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.EventType
	}
	return out
}

var (
	admin    = session.Principal{UserID: "a1", Role: types.RoleAdmin}
	landlord = session.Principal{UserID: "l1", Role: types.RoleLandlord}
	tenantP  = session.Principal{UserID: "t1", Role: types.RoleTenant}
)

func seed(t *testing.T, repo store.Repository) {
	t.Helper()
	ctx := context.Background()
	houses := []types.House{
		{ID: "h1", Number: "A1", Name: "Block A", LandlordID: "l1", CaretakerID: "c1", MonthlyRentCents: 25000,
			Status: types.HouseOccupied, KPLCMeterNumber: "KPLC-001", WaterMeterReading: 1250, RentDueDay: 12},
		{ID: "h2", Number: "B1", Name: "Block B", LandlordID: "l2", MonthlyRentCents: 30000,
			Status: types.HouseOccupied, WaterMeterReading: 400, RentDueDay: 1},
		{ID: "h3", Number: "B2", Name: "Block B", LandlordID: "l2", MonthlyRentCents: 20000, Status: types.HouseVacant},
	}
	for _, h := range houses {
		require.NoError(t, repo.SaveHouse(ctx, h))
	}
	tenants := []types.Tenant{
		{ID: "t1", Name: "Wanjiru Kamau", Email: "wanjiru@example.com", HouseID: "h1", Status: types.TenantActive, MoveInDate: clock.AddDate(-1, 0, 0)},
		{ID: "t2", Name: "Otieno Odhiambo", Email: "otieno@example.com", HouseID: "h2", Status: types.TenantActive, MoveInDate: clock.AddDate(0, -6, 0)},
	}
	for _, tn := range tenants {
		require.NoError(t, repo.SaveTenant(ctx, tn))
	}
}

func newService(t *testing.T) (*Service, store.Repository, *captureRecorder) {
	t.Helper()
	repo := store.NewMemoryStore()
	seed(t, repo)
	rec := &captureRecorder{}
	svc := New(repo, rec, DefaultConfig())
	svc.SetClock(func() time.Time { return clock })
	return svc, repo, rec
}

func TestRecordReading_IssuesBillAndAccruesWater(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()

	bill, err := svc.RecordReading(ctx, "h1", 1300, "")
	require.NoError(t, err)
	assert.Equal(t, int64(50), bill.UnitsUsed)
	assert.Equal(t, int64(7500), bill.AmountCents)
	assert.Equal(t, "2026-03", bill.Month)
	assert.Equal(t, types.WaterBillPending, bill.Status)
	assert.True(t, bill.DueDate.Equal(clock.AddDate(0, 0, 14)))

	house, err := repo.GetHouse(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(1300), house.WaterMeterReading)

	tenant, err := repo.GetTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(7500), tenant.WaterBillBalanceCents)
	assert.Equal(t, []string{event.TypeWaterBillIssued}, rec.eventTypes())
}

func TestRecordReading_RejectsNonIncreasingReading(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()

	_, err := svc.RecordReading(ctx, "h1", 1250, "2026-03")
	var ire *billing.InvalidReadingError
	require.ErrorAs(t, err, &ire)

	house, _ := repo.GetHouse(ctx, "h1")
	assert.Equal(t, int64(1250), house.WaterMeterReading, "reading must not advance")
	bills, _ := repo.LoadWaterBills(ctx)
	assert.Empty(t, bills)
	assert.Empty(t, rec.events)
}

func TestRecordReading_Errors(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.RecordReading(ctx, "missing", 10, "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.RecordReading(ctx, "h3", 10, "")
	assert.ErrorIs(t, err, ErrNoOccupant)
}

func TestAccrueRent(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()

	accrued, err := svc.AccrueRent(ctx, "2026-03")
	require.NoError(t, err)
	require.Len(t, accrued, 2)

	t1, _ := repo.GetTenant(ctx, "t1")
	t2, _ := repo.GetTenant(ctx, "t2")
	assert.Equal(t, int64(25000), t1.RentBalanceCents)
	assert.Equal(t, int64(30000), t2.RentBalanceCents)
	assert.Equal(t, []string{event.TypeRentAccrued, event.TypeRentAccrued}, rec.eventTypes())

	_, err = svc.AccrueRent(ctx, "March")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRecordPayment_CompletedAppliesImmediately(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()
	_, err := svc.AccrueRent(ctx, "2026-03")
	require.NoError(t, err)
	rec.events = nil

	res, err := svc.RecordPayment(ctx, NewPayment{
		TenantID: "t1", AmountCents: 25000, Type: types.PaymentRent, Status: types.PaymentCompleted,
		Method: "mpesa", Reference: "QX12",
	})
	require.NoError(t, err)
	assert.Equal(t, "h1", res.Payment.HouseID)
	assert.Equal(t, int64(0), res.Tenant.RentBalanceCents)
	assert.True(t, res.Payment.Date.Equal(clock))

	entries, err := repo.LoadLedgerEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.Payment.ID, entries[0].PaymentID)
	assert.Equal(t, []string{event.TypePaymentRecorded, event.TypePaymentCompleted}, rec.eventTypes())
}

func TestRecordPayment_PendingThenVerify(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()

	res, err := svc.RecordPayment(ctx, NewPayment{TenantID: "t1", AmountCents: 10000, Type: types.PaymentRent})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPending, res.Payment.Status)
	assert.Equal(t, int64(0), res.Tenant.RentBalanceCents, "pending payments never move balances")

	verified, err := svc.VerifyPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentCompleted, verified.Payment.Status)
	assert.Equal(t, int64(-10000), verified.Tenant.RentBalanceCents, "overpayment becomes credit")

	_, err = svc.VerifyPayment(ctx, res.Payment.ID)
	var ise *ledger.InvalidStateTransitionError
	require.ErrorAs(t, err, &ise)

	tenant, _ := repo.GetTenant(ctx, "t1")
	assert.Equal(t, int64(-10000), tenant.RentBalanceCents, "second verify must not apply twice")
	assert.Equal(t, []string{event.TypePaymentRecorded, event.TypePaymentCompleted}, rec.eventTypes())
}

func TestPayment_FailAndRetry(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()

	res, err := svc.RecordPayment(ctx, NewPayment{TenantID: "t2", AmountCents: 30000, Type: types.PaymentRent, Reference: "ZZ9"})
	require.NoError(t, err)

	failed, err := svc.FailPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentFailed, failed.Payment.Status)

	retried, err := svc.RetryPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPending, retried.Payment.Status)

	_, err = svc.VerifyPayment(ctx, res.Payment.ID)
	require.NoError(t, err)

	tenant, _ := repo.GetTenant(ctx, "t2")
	assert.Equal(t, int64(-30000), tenant.RentBalanceCents)
	assert.Equal(t, []string{
		event.TypePaymentRecorded, event.TypePaymentFailed, event.TypePaymentRetried, event.TypePaymentCompleted,
	}, rec.eventTypes())
}

func TestRecordPayment_CombinedSplit(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	_, err := svc.AccrueRent(ctx, "2026-03")
	require.NoError(t, err)
	bill, err := svc.RecordReading(ctx, "h1", 1300, "2026-03")
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, NewPayment{
		TenantID: "t1", AmountCents: 32500, Type: types.PaymentCombined, Status: types.PaymentCompleted,
		Split: &types.PaymentSplit{RentCents: 25000, WaterCents: 7500},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Tenant.RentBalanceCents)
	assert.Equal(t, int64(0), res.Tenant.WaterBillBalanceCents)

	bills, _ := repo.LoadWaterBills(ctx)
	require.Len(t, bills, 1)
	assert.Equal(t, bill.ID, bills[0].ID)
	assert.Equal(t, types.WaterBillPaid, bills[0].Status)
	assert.Equal(t, res.Payment.ID, bills[0].PaymentID)
}

func TestRecordPayment_SplitMismatchIsNotStored(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()

	for _, split := range []*types.PaymentSplit{nil, {RentCents: 25000, WaterCents: 5000}} {
		_, err := svc.RecordPayment(ctx, NewPayment{
			TenantID: "t1", AmountCents: 32500, Type: types.PaymentCombined, Split: split,
		})
		var sme *ledger.SplitMismatchError
		require.ErrorAs(t, err, &sme)
	}

	payments, _ := repo.LoadPayments(ctx)
	assert.Empty(t, payments)
	assert.Empty(t, rec.events)
}

func TestRecordPayment_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []NewPayment{
		{AmountCents: 100, Type: types.PaymentRent},
		{TenantID: "t1", AmountCents: 0, Type: types.PaymentRent},
		{TenantID: "t1", AmountCents: 100, Type: "deposit"},
		{TenantID: "t1", AmountCents: 100, Type: types.PaymentRent, Status: types.PaymentFailed},
		{TenantID: "t1", AmountCents: 100, Type: types.PaymentRent, Split: &types.PaymentSplit{RentCents: 100}},
	}
	for _, np := range cases {
		_, err := svc.RecordPayment(ctx, np)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, "%+v", np)
	}

	_, err := svc.RecordPayment(ctx, NewPayment{TenantID: "ghost", AmountCents: 100, Type: types.PaymentRent})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReversePayment_ExactlyOnce(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()
	_, err := svc.RecordReading(ctx, "h1", 1300, "2026-03")
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, NewPayment{
		TenantID: "t1", AmountCents: 7500, Type: types.PaymentWater, Status: types.PaymentCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Tenant.WaterBillBalanceCents)

	reversed, err := svc.ReversePayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), reversed.Tenant.WaterBillBalanceCents)
	assert.Equal(t, types.PaymentCompleted, reversed.Payment.Status, "completed stays terminal")

	bills, _ := repo.LoadWaterBills(ctx)
	assert.Equal(t, types.WaterBillPending, bills[0].Status)
	assert.Empty(t, bills[0].PaymentID)

	_, err = svc.ReversePayment(ctx, res.Payment.ID)
	var dup *ledger.DuplicateApplicationError
	require.ErrorAs(t, err, &dup)

	tenant, _ := repo.GetTenant(ctx, "t1")
	assert.Equal(t, int64(7500), tenant.WaterBillBalanceCents)
	assert.Equal(t, event.TypePaymentReversed, rec.events[len(rec.events)-1].EventType)
}

func TestReversePayment_PendingIsRejected(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	res, err := svc.RecordPayment(ctx, NewPayment{TenantID: "t1", AmountCents: 100, Type: types.PaymentRent})
	require.NoError(t, err)

	_, err = svc.ReversePayment(ctx, res.Payment.ID)
	assert.ErrorIs(t, err, ledger.ErrNotCompleted)
}

func TestMarkOverdueBills(t *testing.T) {
	svc, repo, rec := newService(t)
	ctx := context.Background()
	_, err := svc.RecordReading(ctx, "h1", 1300, "2026-03")
	require.NoError(t, err)

	marked, err := svc.MarkOverdueBills(ctx)
	require.NoError(t, err)
	assert.Empty(t, marked, "bill is not yet due")

	svc.SetClock(func() time.Time { return clock.AddDate(0, 0, 20) })
	marked, err = svc.MarkOverdueBills(ctx)
	require.NoError(t, err)
	require.Len(t, marked, 1)

	bills, _ := repo.LoadWaterBills(ctx)
	assert.Equal(t, types.WaterBillOverdue, bills[0].Status)
	assert.Equal(t, event.TypeWaterBillOverdue, rec.events[len(rec.events)-1].EventType)
}

func TestWaterBill_PaidInInstallments(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	bill, err := svc.RecordReading(ctx, "h1", 1300, "2026-03")
	require.NoError(t, err)
	require.Equal(t, int64(7500), bill.AmountCents)

	first, err := svc.RecordPayment(ctx, NewPayment{
		TenantID: "t1", AmountCents: 3750, Type: types.PaymentWater, Status: types.PaymentCompleted,
	})
	require.NoError(t, err)
	bills, _ := repo.LoadWaterBills(ctx)
	assert.Equal(t, types.WaterBillPending, bills[0].Status, "half paid")

	pending, err := svc.RecordPayment(ctx, NewPayment{TenantID: "t1", AmountCents: 3750, Type: types.PaymentWater})
	require.NoError(t, err)
	second, err := svc.VerifyPayment(ctx, pending.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Tenant.WaterBillBalanceCents)

	bills, _ = repo.LoadWaterBills(ctx)
	assert.Equal(t, types.WaterBillPaid, bills[0].Status)
	assert.Equal(t, second.Payment.ID, bills[0].PaymentID)

	svc.SetClock(func() time.Time { return clock.AddDate(0, 1, 0) })
	marked, err := svc.MarkOverdueBills(ctx)
	require.NoError(t, err)
	assert.Empty(t, marked)
	reminders, err := svc.Reminders(ctx, admin)
	require.NoError(t, err)
	for _, r := range reminders {
		assert.NotEqual(t, types.ReminderWaterOverdue, r.Kind, "%+v", r)
	}

	_, err = svc.ReversePayment(ctx, first.Payment.ID)
	require.NoError(t, err)
	bills, _ = repo.LoadWaterBills(ctx)
	assert.Equal(t, types.WaterBillOverdue, bills[0].Status, "reopened past its due date")
	assert.Empty(t, bills[0].PaymentID)
}

func TestWaterBill_SettledOldestFirst(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	feb, err := svc.RecordReading(ctx, "h1", 1300, "2026-02")
	require.NoError(t, err)
	mar, err := svc.RecordReading(ctx, "h1", 1320, "2026-03")
	require.NoError(t, err)
	require.Equal(t, int64(3000), mar.AmountCents)

	_, err = svc.RecordPayment(ctx, NewPayment{
		TenantID: "t1", AmountCents: 8000, Type: types.PaymentWater, Status: types.PaymentCompleted,
	})
	require.NoError(t, err)

	status := map[string]types.WaterBillStatus{}
	bills, _ := repo.LoadWaterBills(ctx)
	for _, b := range bills {
		status[b.ID] = b.Status
	}
	assert.Equal(t, types.WaterBillPaid, status[feb.ID])
	assert.Equal(t, types.WaterBillPending, status[mar.ID])
}

func TestRecordReading_ExistingCreditPaysBill(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.RecordPayment(ctx, NewPayment{
		TenantID: "t1", AmountCents: 10000, Type: types.PaymentWater, Status: types.PaymentCompleted,
	})
	require.NoError(t, err)

	bill, err := svc.RecordReading(ctx, "h1", 1300, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, types.WaterBillPaid, bill.Status)
	assert.Empty(t, bill.PaymentID)

	short, err := svc.RecordReading(ctx, "h2", 450, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, types.WaterBillPending, short.Status, "t2 has no credit")
}

// txOnlyRepo fails every load made outside Atomic.
type txOnlyRepo struct {
	store.Repository
}

var errOutsideTx = errors.New("load outside transaction")

func (r txOnlyRepo) LoadHouses(context.Context) ([]types.House, error) {
	return nil, errOutsideTx
}

func (r txOnlyRepo) LoadTenants(context.Context) ([]types.Tenant, error) {
	return nil, errOutsideTx
}

func (r txOnlyRepo) LoadPayments(context.Context) ([]types.Payment, error) {
	return nil, errOutsideTx
}

func TestDashboard_ReadsOneTransaction(t *testing.T) {
	repo := store.NewMemoryStore()
	seed(t, repo)
	svc := New(txOnlyRepo{repo}, nil, DefaultConfig())
	svc.SetClock(func() time.Time { return clock })

	view, err := svc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	av, ok := view.(dashboard.AdminView)
	require.True(t, ok, "%T", view)
	assert.Equal(t, 3, av.TotalHouses)
}

func TestDashboard_RoleViews(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.AccrueRent(ctx, "2026-03")
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, NewPayment{TenantID: "t1", AmountCents: 5000, Type: types.PaymentRent, Status: types.PaymentCompleted})
	require.NoError(t, err)

	v, err := svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	av := v.(dashboard.AdminView)
	assert.Equal(t, 3, av.TotalHouses)
	assert.Equal(t, 2, av.OccupiedHouses)
	assert.Equal(t, 66.67, av.OccupancyRate)
	assert.Equal(t, int64(20000+30000), av.PendingRentCents)
	assert.Equal(t, int64(5000), av.CollectedCents)

	v, err = svc.Dashboard(ctx, landlord)
	require.NoError(t, err)
	lv := v.(dashboard.LandlordView)
	assert.Equal(t, 1, lv.TotalHouses)
	assert.Equal(t, int64(20000), lv.PendingRentCents)

	v, err = svc.Dashboard(ctx, tenantP)
	require.NoError(t, err)
	tv := v.(dashboard.TenantView)
	assert.Equal(t, int64(20000), tv.TotalBalanceCents)
	assert.Equal(t, 2, tv.DaysUntilDue)

	_, err = svc.Dashboard(ctx, session.Principal{UserID: "nobody", Role: types.RoleTenant})
	assert.ErrorIs(t, err, dashboard.ErrNoTenancy)
}

func TestRevenue(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.RecordPayment(ctx, NewPayment{TenantID: "t1", AmountCents: 25000, Type: types.PaymentRent, Status: types.PaymentCompleted})
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, NewPayment{TenantID: "t2", AmountCents: 30000, Type: types.PaymentRent, Status: types.PaymentCompleted})
	require.NoError(t, err)

	series, err := svc.Revenue(ctx, admin, 3)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, int64(55000), series[2].RentCents)

	series, err = svc.Revenue(ctx, landlord, 0)
	require.NoError(t, err)
	require.Len(t, series, 6)
	assert.Equal(t, int64(25000), series[5].RentCents)

	_, err = svc.Revenue(ctx, tenantP, 3)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSearch(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	houses, err := svc.SearchHouses(ctx, admin, "block b", "all")
	require.NoError(t, err)
	assert.Len(t, houses, 2)

	houses, err = svc.SearchHouses(ctx, admin, "", string(types.HouseVacant))
	require.NoError(t, err)
	require.Len(t, houses, 1)
	assert.Equal(t, "h3", houses[0].ID)

	houses, err = svc.SearchHouses(ctx, landlord, "", "")
	require.NoError(t, err)
	require.Len(t, houses, 1)

	tenants, err := svc.SearchTenants(ctx, admin, "b1", "")
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "t2", tenants[0].ID)

	_, err = svc.RecordPayment(ctx, NewPayment{TenantID: "t1", AmountCents: 100, Type: types.PaymentRent, Reference: "QX12"})
	require.NoError(t, err)
	payments, err := svc.SearchPayments(ctx, admin, "wanjiru", "pending")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	payments, err = svc.SearchPayments(ctx, admin, "qx12", "completed")
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestReminders(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.AccrueRent(ctx, "2026-03")
	require.NoError(t, err)

	// t1 is due on the 12th (two days out), t2 was due on the 1st.
	got, err := svc.Reminders(ctx, admin)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.ReminderRentOverdue, got[0].Kind)
	assert.Equal(t, "t2", got[0].TenantID)
	assert.Equal(t, types.ReminderRentDue, got[1].Kind)

	got, err = svc.Reminders(ctx, tenantP)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].TenantID)
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, event.DomainEvent) error {
	return errors.New("activity store down")
}

func TestRecorderFailureDoesNotUndoMutation(t *testing.T) {
	repo := store.NewMemoryStore()
	seed(t, repo)
	svc := New(repo, failingRecorder{}, DefaultConfig())
	svc.SetClock(func() time.Time { return clock })

	_, err := svc.AccrueRent(context.Background(), "2026-03")
	require.NoError(t, err)
	tenant, _ := repo.GetTenant(context.Background(), "t1")
	assert.Equal(t, int64(25000), tenant.RentBalanceCents)
}

func TestService_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenSQLite(ctx, "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	seed(t, db)

	svc := New(db, nil, DefaultConfig())
	svc.SetClock(func() time.Time { return clock })

	_, err = svc.RecordReading(ctx, "h1", 1300, "2026-03")
	require.NoError(t, err)
	res, err := svc.RecordPayment(ctx, NewPayment{TenantID: "t1", AmountCents: 7500, Type: types.PaymentWater})
	require.NoError(t, err)
	_, err = svc.VerifyPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	_, err = svc.VerifyPayment(ctx, res.Payment.ID)
	require.Error(t, err)

	tenant, err := db.GetTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), tenant.WaterBillBalanceCents)
	bills, err := db.LoadWaterBills(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.WaterBillPaid, bills[0].Status)
}
