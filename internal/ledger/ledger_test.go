package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/matthewbaird/rentals/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func tenant(rent, water int64) types.Tenant {
	return types.Tenant{ID: "t1", HouseID: "h1", RentBalanceCents: rent, WaterBillBalanceCents: water, Status: types.TenantActive}
}

func payment(id string, typ types.PaymentType, amount int64, status types.PaymentStatus) types.Payment {
	return types.Payment{ID: id, TenantID: "t1", HouseID: "h1", AmountCents: amount, Type: typ, Status: status, Date: at}
}

func TestApplyPayment_RentSettlesBalance(t *testing.T) {
	got, err := ApplyPayment(tenant(5000, 0), payment("p1", types.PaymentRent, 5000, types.PaymentCompleted))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.RentBalanceCents)
}

func TestApplyPayment_OverpaymentBecomesCredit(t *testing.T) {
	got, err := ApplyPayment(tenant(0, 0), payment("p1", types.PaymentRent, 2000, types.PaymentCompleted))
	require.NoError(t, err)
	assert.Equal(t, int64(-2000), got.RentBalanceCents)
}

func TestApplyPayment_PartialWater(t *testing.T) {
	got, err := ApplyPayment(tenant(1000, 7500), payment("p1", types.PaymentWater, 2500, types.PaymentCompleted))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.RentBalanceCents)
	assert.Equal(t, int64(5000), got.WaterBillBalanceCents)
}

func TestApplyPayment_Combined(t *testing.T) {
	p := payment("p1", types.PaymentCombined, 32500, types.PaymentCompleted)
	p.Split = &types.PaymentSplit{RentCents: 25000, WaterCents: 7500}

	got, err := ApplyPayment(tenant(25000, 7500), p)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.RentBalanceCents)
	assert.Equal(t, int64(0), got.WaterBillBalanceCents)
}

func TestApplyPayment_CombinedSplitMismatch(t *testing.T) {
	cases := map[string]*types.PaymentSplit{
		"missing":   nil,
		"short":     {RentCents: 25000, WaterCents: 7000},
		"over":      {RentCents: 25000, WaterCents: 8000},
		"negative":  {RentCents: 40000, WaterCents: -7500},
		"all water": {RentCents: 0, WaterCents: 32501},
	}
	for name, split := range cases {
		t.Run(name, func(t *testing.T) {
			p := payment("p1", types.PaymentCombined, 32500, types.PaymentCompleted)
			p.Split = split
			before := tenant(25000, 7500)

			got, err := ApplyPayment(before, p)
			var mismatch *SplitMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, "p1", mismatch.PaymentID)
			assert.Equal(t, before, got, "balances must be unchanged on failure")
		})
	}
}

func TestApplyPayment_OtherLeavesBalances(t *testing.T) {
	got, err := ApplyPayment(tenant(100, 200), payment("p1", types.PaymentOther, 999, types.PaymentCompleted))
	require.NoError(t, err)
	assert.Equal(t, tenant(100, 200), got)
}

func TestApplyPayment_OnlyCompletedMoves(t *testing.T) {
	for _, status := range []types.PaymentStatus{types.PaymentPending, types.PaymentFailed} {
		got, err := ApplyPayment(tenant(5000, 0), payment("p1", types.PaymentRent, 5000, status))
		assert.ErrorIs(t, err, ErrNotCompleted)
		assert.Equal(t, int64(5000), got.RentBalanceCents)
	}
}

func TestApplyPayment_Rejections(t *testing.T) {
	_, err := ApplyPayment(tenant(0, 0), payment("p1", types.PaymentRent, 0, types.PaymentCompleted))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	p := payment("p1", types.PaymentRent, 10, types.PaymentCompleted)
	p.TenantID = "someone-else"
	_, err = ApplyPayment(tenant(0, 0), p)
	assert.ErrorIs(t, err, ErrTenantMismatch)

	_, err = ApplyPayment(tenant(0, 0), payment("p1", types.PaymentType("gift"), 10, types.PaymentCompleted))
	assert.Error(t, err)
}

func TestAccrue(t *testing.T) {
	got, err := Accrue(tenant(-2000, 0), 25000, 7500)
	require.NoError(t, err)
	assert.Equal(t, int64(23000), got.RentBalanceCents)
	assert.Equal(t, int64(7500), got.WaterBillBalanceCents)

	_, err = Accrue(tenant(0, 0), -1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestValidateTransition(t *testing.T) {
	allowed := [][2]types.PaymentStatus{
		{types.PaymentPending, types.PaymentCompleted},
		{types.PaymentPending, types.PaymentFailed},
		{types.PaymentFailed, types.PaymentPending},
	}
	for _, tr := range allowed {
		assert.NoError(t, ValidateTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	rejected := [][2]types.PaymentStatus{
		{types.PaymentCompleted, types.PaymentPending},
		{types.PaymentCompleted, types.PaymentFailed},
		{types.PaymentFailed, types.PaymentCompleted},
		{types.PaymentPending, types.PaymentPending},
		{types.PaymentStatus("lost"), types.PaymentPending},
	}
	for _, tr := range rejected {
		err := ValidateTransition(tr[0], tr[1])
		var te *InvalidStateTransitionError
		assert.True(t, errors.As(err, &te), "%s -> %s should be rejected", tr[0], tr[1])
	}
}

func TestBook_DuplicateApplyIsRejected(t *testing.T) {
	book := NewBook(nil)
	p := payment("p1", types.PaymentRent, 5000, types.PaymentCompleted)

	once, _, err := book.Apply(tenant(5000, 0), p, at)
	require.NoError(t, err)
	assert.Equal(t, int64(0), once.RentBalanceCents)

	twice, _, err := book.Apply(once, p, at)
	var dup *DuplicateApplicationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "p1", dup.PaymentID)
	assert.Equal(t, once, twice, "second apply must not move balances")
}

func TestBook_RebuiltFromEntriesStillDetectsDuplicates(t *testing.T) {
	book := NewBook([]Entry{{PaymentID: "p1", TenantID: "t1", RentCents: 5000, AppliedAt: at}})
	_, _, err := book.Apply(tenant(0, 0), payment("p1", types.PaymentRent, 5000, types.PaymentCompleted), at)
	var dup *DuplicateApplicationError
	assert.ErrorAs(t, err, &dup)
}

func TestBook_FailedApplyLeavesBookClean(t *testing.T) {
	book := NewBook(nil)
	p := payment("p1", types.PaymentCombined, 100, types.PaymentCompleted)
	_, _, err := book.Apply(tenant(0, 0), p, at)
	require.Error(t, err)

	_, ok := book.Lookup("p1")
	assert.False(t, ok, "a failed apply must not be recorded")

	p.Split = &types.PaymentSplit{RentCents: 60, WaterCents: 40}
	got, _, err := book.Apply(tenant(100, 100), p, at)
	require.NoError(t, err)
	assert.Equal(t, int64(40), got.RentBalanceCents)
	assert.Equal(t, int64(60), got.WaterBillBalanceCents)
}

func TestBook_ReverseExactlyOnce(t *testing.T) {
	book := NewBook(nil)
	p := payment("p1", types.PaymentCombined, 3000, types.PaymentCompleted)
	p.Split = &types.PaymentSplit{RentCents: 2000, WaterCents: 1000}

	applied, _, err := book.Apply(tenant(2000, 1000), p, at)
	require.NoError(t, err)

	reversed, e, err := book.Reverse(applied, "p1", at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, tenant(2000, 1000), reversed)
	require.NotNil(t, e.ReversedAt)

	again, _, err := book.Reverse(reversed, "p1", at.Add(2*time.Hour))
	var dup *DuplicateApplicationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "reverse", dup.Op)
	assert.Equal(t, reversed, again)

	_, _, err = book.Apply(reversed, p, at)
	assert.ErrorAs(t, err, &dup, "a reversed payment cannot be applied again")
}

func TestBook_ReverseUnknown(t *testing.T) {
	_, _, err := NewBook(nil).Reverse(tenant(0, 0), "nope", at)
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestBook_TransitionStateMachine(t *testing.T) {
	book := NewBook(nil)
	p := payment("p1", types.PaymentRent, 5000, types.PaymentPending)
	ten := tenant(5000, 0)

	// pending -> failed does not touch balances.
	ten, p, e, err := book.Transition(ten, p, types.PaymentFailed, at)
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, types.PaymentFailed, p.Status)
	assert.Equal(t, int64(5000), ten.RentBalanceCents)

	// failed -> completed is not a legal shortcut.
	_, _, _, err = book.Transition(ten, p, types.PaymentCompleted, at)
	var te *InvalidStateTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "p1", te.PaymentID)

	// Manual retry, then verification.
	ten, p, _, err = book.Transition(ten, p, types.PaymentPending, at)
	require.NoError(t, err)
	ten, p, e, err = book.Transition(ten, p, types.PaymentCompleted, at)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, types.PaymentCompleted, p.Status)
	assert.Equal(t, int64(0), ten.RentBalanceCents)

	// completed is terminal.
	_, _, _, err = book.Transition(ten, p, types.PaymentPending, at)
	assert.ErrorAs(t, err, &te)
}

func TestBook_TransitionFailureKeepsPending(t *testing.T) {
	book := NewBook(nil)
	p := payment("p1", types.PaymentCombined, 500, types.PaymentPending)
	ten := tenant(500, 0)

	gotTenant, gotPayment, _, err := book.Transition(ten, p, types.PaymentCompleted, at)
	var mismatch *SplitMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, types.PaymentPending, gotPayment.Status)
	assert.Equal(t, ten, gotTenant)
}
