package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/rental"
	"github.com/matthewbaird/rentals/internal/session"
	"github.com/matthewbaird/rentals/internal/store"
	"github.com/matthewbaird/rentals/internal/types"
)

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, event.DomainEvent) error { return nil }

func newService(repo store.Repository) *rental.Service {
	svc := rental.New(repo, nopRecorder{}, rental.DefaultConfig())
	svc.SetClock(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) })
	return svc
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	svc := newService(repo)

	sum, err := Seed(ctx, repo, svc)
	require.NoError(t, err)
	assert.Equal(t, Summary{Houses: 5, Tenants: 4, WaterBills: 4, Payments: 5, Maintenance: 2}, sum)

	t1, err := repo.GetTenant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), t1.RentBalanceCents)
	assert.Equal(t, int64(0), t1.WaterBillBalanceCents)

	t2, err := repo.GetTenant(ctx, "tenant-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1500000), t2.RentBalanceCents, "pending payment is not applied")
	assert.Equal(t, int64(6300), t2.WaterBillBalanceCents)

	payments, err := repo.LoadPayments(ctx)
	require.NoError(t, err)
	statuses := map[types.PaymentStatus]int{}
	for _, p := range payments {
		statuses[p.Status]++
	}
	assert.Equal(t, map[types.PaymentStatus]int{
		types.PaymentCompleted: 3,
		types.PaymentPending:   1,
		types.PaymentFailed:    1,
	}, statuses)

	entries, err := repo.LoadLedgerEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	view, err := svc.Dashboard(ctx, session.Principal{UserID: "tenant-1", Role: types.RoleTenant})
	require.NoError(t, err)
	assert.Equal(t, types.RoleTenant, view.Role())
}

func TestSeed_SkipsWhenPopulated(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	svc := newService(repo)

	_, err := Seed(ctx, repo, svc)
	require.NoError(t, err)
	sum, err := Seed(ctx, repo, svc)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)

	houses, err := repo.LoadHouses(ctx)
	require.NoError(t, err)
	assert.Len(t, houses, 5)
}

func TestSeed_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenSQLite(ctx, "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	_, err = Seed(ctx, db, newService(db))
	require.NoError(t, err)

	bills, err := db.LoadWaterBills(ctx)
	require.NoError(t, err)
	paid := 0
	for _, b := range bills {
		if b.Status == types.WaterBillPaid {
			paid++
		}
	}
	assert.Len(t, bills, 4)
	assert.Equal(t, 2, paid)
}
