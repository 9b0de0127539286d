// Package store persists houses, tenants, payments, water bills and ledger
// entries. Repository is the capability set the rental service depends on;
// MemoryStore and SQLStore implement it.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/types"
)

// ErrNotFound is returned by the Get methods when no record has the id.
var ErrNotFound = errors.New("not found")

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Repository loads and saves rental records. Load methods return records in
// insertion order. Save methods insert or replace by id.
type Repository interface {
	LoadHouses(ctx context.Context) ([]types.House, error)
	LoadTenants(ctx context.Context) ([]types.Tenant, error)
	LoadPayments(ctx context.Context) ([]types.Payment, error)
	LoadWaterBills(ctx context.Context) ([]types.WaterBill, error)
	LoadNotifications(ctx context.Context) ([]types.Notification, error)
	LoadMaintenance(ctx context.Context) ([]types.MaintenanceRequest, error)
	LoadLedgerEntries(ctx context.Context) ([]ledger.Entry, error)

	GetHouse(ctx context.Context, id string) (types.House, error)
	GetTenant(ctx context.Context, id string) (types.Tenant, error)
	GetPayment(ctx context.Context, id string) (types.Payment, error)

	SaveHouse(ctx context.Context, h types.House) error
	SaveTenant(ctx context.Context, t types.Tenant) error
	SavePayment(ctx context.Context, p types.Payment) error
	SaveWaterBill(ctx context.Context, b types.WaterBill) error
	SaveNotification(ctx context.Context, n types.Notification) error
	SaveMaintenance(ctx context.Context, m types.MaintenanceRequest) error
	SaveLedgerEntry(ctx context.Context, e ledger.Entry) error

	// Atomic runs fn against a view of the repository whose writes become
	// visible together when fn returns nil and are discarded otherwise.
	Atomic(ctx context.Context, fn func(Repository) error) error
}
