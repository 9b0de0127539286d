package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/types"

	_ "modernc.org/sqlite"
)

var builder = entsql.Dialect(dialect.SQLite)

var (
	houseColumns = []string{
		"id", "number", "name", "landlord_id", "caretaker_id", "monthly_rent_cents",
		"status", "kplc_meter_number", "water_meter_reading", "rent_due_day",
	}
	tenantColumns = []string{
		"id", "name", "email", "phone", "national_id", "house_id", "rent_balance_cents",
		"water_bill_balance_cents", "status", "move_in_date", "move_out_date",
	}
	paymentColumns = []string{
		"id", "tenant_id", "house_id", "amount_cents", "type", "status", "method",
		"reference", "description", "date", "split_rent_cents", "split_water_cents",
	}
	waterBillColumns = []string{
		"id", "house_id", "tenant_id", "previous_reading", "current_reading", "units_used",
		"unit_price_cents", "amount_cents", "month", "due_date", "status", "payment_id",
	}
	notificationColumns = []string{"id", "user_id", "title", "message", "kind", "read", "created_at"}
	maintenanceColumns  = []string{"id", "house_id", "tenant_id", "title", "description", "priority", "status", "created_at"}
	ledgerColumns       = []string{"id", "tenant_id", "rent_cents", "water_cents", "applied_at", "reversed_at"}
)

// SQLStore implements Repository on an ent SQL driver. Statements are built
// with the ent dialect builders; the schema comes from Tables.
type SQLStore struct {
	drv  *entsql.Driver
	conn dialect.ExecQuerier
	inTx bool
}

// NewSQLStore wraps an open ent SQL driver.
func NewSQLStore(drv *entsql.Driver) *SQLStore {
	return &SQLStore{drv: drv, conn: drv}
}

// OpenSQLite opens a SQLite database with the pure-Go driver. The DSN must
// enable foreign keys, e.g. "file:rentals.db?_pragma=foreign_keys(1)".
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return NewSQLStore(entsql.OpenDB(dialect.SQLite, db)), nil
}

// Migrate creates or alters tables to match Tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("running schema migration: %w", err)
	}
	return nil
}

// Driver returns the ent driver, for stores that share the database.
func (s *SQLStore) Driver() *entsql.Driver {
	return s.drv
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.drv.Close()
}

// Atomic runs fn inside a SQL transaction. Nested calls join the outer
// transaction.
func (s *SQLStore) Atomic(ctx context.Context, fn func(Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := fn(&SQLStore{drv: s.drv, conn: tx, inTx: true}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: rolling back: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ─── Writes ─────────────────────────────────────────────────────────────────

// upsert inserts a row or replaces every column except id and created_at.
func (s *SQLStore) upsert(ctx context.Context, table string, columns []string, values []any) error {
	if hasAudit(table) {
		now := time.Now().UTC()
		columns = append(append([]string(nil), columns...), "created_at", "updated_at")
		values = append(values, now, now)
	}
	q, args := builder.Insert(table).
		Columns(columns...).
		Values(values...).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range columns {
					if c != "id" && c != "created_at" {
						u.SetExcluded(c)
					}
				}
			}),
		).
		Query()
	if err := s.conn.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("saving %s: %w", table, err)
	}
	return nil
}

func (s *SQLStore) SaveHouse(ctx context.Context, h types.House) error {
	return s.upsert(ctx, housesTable, houseColumns, []any{
		h.ID, h.Number, h.Name, h.LandlordID, h.CaretakerID, h.MonthlyRentCents,
		string(h.Status), nullString(h.KPLCMeterNumber), h.WaterMeterReading, h.RentDueDay,
	})
}

func (s *SQLStore) SaveTenant(ctx context.Context, t types.Tenant) error {
	return s.upsert(ctx, tenantsTable, tenantColumns, []any{
		t.ID, t.Name, t.Email, t.Phone, t.NationalID, t.HouseID, t.RentBalanceCents,
		t.WaterBillBalanceCents, string(t.Status), t.MoveInDate, nullTime(t.MoveOutDate),
	})
}

func (s *SQLStore) SavePayment(ctx context.Context, p types.Payment) error {
	var rent, water any
	if p.Split != nil {
		rent, water = p.Split.RentCents, p.Split.WaterCents
	}
	return s.upsert(ctx, paymentsTable, paymentColumns, []any{
		p.ID, p.TenantID, p.HouseID, p.AmountCents, string(p.Type), string(p.Status),
		p.Method, p.Reference, p.Description, p.Date, rent, water,
	})
}

func (s *SQLStore) SaveWaterBill(ctx context.Context, b types.WaterBill) error {
	return s.upsert(ctx, waterBillsTable, waterBillColumns, []any{
		b.ID, b.HouseID, b.TenantID, b.PreviousReading, b.CurrentReading, b.UnitsUsed,
		b.UnitPriceCents, b.AmountCents, b.Month, b.DueDate, string(b.Status), b.PaymentID,
	})
}

func (s *SQLStore) SaveNotification(ctx context.Context, n types.Notification) error {
	return s.upsert(ctx, notificationsTable, notificationColumns, []any{
		n.ID, n.UserID, n.Title, n.Message, n.Kind, n.Read, n.CreatedAt,
	})
}

func (s *SQLStore) SaveMaintenance(ctx context.Context, m types.MaintenanceRequest) error {
	return s.upsert(ctx, maintenanceTable, maintenanceColumns, []any{
		m.ID, m.HouseID, m.TenantID, m.Title, m.Description, m.Priority, string(m.Status), m.CreatedAt,
	})
}

func (s *SQLStore) SaveLedgerEntry(ctx context.Context, e ledger.Entry) error {
	return s.upsert(ctx, ledgerTable, ledgerColumns, []any{
		e.PaymentID, e.TenantID, e.RentCents, e.WaterCents, e.AppliedAt, nullTime(e.ReversedAt),
	})
}

// ─── Reads ──────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

// query runs sel and calls scan once per row.
func (s *SQLStore) query(ctx context.Context, sel *entsql.Selector, scan func(scanner) error) error {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := s.conn.Query(ctx, q, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// selectAll lists a table in insertion order.
func selectAll(table string, columns []string) *entsql.Selector {
	return builder.Select(columns...).
		From(builder.Table(table)).
		OrderExpr(entsql.Expr("rowid"))
}

func selectByID(table string, columns []string, id string) *entsql.Selector {
	return builder.Select(columns...).
		From(builder.Table(table)).
		Where(entsql.EQ("id", id))
}

// loadAll runs selectAll and collects rows with scan.
func loadAll[T any](ctx context.Context, s *SQLStore, table string, columns []string, scan func(scanner) (T, error)) ([]T, error) {
	out := []T{}
	err := s.query(ctx, selectAll(table, columns), func(sc scanner) error {
		v, err := scan(sc)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", table, err)
	}
	return out, nil
}

// getOne runs selectByID and returns ErrNotFound when no row matches.
func getOne[T any](ctx context.Context, s *SQLStore, table, kind string, columns []string, id string, scan func(scanner) (T, error)) (T, error) {
	var (
		out   T
		found bool
	)
	err := s.query(ctx, selectByID(table, columns, id), func(sc scanner) error {
		v, err := scan(sc)
		if err != nil {
			return err
		}
		out, found = v, true
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("getting %s %s: %w", kind, id, err)
	}
	if !found {
		return out, notFound(kind, id)
	}
	return out, nil
}

func (s *SQLStore) LoadHouses(ctx context.Context) ([]types.House, error) {
	return loadAll(ctx, s, housesTable, houseColumns, scanHouse)
}

func (s *SQLStore) LoadTenants(ctx context.Context) ([]types.Tenant, error) {
	return loadAll(ctx, s, tenantsTable, tenantColumns, scanTenant)
}

func (s *SQLStore) LoadPayments(ctx context.Context) ([]types.Payment, error) {
	return loadAll(ctx, s, paymentsTable, paymentColumns, scanPayment)
}

func (s *SQLStore) LoadWaterBills(ctx context.Context) ([]types.WaterBill, error) {
	return loadAll(ctx, s, waterBillsTable, waterBillColumns, scanWaterBill)
}

func (s *SQLStore) LoadNotifications(ctx context.Context) ([]types.Notification, error) {
	return loadAll(ctx, s, notificationsTable, notificationColumns, scanNotification)
}

func (s *SQLStore) LoadMaintenance(ctx context.Context) ([]types.MaintenanceRequest, error) {
	return loadAll(ctx, s, maintenanceTable, maintenanceColumns, scanMaintenance)
}

func (s *SQLStore) LoadLedgerEntries(ctx context.Context) ([]ledger.Entry, error) {
	return loadAll(ctx, s, ledgerTable, ledgerColumns, scanLedgerEntry)
}

func (s *SQLStore) GetHouse(ctx context.Context, id string) (types.House, error) {
	return getOne(ctx, s, housesTable, "house", houseColumns, id, scanHouse)
}

func (s *SQLStore) GetTenant(ctx context.Context, id string) (types.Tenant, error) {
	return getOne(ctx, s, tenantsTable, "tenant", tenantColumns, id, scanTenant)
}

func (s *SQLStore) GetPayment(ctx context.Context, id string) (types.Payment, error) {
	return getOne(ctx, s, paymentsTable, "payment", paymentColumns, id, scanPayment)
}

// ─── Row scanning ───────────────────────────────────────────────────────────

func scanHouse(sc scanner) (types.House, error) {
	var (
		h     types.House
		meter sql.NullString
	)
	err := sc.Scan(&h.ID, &h.Number, &h.Name, &h.LandlordID, &h.CaretakerID, &h.MonthlyRentCents,
		&h.Status, &meter, &h.WaterMeterReading, &h.RentDueDay)
	h.KPLCMeterNumber = meter.String
	return h, err
}

func scanTenant(sc scanner) (types.Tenant, error) {
	var (
		t       types.Tenant
		moveOut sql.NullTime
	)
	err := sc.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.NationalID, &t.HouseID, &t.RentBalanceCents,
		&t.WaterBillBalanceCents, &t.Status, &t.MoveInDate, &moveOut)
	t.MoveOutDate = timePtr(moveOut)
	return t, err
}

func scanPayment(sc scanner) (types.Payment, error) {
	var (
		p           types.Payment
		rent, water sql.NullInt64
	)
	err := sc.Scan(&p.ID, &p.TenantID, &p.HouseID, &p.AmountCents, &p.Type, &p.Status, &p.Method,
		&p.Reference, &p.Description, &p.Date, &rent, &water)
	if rent.Valid || water.Valid {
		p.Split = &types.PaymentSplit{RentCents: rent.Int64, WaterCents: water.Int64}
	}
	return p, err
}

func scanWaterBill(sc scanner) (types.WaterBill, error) {
	var b types.WaterBill
	err := sc.Scan(&b.ID, &b.HouseID, &b.TenantID, &b.PreviousReading, &b.CurrentReading, &b.UnitsUsed,
		&b.UnitPriceCents, &b.AmountCents, &b.Month, &b.DueDate, &b.Status, &b.PaymentID)
	return b, err
}

func scanNotification(sc scanner) (types.Notification, error) {
	var n types.Notification
	err := sc.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Read, &n.CreatedAt)
	return n, err
}

func scanMaintenance(sc scanner) (types.MaintenanceRequest, error) {
	var m types.MaintenanceRequest
	err := sc.Scan(&m.ID, &m.HouseID, &m.TenantID, &m.Title, &m.Description, &m.Priority, &m.Status, &m.CreatedAt)
	return m, err
}

func scanLedgerEntry(sc scanner) (ledger.Entry, error) {
	var (
		e        ledger.Entry
		reversed sql.NullTime
	)
	err := sc.Scan(&e.PaymentID, &e.TenantID, &e.RentCents, &e.WaterCents, &e.AppliedAt, &reversed)
	e.ReversedAt = timePtr(reversed)
	return e, err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
