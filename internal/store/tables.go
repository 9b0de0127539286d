package store

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"

	entschema "github.com/matthewbaird/rentals/ent/schema"
)

const (
	housesTable        = "houses"
	tenantsTable       = "tenants"
	paymentsTable      = "payments"
	waterBillsTable    = "water_bills"
	notificationsTable = "notifications"
	maintenanceTable   = "maintenance_requests"
	ledgerTable        = "ledger_entries"
	activityTable      = "activity_entries"
)

// Tables is the relational layout of every persisted record, derived from
// the field descriptors in ent/schema.
var Tables = []*schema.Table{
	tableFor(housesTable, entschema.House{}),
	tableFor(tenantsTable, entschema.Tenant{}).
		AddIndex("tenants_house_id", false, []string{"house_id"}),
	tableFor(paymentsTable, entschema.Payment{}).
		AddIndex("payments_tenant_id", false, []string{"tenant_id"}),
	tableFor(waterBillsTable, entschema.WaterBill{}).
		AddIndex("water_bills_house_id", false, []string{"house_id"}),
	tableFor(notificationsTable, entschema.Notification{}).
		AddIndex("notifications_user_id", false, []string{"user_id"}),
	tableFor(maintenanceTable, entschema.MaintenanceRequest{}),
	tableFor(ledgerTable, entschema.LedgerEntry{}),
	tableFor(activityTable, entschema.ActivityEntry{}).
		AddIndex("activity_entity_time", false, []string{"indexed_entity_type", "indexed_entity_id", "occurred_at"}),
}

// tableFor builds a migration table from a schema's mixin and own fields.
// The field named "id" becomes the primary key.
func tableFor(name string, s ent.Interface) *schema.Table {
	var fields []ent.Field
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
	}
	fields = append(fields, s.Fields()...)

	t := schema.NewTable(name)
	for _, f := range fields {
		d := f.Descriptor()
		col := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional,
			Comment:  d.Comment,
		}
		for _, e := range d.Enums {
			col.Enums = append(col.Enums, e.V)
		}
		if d.Name == "id" {
			t.AddPrimary(col)
			continue
		}
		t.AddColumn(col)
	}
	return t
}

// hasAudit reports whether rows of the table carry created_at/updated_at
// maintained by the store.
func hasAudit(table string) bool {
	switch table {
	case housesTable, tenantsTable, paymentsTable, waterBillsTable:
		return true
	}
	return false
}
