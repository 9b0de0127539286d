package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// LedgerEntry records that a payment's components were applied to a tenant's
// balances. One row per payment; the payment id is the key.
type LedgerEntry struct {
	ent.Schema
}

// Fields of the LedgerEntry.
func (LedgerEntry) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable().Comment("Payment id"),
		field.String("tenant_id").NotEmpty().Immutable(),
		field.Int64("rent_cents").Immutable(),
		field.Int64("water_cents").Immutable(),
		field.Time("applied_at").Immutable(),
		field.Time("reversed_at").Optional().Nillable(),
	}
}
