package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Tenant holds the schema definition for the Tenant entity.
type Tenant struct {
	ent.Schema
}

// Mixin of the Tenant.
func (Tenant) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

// Fields of the Tenant.
func (Tenant) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable(),
		field.String("name").NotEmpty(),
		field.String("email").Optional(),
		field.String("phone").Optional(),
		field.String("national_id").Optional(),
		field.String("house_id").NotEmpty(),
		field.Int64("rent_balance_cents").
			Comment("Signed: positive is owed, negative is credit"),
		field.Int64("water_bill_balance_cents").
			Comment("Signed: positive is owed, negative is credit"),
		field.Enum("status").Values("active", "moving_out", "moved_out"),
		field.Time("move_in_date"),
		field.Time("move_out_date").Optional().Nillable(),
	}
}
