package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Payment holds the schema definition for the Payment entity. Only status
// changes after creation.
type Payment struct {
	ent.Schema
}

// Mixin of the Payment.
func (Payment) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

// Fields of the Payment.
func (Payment) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable(),
		field.String("tenant_id").NotEmpty().Immutable(),
		field.String("house_id").Optional().Immutable(),
		field.Int64("amount_cents").Positive().Immutable(),
		field.Enum("type").Values("rent", "water", "combined", "other").Immutable(),
		field.Enum("status").Values("pending", "completed", "failed"),
		field.String("method").Optional(),
		field.String("reference").Optional(),
		field.String("description").Optional(),
		field.Time("date"),
		field.Int64("split_rent_cents").Optional().Nillable().
			Comment("Rent component of a combined payment"),
		field.Int64("split_water_cents").Optional().Nillable().
			Comment("Water component of a combined payment"),
	}
}
