package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// WaterBill holds the schema definition for the WaterBill entity.
type WaterBill struct {
	ent.Schema
}

// Mixin of the WaterBill.
func (WaterBill) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

// Fields of the WaterBill.
func (WaterBill) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable(),
		field.String("house_id").NotEmpty(),
		field.String("tenant_id").NotEmpty(),
		field.Int64("previous_reading"),
		field.Int64("current_reading"),
		field.Int64("units_used"),
		field.Int64("unit_price_cents"),
		field.Int64("amount_cents"),
		field.String("month").Comment("Billing month, YYYY-MM"),
		field.Time("due_date").Optional(),
		field.Enum("status").Values("pending", "paid", "overdue"),
		field.String("payment_id").Optional(),
	}
}
