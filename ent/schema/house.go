package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// House holds the schema definition for the House entity.
type House struct {
	ent.Schema
}

// Mixin of the House.
func (House) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

// Fields of the House.
func (House) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable(),
		field.String("number").NotEmpty(),
		field.String("name").Optional(),
		field.String("landlord_id").Optional(),
		field.String("caretaker_id").Optional(),
		field.Int64("monthly_rent_cents").NonNegative().
			Comment("Fixed monthly rent in minor currency units"),
		field.Enum("status").Values("occupied", "vacant", "maintenance"),
		field.String("kplc_meter_number").Optional().Unique().
			Comment("Electricity meter number; unique when set"),
		field.Int64("water_meter_reading").NonNegative().
			Comment("Last recorded water meter reading in cubic metres"),
		field.Int("rent_due_day").Default(5),
	}
}
