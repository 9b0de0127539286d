package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Notification holds the schema definition for the Notification entity.
type Notification struct {
	ent.Schema
}

// Fields of the Notification.
func (Notification) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable(),
		field.String("user_id").NotEmpty(),
		field.String("title"),
		field.String("message"),
		field.String("kind").Optional(),
		field.Bool("read").Default(false),
		field.Time("created_at"),
	}
}
