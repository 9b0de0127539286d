package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// MaintenanceRequest holds the schema definition for the MaintenanceRequest entity.
type MaintenanceRequest struct {
	ent.Schema
}

// Fields of the MaintenanceRequest.
func (MaintenanceRequest) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable(),
		field.String("house_id").NotEmpty(),
		field.String("tenant_id").Optional(),
		field.String("title"),
		field.String("description").Optional(),
		field.String("priority").Optional(),
		field.Enum("status").Values("open", "in_progress", "resolved"),
		field.Time("created_at"),
	}
}
