package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"

	"github.com/matthewbaird/rentals/internal/types"
)

// ActivityEntry is one row of an entity's activity history. It is written
// by the event recorder, never by the rental service directly.
type ActivityEntry struct {
	ent.Schema
}

// Fields of the ActivityEntry.
func (ActivityEntry) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Immutable().
			Comment("event_id/indexed_entity_type/indexed_entity_id"),
		field.String("event_id").NotEmpty(),
		field.String("event_type").NotEmpty(),
		field.Time("occurred_at"),
		field.String("indexed_entity_type").NotEmpty(),
		field.String("indexed_entity_id").NotEmpty(),
		field.String("entity_role"),
		field.JSON("source_refs", []types.SourceRef{}),
		field.Text("summary"),
		field.String("category"),
		field.String("polarity"),
		field.Bytes("payload").Optional(),
	}
}
