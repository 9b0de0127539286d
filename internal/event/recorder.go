// Package event defines the domain events raised by rental operations and
// records them into the per-entity activity stream.
package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthewbaird/rentals/internal/activity"
	"github.com/matthewbaird/rentals/internal/types"
)

// ErrNoEntities is returned for an event that references no entity, since
// it could never appear in any activity stream.
var ErrNoEntities = errors.New("event references no entities")

// Recorder records a domain event once the mutation that raised it has
// committed.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher hands recorded events to in-process consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder indexes each event under every entity it touches, so a
// tenant, house, landlord or payment stream each show the event once.
// Events are published only after their entries are stored; a consumer
// never sees an event that is missing from the activity history.
type ActivityRecorder struct {
	store activity.Store
	pub   Publisher
}

// NewActivityRecorder creates an ActivityRecorder writing to store.
func NewActivityRecorder(store activity.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

// SetPublisher attaches the event bus.
func (r *ActivityRecorder) SetPublisher(p Publisher) {
	r.pub = p
}

// Record writes one activity entry per distinct referenced entity, then
// publishes evt.
func (r *ActivityRecorder) Record(ctx context.Context, evt DomainEvent) error {
	entries := Entries(evt)
	if len(entries) == 0 {
		return fmt.Errorf("%s %s: %w", evt.EventType, evt.ID, ErrNoEntities)
	}
	if err := r.store.WriteEntries(ctx, entries); err != nil {
		return fmt.Errorf("writing activity for %s %s: %w", evt.EventType, evt.ID, err)
	}
	if r.pub != nil {
		r.pub.Publish(ctx, evt)
	}
	return nil
}

// Entries expands evt into activity entries, one per distinct entity with a
// non-empty id. The first reference to an entity decides its role. Times
// are stored in UTC.
func Entries(evt DomainEvent) []types.ActivityEntry {
	seen := make(map[string]bool, len(evt.AffectedEntities))
	entries := make([]types.ActivityEntry, 0, len(evt.AffectedEntities))
	for _, ref := range evt.AffectedEntities {
		key := ref.EntityType + "/" + ref.EntityID
		if ref.EntityID == "" || seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, types.ActivityEntry{
			EventID:           evt.ID,
			EventType:         evt.EventType,
			OccurredAt:        evt.OccurredAt.UTC(),
			IndexedEntityType: ref.EntityType,
			IndexedEntityID:   ref.EntityID,
			EntityRole:        ref.Role,
			SourceRefs:        evt.AffectedEntities,
			Summary:           evt.Summary,
			Category:          evt.Category,
			Polarity:          evt.Polarity,
			Payload:           evt.Payload,
		})
	}
	return entries
}
