// Package activity provides the activity store interface and implementations
// for the per-entity activity stream behind the dashboard feed.
package activity

import (
	"errors"
	"slices"
	"time"

	"github.com/matthewbaird/rentals/internal/types"
)

const (
	defaultQueryLimit  = 100
	maxQueryLimit      = 500
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// ErrInvalidCursor is returned for a pagination cursor that is not an
// RFC 3339 timestamp.
var ErrInvalidCursor = errors.New("invalid activity cursor")

// QueryOptions filters and pages one entity's activity.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	Categories []string // payment, billing, tenancy, maintenance
	Polarities []string // positive, negative, neutral
	Limit      int      // default 100, at most 500
	Cursor     string   // occurred_at of the last entry on the previous page
}

// SearchOptions filters a summary search across all entities.
type SearchOptions struct {
	EntityType string
	Since      *time.Time
	Categories []string
	Polarities []string
	Limit      int // default 20, at most 100
}

// DefaultQueryOptions covers the last six months.
func DefaultQueryOptions() QueryOptions {
	now := time.Now().UTC()
	since := now.AddDate(0, -6, 0)
	return QueryOptions{Since: &since, Until: &now, Limit: defaultQueryLimit}
}

// DefaultSearchOptions returns an unfiltered search.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: defaultSearchLimit}
}

// cursor parses the pagination cursor. An empty cursor yields nil.
func (o QueryOptions) cursor() (*time.Time, error) {
	if o.Cursor == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, o.Cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &t, nil
}

// matches applies every filter except the entity and the cursor.
func (o QueryOptions) matches(e types.ActivityEntry) bool {
	if o.Since != nil && e.OccurredAt.Before(*o.Since) {
		return false
	}
	if o.Until != nil && e.OccurredAt.After(*o.Until) {
		return false
	}
	return inSet(o.Categories, e.Category) && inSet(o.Polarities, e.Polarity)
}

func (o SearchOptions) matches(e types.ActivityEntry) bool {
	if o.EntityType != "" && e.IndexedEntityType != o.EntityType {
		return false
	}
	if o.Since != nil && e.OccurredAt.Before(*o.Since) {
		return false
	}
	return inSet(o.Categories, e.Category) && inSet(o.Polarities, e.Polarity)
}

// inSet reports whether v is allowed by set. An empty set allows anything.
func inSet(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

func queryLimit(n int) int {
	switch {
	case n <= 0:
		return defaultQueryLimit
	case n > maxQueryLimit:
		return maxQueryLimit
	}
	return n
}

func searchLimit(n int) int {
	switch {
	case n <= 0:
		return defaultSearchLimit
	case n > maxSearchLimit:
		return maxSearchLimit
	}
	return n
}

func entryKey(e types.ActivityEntry) string {
	return e.EventID + "/" + e.IndexedEntityType + "/" + e.IndexedEntityID
}
