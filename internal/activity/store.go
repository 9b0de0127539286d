package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/matthewbaird/rentals/internal/types"
)

// Store is the interface for reading and writing activity entries.
// ActivityEntry is a secondary index over domain events, not a record the
// rental service owns.
type Store interface {
	// WriteEntries writes one or more activity entries (one event → many entries).
	WriteEntries(ctx context.Context, entries []types.ActivityEntry) error

	// QueryByEntity returns activity entries for a specific entity.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []types.ActivityEntry, nextCursor string, totalCount int, err error)

	// Search performs case-insensitive substring search across activity summaries.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []types.ActivityEntry, totalCount int, err error)
}

const table = "activity_entries"

var columns = []string{
	"id", "event_id", "event_type", "occurred_at", "indexed_entity_type", "indexed_entity_id",
	"entity_role", "source_refs", "summary", "category", "polarity", "payload",
}

var builder = entsql.Dialect(dialect.SQLite)

// SQLStore implements Store on the activity_entries table, which the rental
// store's migration creates.
type SQLStore struct {
	conn dialect.ExecQuerier
}

// NewSQLStore creates a SQLStore on an ent driver or transaction.
func NewSQLStore(conn dialect.ExecQuerier) *SQLStore {
	return &SQLStore{conn: conn}
}

// WriteEntries inserts activity entries. Entries already present for the
// same event and entity are ignored.
func (s *SQLStore) WriteEntries(ctx context.Context, entries []types.ActivityEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ins := builder.Insert(table).Columns(columns...)
	for _, e := range entries {
		refsJSON, err := json.Marshal(e.SourceRefs)
		if err != nil {
			return fmt.Errorf("encoding source refs: %w", err)
		}
		ins.Values(
			entryKey(e), e.EventID, e.EventType, e.OccurredAt.UTC(), e.IndexedEntityType, e.IndexedEntityID,
			e.EntityRole, refsJSON, e.Summary, e.Category, e.Polarity, []byte(e.Payload),
		)
	}
	q, args := ins.OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).Query()
	if err := s.conn.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("writing activity entries: %w", err)
	}
	return nil
}

// QueryByEntity returns activity entries for a specific entity with filtering and pagination.
func (s *SQLStore) QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) ([]types.ActivityEntry, string, int, error) {
	limit := queryLimit(opts.Limit)

	preds := []*entsql.Predicate{
		entsql.EQ("indexed_entity_type", entityType),
		entsql.EQ("indexed_entity_id", entityID),
	}
	if opts.Since != nil {
		preds = append(preds, entsql.GTE("occurred_at", opts.Since.UTC()))
	}
	if opts.Until != nil {
		preds = append(preds, entsql.LTE("occurred_at", opts.Until.UTC()))
	}
	preds = appendSetFilters(preds, opts.Categories, opts.Polarities)

	cursor, err := opts.cursor()
	if err != nil {
		return nil, "", 0, err
	}
	total, err := s.count(ctx, preds)
	if err != nil {
		return nil, "", 0, err
	}
	if cursor != nil {
		preds = append(preds, entsql.LT("occurred_at", cursor.UTC()))
	}

	// Fetch one extra row to know whether there is a next page.
	entries, err := s.list(ctx, preds, limit+1)
	if err != nil {
		return nil, "", 0, fmt.Errorf("querying activity entries: %w", err)
	}

	var nextCursor string
	if len(entries) > limit {
		entries = entries[:limit]
		nextCursor = entries[len(entries)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return entries, nextCursor, total, nil
}

// Search performs case-insensitive substring search across activity summaries.
func (s *SQLStore) Search(ctx context.Context, query string, opts SearchOptions) ([]types.ActivityEntry, int, error) {
	preds := []*entsql.Predicate{entsql.ContainsFold("summary", query)}
	if opts.EntityType != "" {
		preds = append(preds, entsql.EQ("indexed_entity_type", opts.EntityType))
	}
	if opts.Since != nil {
		preds = append(preds, entsql.GTE("occurred_at", opts.Since.UTC()))
	}
	preds = appendSetFilters(preds, opts.Categories, opts.Polarities)

	total, err := s.count(ctx, preds)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.list(ctx, preds, searchLimit(opts.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("searching activity entries: %w", err)
	}
	return entries, total, nil
}

func (s *SQLStore) list(ctx context.Context, preds []*entsql.Predicate, limit int) ([]types.ActivityEntry, error) {
	q, args := builder.Select(columns[1:]...).
		From(builder.Table(table)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("occurred_at")).
		Limit(limit).
		Query()

	var rows entsql.Rows
	if err := s.conn.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []types.ActivityEntry{}
	for rows.Next() {
		var (
			e           types.ActivityEntry
			refsJSON    []byte
			payloadJSON []byte
		)
		err := rows.Scan(
			&e.EventID, &e.EventType, &e.OccurredAt, &e.IndexedEntityType, &e.IndexedEntityID,
			&e.EntityRole, &refsJSON, &e.Summary, &e.Category, &e.Polarity, &payloadJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		if len(refsJSON) > 0 {
			_ = json.Unmarshal(refsJSON, &e.SourceRefs)
		}
		if len(payloadJSON) > 0 {
			e.Payload = payloadJSON
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) count(ctx context.Context, preds []*entsql.Predicate) (int, error) {
	q, args := builder.Select(entsql.Count("*")).
		From(builder.Table(table)).
		Where(entsql.And(preds...)).
		Query()

	var rows entsql.Rows
	if err := s.conn.Query(ctx, q, args, &rows); err != nil {
		return 0, fmt.Errorf("counting activity entries: %w", err)
	}
	defer rows.Close()

	var n sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("counting activity entries: %w", err)
		}
	}
	return int(n.Int64), rows.Err()
}

func appendSetFilters(preds []*entsql.Predicate, categories, polarities []string) []*entsql.Predicate {
	if len(categories) > 0 {
		preds = append(preds, entsql.In("category", toAny(categories)...))
	}
	if len(polarities) > 0 {
		preds = append(preds, entsql.In("polarity", toAny(polarities)...))
	}
	return preds
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
