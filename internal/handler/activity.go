// Activity handlers read the per-entity activity stream. They operate on the
// activity store directly rather than through the rental service.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/rentals/internal/activity"
	"github.com/matthewbaird/rentals/internal/signals"
	"github.com/matthewbaird/rentals/internal/types"
)

const (
	defaultSummaryDays = 90
	maxSummaryDays     = 365
)

// ActivityHandler implements the activity feed endpoints.
type ActivityHandler struct {
	store activity.Store
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// GetEntityActivity returns a chronological activity feed for any entity.
// Admins may read any stream; everyone else only the stream indexed under
// their own user id.
// GET /v1/activity/{entity_type}/{entity_id}
func (h *ActivityHandler) GetEntityActivity(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")
	if entityType == "" || entityID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "entity_type and entity_id are required")
		return
	}
	if p.Role != types.RoleAdmin && (entityID != p.UserID || entityType != string(p.Role)) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "activity for this entity is not visible to you")
		return
	}

	opts := activity.DefaultQueryOptions()
	q := r.URL.Query()
	if s := q.Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			opts.Since = &t
		}
	}
	if u := q.Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			opts.Until = &t
		}
	}
	if cats := q.Get("categories"); cats != "" {
		opts.Categories = strings.Split(cats, ",")
	}
	if pols := q.Get("polarities"); pols != "" {
		opts.Polarities = strings.Split(pols, ",")
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			opts.Limit = min(n, 500)
		}
	}
	opts.Cursor = q.Get("cursor")

	entries, nextCursor, totalCount, err := h.store.QueryByEntity(r.Context(), entityType, entityID, opts)
	if errors.Is(err, activity.ErrInvalidCursor) {
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}

	resp := struct {
		Activities []types.ActivityEntry `json:"activities"`
		NextCursor string                `json:"next_cursor,omitempty"`
		TotalCount int                   `json:"total_count"`
	}{
		Activities: entries,
		NextCursor: nextCursor,
		TotalCount: totalCount,
	}
	if resp.Activities == nil {
		resp.Activities = []types.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetEntitySummary condenses an entity's recent activity into a standing
// with any escalations. Staff may summarize any entity; tenants only
// themselves.
// GET /v1/activity/{entity_type}/{entity_id}/summary?days=N
func (h *ActivityHandler) GetEntitySummary(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")
	if p.Role == types.RoleTenant && (entityType != "tenant" || entityID != p.UserID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "activity for this entity is not visible to you")
		return
	}
	days, ok := queryInt(r, "days", defaultSummaryDays)
	if !ok || days <= 0 || days > maxSummaryDays {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "days must be between 1 and 365")
		return
	}

	until := time.Now()
	since := until.AddDate(0, 0, -days)
	opts := activity.QueryOptions{Since: &since, Until: &until, Limit: 500}
	entries, _, _, err := h.store.QueryByEntity(r.Context(), entityType, entityID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, signals.Summarize(entries, entityType, entityID, since, until))
}

// SearchActivity performs substring search across activity summaries.
// POST /v1/activity/search
func (h *ActivityHandler) SearchActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, types.RoleAdmin); !ok {
		return
	}
	var req struct {
		Query      string   `json:"query"`
		EntityType string   `json:"entity_type,omitempty"`
		Since      string   `json:"since,omitempty"`
		Categories []string `json:"categories,omitempty"`
		Polarities []string `json:"polarities,omitempty"`
		Limit      int      `json:"limit,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "query is required")
		return
	}

	opts := activity.DefaultSearchOptions()
	opts.EntityType = req.EntityType
	opts.Categories = req.Categories
	opts.Polarities = req.Polarities
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	if req.Since != "" {
		if t, err := time.Parse(time.RFC3339, req.Since); err == nil {
			opts.Since = &t
		}
	}

	entries, totalCount, err := h.store.Search(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}

	resp := struct {
		Results    []types.ActivityEntry `json:"results"`
		TotalCount int                   `json:"total_count"`
	}{
		Results:    entries,
		TotalCount: totalCount,
	}
	if resp.Results == nil {
		resp.Results = []types.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, resp)
}
