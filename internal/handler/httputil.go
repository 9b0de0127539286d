package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/matthewbaird/rentals/internal/billing"
	"github.com/matthewbaird/rentals/internal/dashboard"
	"github.com/matthewbaird/rentals/internal/ledger"
	"github.com/matthewbaird/rentals/internal/rental"
	"github.com/matthewbaird/rentals/internal/session"
	"github.com/matthewbaird/rentals/internal/store"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// serviceErrorToHTTP maps rental, ledger and billing errors to HTTP responses.
func serviceErrorToHTTP(w http.ResponseWriter, err error) {
	var (
		invalidReading *billing.InvalidReadingError
		invalidAmount  *billing.InvalidAmountError
		splitMismatch  *ledger.SplitMismatchError
		duplicate      *ledger.DuplicateApplicationError
		transition     *ledger.InvalidStateTransitionError
		validation     *rental.ValidationError
	)
	switch {
	case errors.As(err, &invalidReading):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_READING", err.Error())
	case errors.As(err, &invalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.As(err, &splitMismatch):
		writeError(w, http.StatusUnprocessableEntity, "SPLIT_MISMATCH", err.Error())
	case errors.As(err, &duplicate):
		writeError(w, http.StatusConflict, "DUPLICATE_APPLICATION", err.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, dashboard.ErrNoTenancy):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ledger.ErrNotCompleted), errors.Is(err, rental.ErrNoOccupant):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrTenantMismatch):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, rental.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, session.ErrNoPrincipal):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
