// Package filter narrows lists of houses, tenants and payments for the list
// views. Filtering never sorts: matches come back in input order.
package filter

import "strings"

// All is the status value that matches every item.
const All = "all"

// Spec describes a text search ANDed with a status filter.
type Spec[T any] struct {
	// Query is matched case-insensitively as a substring of any of Fields.
	// An empty query matches everything.
	Query  string
	Fields []func(T) string

	// Status is compared exactly against StatusOf. Empty or All matches
	// everything.
	Status   string
	StatusOf func(T) string
}

// Apply returns the items matching spec, preserving their relative order.
// The input slice is never modified.
func Apply[T any](items []T, spec Spec[T]) []T {
	q := strings.ToLower(strings.TrimSpace(spec.Query))
	checkStatus := spec.Status != "" && spec.Status != All && spec.StatusOf != nil

	matched := make([]T, 0, len(items))
	for _, item := range items {
		if checkStatus && spec.StatusOf(item) != spec.Status {
			continue
		}
		if q != "" && !matchesAny(item, q, spec.Fields) {
			continue
		}
		matched = append(matched, item)
	}
	return matched
}

func matchesAny[T any](item T, q string, fields []func(T) string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f(item)), q) {
			return true
		}
	}
	return false
}
