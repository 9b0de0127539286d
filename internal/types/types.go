// Package types holds the records shared by the billing, ledger and dashboard
// packages. Amounts are integer cents throughout; nothing in this package
// performs floating-point currency arithmetic.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a request omits a currency.
const DefaultCurrency = "KES"

// Money represents a monetary amount using integer cents to eliminate
// floating-point errors in financial operations.
type Money struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"` // ISO 4217, e.g. "KES"
}

// NewMoney builds Money in the given currency, falling back to DefaultCurrency.
func NewMoney(cents int64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{AmountCents: cents, Currency: currency}
}

// ParseMoney converts a major-unit decimal string such as "250.50" into cents.
// Inputs carrying a fraction of a cent ("1.005") are rejected rather than rounded.
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return Money{}, fmt.Errorf("amount %q has a fractional cent component", s)
	}
	if !cents.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("amount %q is out of range", s)
	}
	return NewMoney(cents.IntPart(), currency), nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.AmountCents, -2)
}

func (m Money) String() string {
	return m.Currency + " " + m.Decimal().StringFixed(2)
}

// Role is the role string supplied by the identity provider.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLandlord  Role = "landlord"
	RoleCaretaker Role = "caretaker"
	RoleTenant    Role = "tenant"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLandlord, RoleCaretaker, RoleTenant:
		return true
	}
	return false
}

// User is an authenticated account. Tenants additionally have a Tenant record
// sharing the same ID.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

// DateRange represents a time period with an optional end.
type DateRange struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// Contains reports whether t falls inside the range (start inclusive, end exclusive).
func (d DateRange) Contains(t time.Time) bool {
	if t.Before(d.Start) {
		return false
	}
	return d.End == nil || t.Before(*d.End)
}

// ─── Activity feed ─────────────────────────────────────────────────────────────
// ActivityEntry is a secondary index over domain events, keyed by a referenced
// entity. One event produces one entry per affected entity.

// SourceRef identifies an entity referenced by a domain event.
type SourceRef struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "target", "related", "context"
}

// ActivityEntry is one row of an entity's activity history.
type ActivityEntry struct {
	EventID           string          `json:"event_id"`
	EventType         string          `json:"event_type"`
	OccurredAt        time.Time       `json:"occurred_at"`
	IndexedEntityType string          `json:"indexed_entity_type"`
	IndexedEntityID   string          `json:"indexed_entity_id"`
	EntityRole        string          `json:"entity_role"`
	SourceRefs        []SourceRef     `json:"source_refs"`
	Summary           string          `json:"summary"`
	Category          string          `json:"category"` // "payment", "billing", "property"
	Polarity          string          `json:"polarity"` // "positive", "negative", "neutral"
	Payload           json.RawMessage `json:"payload"`
}
