package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentals/internal/types"
)

// Event types.
const (
	TypePaymentRecorded  = "payment_recorded"
	TypePaymentCompleted = "payment_completed"
	TypePaymentFailed    = "payment_failed"
	TypePaymentRetried   = "payment_retried"
	TypePaymentReversed  = "payment_reversed"
	TypeWaterBillIssued  = "water_bill_issued"
	TypeWaterBillOverdue = "water_bill_overdue"
	TypeRentAccrued      = "rent_accrued"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID               string            `json:"id"`
	EventType        string            `json:"event_type"`
	OccurredAt       time.Time         `json:"occurred_at"`
	AffectedEntities []types.SourceRef `json:"affected_entities"`
	Summary          string            `json:"summary"`
	Category         string            `json:"category"` // "payment", "billing"
	Polarity         string            `json:"polarity"` // "positive", "negative", "neutral"
	Payload          json.RawMessage   `json:"payload"`
}

// Refers reports whether the event references the entity.
func (e DomainEvent) Refers(entityType, entityID string) bool {
	for _, ref := range e.AffectedEntities {
		if ref.EntityType == entityType && ref.EntityID == entityID {
			return true
		}
	}
	return false
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// refs builds the standard reference set for a tenant-level event. Empty ids
// are skipped.
func refs(subjectType, subjectID, tenantID, houseID, landlordID string) []types.SourceRef {
	out := []types.SourceRef{{EntityType: subjectType, EntityID: subjectID, Role: "subject"}}
	if tenantID != "" && subjectType != "tenant" {
		out = append(out, types.SourceRef{EntityType: "tenant", EntityID: tenantID, Role: "related"})
	}
	if houseID != "" && subjectType != "house" {
		out = append(out, types.SourceRef{EntityType: "house", EntityID: houseID, Role: "context"})
	}
	if landlordID != "" {
		out = append(out, types.SourceRef{EntityType: "landlord", EntityID: landlordID, Role: "context"})
	}
	return out
}

// ── Payment events ───────────────────────────────────────────────────────────

// PaymentPayload carries event-specific data for every payment event.
type PaymentPayload struct {
	PaymentID       string              `json:"payment_id"`
	TenantID        string              `json:"tenant_id"`
	HouseID         string              `json:"house_id"`
	LandlordID      string              `json:"landlord_id,omitempty"`
	Amount          types.Money         `json:"amount"`
	Type            types.PaymentType   `json:"type"`
	Status          types.PaymentStatus `json:"status"`
	Method          string              `json:"method,omitempty"`
	Reference       string              `json:"reference,omitempty"`
	RentApplied     int64               `json:"rent_applied_cents,omitempty"`
	WaterApplied    int64               `json:"water_applied_cents,omitempty"`
	NewRentBalance  int64               `json:"new_rent_balance_cents"`
	NewWaterBalance int64               `json:"new_water_balance_cents"`
}

func paymentEvent(eventType, summary, polarity string, p PaymentPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        eventType,
		OccurredAt:       time.Now(),
		AffectedEntities: refs("payment", p.PaymentID, p.TenantID, p.HouseID, p.LandlordID),
		Summary:          summary,
		Category:         "payment",
		Polarity:         polarity,
		Payload:          mustJSON(p),
	}
}

func NewPaymentRecorded(p PaymentPayload) DomainEvent {
	return paymentEvent(TypePaymentRecorded,
		fmt.Sprintf("Payment %s of %s recorded as %s", p.Reference, p.Amount, p.Status),
		"neutral", p)
}

func NewPaymentCompleted(p PaymentPayload) DomainEvent {
	return paymentEvent(TypePaymentCompleted,
		fmt.Sprintf("Payment %s of %s received", p.Reference, p.Amount),
		"positive", p)
}

func NewPaymentFailed(p PaymentPayload) DomainEvent {
	return paymentEvent(TypePaymentFailed,
		fmt.Sprintf("Payment %s of %s failed verification", p.Reference, p.Amount),
		"negative", p)
}

func NewPaymentRetried(p PaymentPayload) DomainEvent {
	return paymentEvent(TypePaymentRetried,
		fmt.Sprintf("Payment %s of %s resubmitted for verification", p.Reference, p.Amount),
		"neutral", p)
}

func NewPaymentReversed(p PaymentPayload) DomainEvent {
	return paymentEvent(TypePaymentReversed,
		fmt.Sprintf("Payment %s of %s reversed", p.Reference, p.Amount),
		"negative", p)
}

// ── Billing events ───────────────────────────────────────────────────────────

// WaterBillPayload carries event-specific data for water bill events.
type WaterBillPayload struct {
	WaterBillID     string      `json:"water_bill_id"`
	HouseID         string      `json:"house_id"`
	TenantID        string      `json:"tenant_id"`
	LandlordID      string      `json:"landlord_id,omitempty"`
	Month           string      `json:"month"`
	PreviousReading int64       `json:"previous_reading"`
	CurrentReading  int64       `json:"current_reading"`
	UnitsUsed       int64       `json:"units_used"`
	Amount          types.Money `json:"amount"`
	DueDate         time.Time   `json:"due_date"`
}

func NewWaterBillIssued(p WaterBillPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        TypeWaterBillIssued,
		OccurredAt:       time.Now(),
		AffectedEntities: refs("water_bill", p.WaterBillID, p.TenantID, p.HouseID, p.LandlordID),
		Summary:          fmt.Sprintf("Water bill for %s issued: %d units, %s", p.Month, p.UnitsUsed, p.Amount),
		Category:         "billing",
		Polarity:         "neutral",
		Payload:          mustJSON(p),
	}
}

func NewWaterBillOverdue(p WaterBillPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        TypeWaterBillOverdue,
		OccurredAt:       time.Now(),
		AffectedEntities: refs("water_bill", p.WaterBillID, p.TenantID, p.HouseID, p.LandlordID),
		Summary:          fmt.Sprintf("Water bill for %s of %s is overdue", p.Month, p.Amount),
		Category:         "billing",
		Polarity:         "negative",
		Payload:          mustJSON(p),
	}
}

// RentAccruedPayload carries event-specific data for RentAccrued.
type RentAccruedPayload struct {
	TenantID       string      `json:"tenant_id"`
	HouseID        string      `json:"house_id"`
	LandlordID     string      `json:"landlord_id,omitempty"`
	Month          string      `json:"month"`
	Amount         types.Money `json:"amount"`
	NewRentBalance int64       `json:"new_rent_balance_cents"`
}

func NewRentAccrued(p RentAccruedPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        TypeRentAccrued,
		OccurredAt:       time.Now(),
		AffectedEntities: refs("tenant", p.TenantID, p.TenantID, p.HouseID, p.LandlordID),
		Summary:          fmt.Sprintf("Rent of %s for %s added to balance", p.Amount, p.Month),
		Category:         "billing",
		Polarity:         "neutral",
		Payload:          mustJSON(p),
	}
}
