package types

import "time"

// HouseStatus is the occupancy state of a house.
type HouseStatus string

const (
	HouseOccupied    HouseStatus = "occupied"
	HouseVacant      HouseStatus = "vacant"
	HouseMaintenance HouseStatus = "maintenance"
)

// House is a rentable unit. WaterMeterReading is the last recorded reading in
// cubic meters and only ever moves forward.
type House struct {
	ID                string      `json:"id"`
	Number            string      `json:"number"`
	Name              string      `json:"name"`
	LandlordID        string      `json:"landlord_id"`
	CaretakerID       string      `json:"caretaker_id,omitempty"`
	MonthlyRentCents  int64       `json:"monthly_rent_cents"`
	Status            HouseStatus `json:"status"`
	KPLCMeterNumber   string      `json:"kplc_meter_number"`
	WaterMeterReading int64       `json:"water_meter_reading"`
	RentDueDay        int         `json:"rent_due_day"` // day of month, 1-31
}

// TenantStatus tracks a tenancy's lifecycle.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantMovingOut TenantStatus = "moving_out"
	TenantMovedOut  TenantStatus = "moved_out"
)

// Tenant holds the running balances for one tenancy. Positive balances are
// owed to the landlord; negative balances are credit owed to the tenant.
type Tenant struct {
	ID                    string       `json:"id"`
	Name                  string       `json:"name"`
	Email                 string       `json:"email"`
	Phone                 string       `json:"phone,omitempty"`
	NationalID            string       `json:"national_id,omitempty"`
	HouseID               string       `json:"house_id"`
	RentBalanceCents      int64        `json:"rent_balance_cents"`
	WaterBillBalanceCents int64        `json:"water_bill_balance_cents"`
	Status                TenantStatus `json:"status"`
	MoveInDate            time.Time    `json:"move_in_date"`
	MoveOutDate           *time.Time   `json:"move_out_date,omitempty"`
}

// TotalBalanceCents is the sum of rent and water balances.
func (t Tenant) TotalBalanceCents() int64 {
	return t.RentBalanceCents + t.WaterBillBalanceCents
}

// PaymentType says which balance a payment settles.
type PaymentType string

const (
	PaymentRent     PaymentType = "rent"
	PaymentWater    PaymentType = "water"
	PaymentCombined PaymentType = "combined"
	PaymentOther    PaymentType = "other"
)

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentRent, PaymentWater, PaymentCombined, PaymentOther:
		return true
	}
	return false
}

// PaymentStatus is the verification state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentSplit apportions a combined payment between rent and water.
type PaymentSplit struct {
	RentCents  int64 `json:"rent_cents"`
	WaterCents int64 `json:"water_cents"`
}

// Payment is immutable once created apart from its Status.
type Payment struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	HouseID     string        `json:"house_id"`
	AmountCents int64         `json:"amount_cents"`
	Type        PaymentType   `json:"type"`
	Status      PaymentStatus `json:"status"`
	Method      string        `json:"method,omitempty"` // "mpesa", "bank", "cash"
	Reference   string        `json:"reference,omitempty"`
	Description string        `json:"description,omitempty"`
	Date        time.Time     `json:"date"`
	Split       *PaymentSplit `json:"split,omitempty"`
}

// WaterBillStatus is the settlement state of a water bill.
type WaterBillStatus string

const (
	WaterBillPending WaterBillStatus = "pending"
	WaterBillPaid    WaterBillStatus = "paid"
	WaterBillOverdue WaterBillStatus = "overdue"
)

// WaterBill is one billing cycle's metered water charge for a house.
type WaterBill struct {
	ID              string          `json:"id"`
	HouseID         string          `json:"house_id"`
	TenantID        string          `json:"tenant_id"`
	PreviousReading int64           `json:"previous_reading"`
	CurrentReading  int64           `json:"current_reading"`
	UnitsUsed       int64           `json:"units_used"`
	UnitPriceCents  int64           `json:"unit_price_cents"`
	AmountCents     int64           `json:"amount_cents"`
	Month           string          `json:"month"` // "2026-03"
	DueDate         time.Time       `json:"due_date"`
	Status          WaterBillStatus `json:"status"`
	PaymentID       string          `json:"payment_id,omitempty"`
}

// ReminderKind classifies a reminder.
type ReminderKind string

const (
	ReminderRentDue      ReminderKind = "rent_due"
	ReminderRentOverdue  ReminderKind = "rent_overdue"
	ReminderWaterOverdue ReminderKind = "water_overdue"
)

// Reminder is a derived prompt for a tenant with money owing.
type Reminder struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	HouseID     string       `json:"house_id"`
	Kind        ReminderKind `json:"kind"`
	AmountCents int64        `json:"amount_cents"`
	DueDate     time.Time    `json:"due_date"`
	Message     string       `json:"message"`
}

// Notification is a message shown on a user's dashboard.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"` // "payment", "billing", "maintenance"
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// MaintenanceStatus is the lifecycle of a maintenance request.
type MaintenanceStatus string

const (
	MaintenanceOpen       MaintenanceStatus = "open"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceResolved   MaintenanceStatus = "resolved"
)

// MaintenanceRequest is a tenant or caretaker reported issue with a house.
type MaintenanceRequest struct {
	ID          string            `json:"id"`
	HouseID     string            `json:"house_id"`
	TenantID    string            `json:"tenant_id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Priority    string            `json:"priority"` // "low", "medium", "high"
	Status      MaintenanceStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Tenancy is the period the tenant occupies the house.
func (t Tenant) Tenancy() DateRange {
	return DateRange{Start: t.MoveInDate, End: t.MoveOutDate}
}
