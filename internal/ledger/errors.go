package ledger

import (
	"errors"
	"fmt"

	"github.com/matthewbaird/rentals/internal/types"
)

var (
	// ErrNotCompleted is returned when a payment that is not completed is
	// offered for application. Only completed payments move balances.
	ErrNotCompleted = errors.New("payment is not completed")

	// ErrTenantMismatch is returned when a payment belongs to another tenant.
	ErrTenantMismatch = errors.New("payment belongs to a different tenant")

	// ErrInvalidAmount is returned for non-positive payment amounts and
	// negative accruals.
	ErrInvalidAmount = errors.New("invalid amount")
)

// SplitMismatchError reports a combined payment whose rent and water
// components are missing, negative, or do not add up to the payment amount.
type SplitMismatchError struct {
	PaymentID   string
	AmountCents int64
	Split       *types.PaymentSplit
}

func (e *SplitMismatchError) Error() string {
	if e.Split == nil {
		return fmt.Sprintf("combined payment %s has no rent/water split", e.PaymentID)
	}
	return fmt.Sprintf("combined payment %s split rent=%d + water=%d does not equal amount %d",
		e.PaymentID, e.Split.RentCents, e.Split.WaterCents, e.AmountCents)
}

// DuplicateApplicationError reports a second apply (or reverse) of the same
// payment id.
type DuplicateApplicationError struct {
	PaymentID string
	Op        string // "apply" or "reverse"
}

func (e *DuplicateApplicationError) Error() string {
	return fmt.Sprintf("payment %s has already been %s", e.PaymentID, pastTense(e.Op))
}

// InvalidStateTransitionError reports a payment status change that the state
// machine does not allow.
type InvalidStateTransitionError struct {
	PaymentID string
	From      types.PaymentStatus
	To        types.PaymentStatus
}

func (e *InvalidStateTransitionError) Error() string {
	if e.PaymentID == "" {
		return fmt.Sprintf("transition from %q to %q is not allowed", e.From, e.To)
	}
	return fmt.Sprintf("payment %s: transition from %q to %q is not allowed", e.PaymentID, e.From, e.To)
}

func pastTense(op string) string {
	switch op {
	case "reverse":
		return "reversed"
	case "apply":
		return "applied"
	}
	return op
}
