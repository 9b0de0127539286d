package ledger

import "github.com/matthewbaird/rentals/internal/types"

// PaymentTransitions is the payment verification state machine. completed is
// terminal; failed payments return to pending only through a manual retry.
var PaymentTransitions = map[types.PaymentStatus][]types.PaymentStatus{
	types.PaymentPending:   {types.PaymentCompleted, types.PaymentFailed},
	types.PaymentFailed:    {types.PaymentPending},
	types.PaymentCompleted: {},
}

// ValidateTransition checks whether moving from current to target is allowed.
func ValidateTransition(current, target types.PaymentStatus) error {
	allowed, ok := PaymentTransitions[current]
	if !ok {
		return &InvalidStateTransitionError{From: current, To: target}
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return &InvalidStateTransitionError{From: current, To: target}
}
