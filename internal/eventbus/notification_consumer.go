package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/types"
)

// NotificationWriter persists notifications. store.Repository satisfies it.
type NotificationWriter interface {
	SaveNotification(ctx context.Context, n types.Notification) error
}

// NotificationConsumer turns payment and billing events into dashboard
// notifications for the tenant and, where it matters to them, the landlord.
type NotificationConsumer struct {
	w   NotificationWriter
	now func() time.Time
}

// NotificationEventTypes are the events that can produce a notification.
var NotificationEventTypes = []string{
	event.TypePaymentCompleted,
	event.TypePaymentFailed,
	event.TypePaymentReversed,
	event.TypeWaterBillIssued,
	event.TypeWaterBillOverdue,
}

func NewNotificationConsumer(w NotificationWriter) *NotificationConsumer {
	return &NotificationConsumer{w: w, now: time.Now}
}

func (c *NotificationConsumer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	notes, err := c.notificationsFor(evt)
	if err != nil {
		return err
	}
	for _, n := range notes {
		if err := c.w.SaveNotification(ctx, n); err != nil {
			return fmt.Errorf("saving notification for %s: %w", n.UserID, err)
		}
	}
	return nil
}

type draft struct {
	userID, title, message string
}

func (c *NotificationConsumer) notificationsFor(evt event.DomainEvent) ([]types.Notification, error) {
	var drafts []draft

	switch evt.EventType {
	case event.TypePaymentCompleted, event.TypePaymentFailed, event.TypePaymentReversed:
		var p event.PaymentPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", evt.EventType, err)
		}
		switch evt.EventType {
		case event.TypePaymentCompleted:
			drafts = append(drafts,
				draft{p.TenantID, "Payment received", fmt.Sprintf("Your payment of %s (%s) was received.", p.Amount, p.Reference)},
				draft{p.LandlordID, "Payment received", evt.Summary})
		case event.TypePaymentFailed:
			drafts = append(drafts,
				draft{p.TenantID, "Payment failed", fmt.Sprintf("Your payment of %s (%s) could not be verified.", p.Amount, p.Reference)})
		case event.TypePaymentReversed:
			drafts = append(drafts,
				draft{p.TenantID, "Payment reversed", fmt.Sprintf("Your payment of %s (%s) was reversed.", p.Amount, p.Reference)},
				draft{p.LandlordID, "Payment reversed", evt.Summary})
		}

	case event.TypeWaterBillIssued, event.TypeWaterBillOverdue:
		var p event.WaterBillPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", evt.EventType, err)
		}
		if evt.EventType == event.TypeWaterBillIssued {
			drafts = append(drafts, draft{p.TenantID, "Water bill",
				fmt.Sprintf("Your water bill for %s is %s, due %s.", p.Month, p.Amount, p.DueDate.Format("2 Jan 2006"))})
		} else {
			drafts = append(drafts,
				draft{p.TenantID, "Water bill overdue", fmt.Sprintf("Your water bill for %s of %s is overdue.", p.Month, p.Amount)},
				draft{p.LandlordID, "Water bill overdue", evt.Summary})
		}
	}

	notes := make([]types.Notification, 0, len(drafts))
	for _, d := range drafts {
		if d.userID == "" {
			continue
		}
		notes = append(notes, types.Notification{
			ID:        uuid.New().String(),
			UserID:    d.userID,
			Title:     d.title,
			Message:   d.message,
			Kind:      evt.Category,
			CreatedAt: c.now(),
		})
	}
	return notes, nil
}
