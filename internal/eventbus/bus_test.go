package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/types"
)

func TestBus_DispatchesToAllSubscribers(t *testing.T) {
	bus := New(8)
	var mu sync.Mutex
	var got []string
	record := func(name string) Handler {
		return HandlerFunc(func(_ context.Context, evt event.DomainEvent) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+evt.EventType)
			return nil
		})
	}
	bus.Subscribe("a", record("a"))
	bus.Subscribe("b", record("b"))
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.DomainEvent{ID: "e1", EventType: event.TypeRentAccrued})
	bus.Stop()

	assert.Equal(t, []string{"a:rent_accrued", "b:rent_accrued"}, got)
}

func TestBus_StopIsIdempotentAndDropsLatePublishes(t *testing.T) {
	bus := New(1)
	calls := 0
	bus.Subscribe("count", HandlerFunc(func(context.Context, event.DomainEvent) error {
		calls++
		return nil
	}))
	bus.Start(context.Background())
	bus.Stop()
	bus.Stop()

	bus.Publish(context.Background(), event.DomainEvent{ID: "late"})
	assert.Equal(t, 0, calls)
	assert.Equal(t, int64(1), bus.Stats().Dropped)
}

func TestBus_SubscribeToFiltersByType(t *testing.T) {
	bus := New(8)
	var got []string
	bus.SubscribeTo("payments", HandlerFunc(func(_ context.Context, evt event.DomainEvent) error {
		got = append(got, evt.ID)
		return nil
	}), event.TypePaymentFailed)
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.DomainEvent{ID: "e1", EventType: event.TypeRentAccrued})
	bus.Publish(context.Background(), event.DomainEvent{ID: "e2", EventType: event.TypePaymentFailed})
	bus.Stop()

	assert.Equal(t, []string{"e2"}, got)
}

func TestBus_HandlerFailuresAreCounted(t *testing.T) {
	bus := New(8)
	delivered := 0
	bus.Subscribe("panics", HandlerFunc(func(context.Context, event.DomainEvent) error {
		panic("boom")
	}))
	bus.Subscribe("errors", HandlerFunc(func(context.Context, event.DomainEvent) error {
		return errors.New("db locked")
	}))
	bus.Subscribe("ok", HandlerFunc(func(context.Context, event.DomainEvent) error {
		delivered++
		return nil
	}))
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.DomainEvent{ID: "e1", EventType: event.TypePaymentRecorded})
	bus.Stop()

	assert.Equal(t, 1, delivered)
	assert.Equal(t, Stats{Published: 1, Failed: 2}, bus.Stats())
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := New(1)
	bus.Publish(context.Background(), event.DomainEvent{ID: "e1"})
	bus.Publish(context.Background(), event.DomainEvent{ID: "e2"})
	assert.Equal(t, Stats{Published: 1, Dropped: 1}, bus.Stats())
}

func TestLogConsumer_Line(t *testing.T) {
	var line string
	c := &LogConsumer{logf: func(format string, args ...any) { line = fmt.Sprintf(format, args...) }}
	evt := event.NewPaymentFailed(event.PaymentPayload{
		PaymentID: "p1", TenantID: "t1", HouseID: "h1", LandlordID: "l1",
		Amount: types.NewMoney(900, "KES"),
	})
	require.NoError(t, c.HandleEvent(context.Background(), evt))
	assert.Contains(t, line, "payment_failed -")
	assert.Contains(t, line, "[payment=p1* tenant=t1 house=h1 landlord=l1]")
}

type memNotes struct {
	notes []types.Notification
}

func (m *memNotes) SaveNotification(_ context.Context, n types.Notification) error {
	m.notes = append(m.notes, n)
	return nil
}

func TestNotificationConsumer_PaymentCompleted(t *testing.T) {
	w := &memNotes{}
	c := NewNotificationConsumer(w)
	c.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	evt := event.NewPaymentCompleted(event.PaymentPayload{
		PaymentID: "p1", TenantID: "t1", HouseID: "h1", LandlordID: "l1",
		Amount: types.NewMoney(25000, "KES"), Reference: "QX12",
	})
	require.NoError(t, c.HandleEvent(context.Background(), evt))

	require.Len(t, w.notes, 2)
	assert.Equal(t, "t1", w.notes[0].UserID)
	assert.Contains(t, w.notes[0].Message, "KES 250.00")
	assert.Equal(t, "l1", w.notes[1].UserID)
	assert.Equal(t, "payment", w.notes[1].Kind)
	assert.False(t, w.notes[0].Read)
}

func TestNotificationConsumer_SkipsMissingRecipients(t *testing.T) {
	w := &memNotes{}
	c := NewNotificationConsumer(w)

	evt := event.NewWaterBillOverdue(event.WaterBillPayload{
		WaterBillID: "w1", TenantID: "t1", Month: "2026-02", Amount: types.NewMoney(7500, "KES"),
	})
	require.NoError(t, c.HandleEvent(context.Background(), evt))
	require.Len(t, w.notes, 1)
	assert.Equal(t, "Water bill overdue", w.notes[0].Title)
}

func TestNotificationConsumer_IgnoresOtherEvents(t *testing.T) {
	w := &memNotes{}
	c := NewNotificationConsumer(w)
	evt := event.NewRentAccrued(event.RentAccruedPayload{TenantID: "t1", Month: "2026-03"})
	require.NoError(t, c.HandleEvent(context.Background(), evt))
	assert.Empty(t, w.notes)
}

func TestNotificationConsumer_BadPayload(t *testing.T) {
	c := NewNotificationConsumer(&memNotes{})
	evt := event.DomainEvent{EventType: event.TypePaymentFailed, Payload: json.RawMessage(`{`)}
	assert.Error(t, c.HandleEvent(context.Background(), evt))
}

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	evt := event.DomainEvent{ID: "e1", EventType: event.TypePaymentCompleted}
	require.NoError(t, h.HandleEvent(context.Background(), evt))
	// Buffer is full; the second event is dropped instead of blocking.
	require.NoError(t, h.HandleEvent(context.Background(), event.DomainEvent{ID: "e2"}))

	got := <-ch
	assert.Equal(t, "e1", got.ID)

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}
