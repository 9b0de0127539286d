package eventbus

import (
	"context"
	"log"
	"strings"

	"github.com/matthewbaird/rentals/internal/event"
)

// LogConsumer writes one line per event to the process log, naming the
// subject first and then the tenant, house and landlord it touched.
type LogConsumer struct {
	logf func(format string, args ...any)
}

func NewLogConsumer() *LogConsumer { return &LogConsumer{logf: log.Printf} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.logf("event: %s %s %q [%s]", evt.EventType, polarityMark(evt.Polarity), evt.Summary, describeRefs(evt))
	return nil
}

func describeRefs(evt event.DomainEvent) string {
	var b strings.Builder
	for i, ref := range evt.AffectedEntities {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ref.EntityType)
		b.WriteByte('=')
		b.WriteString(ref.EntityID)
		if ref.Role == "subject" {
			b.WriteByte('*')
		}
	}
	return b.String()
}

func polarityMark(p string) string {
	switch p {
	case "positive":
		return "+"
	case "negative":
		return "-"
	}
	return "~"
}
