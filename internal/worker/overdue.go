// Package worker contains background workers that keep derived billing state
// current between requests.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/matthewbaird/rentals/internal/types"
)

// OverdueMarker flags pending water bills whose due date has passed.
type OverdueMarker interface {
	MarkOverdueBills(ctx context.Context) ([]types.WaterBill, error)
}

// OverdueWorker periodically sweeps water bills so dashboards and reminders
// see overdue status without anyone calling the billing endpoint.
type OverdueWorker struct {
	marker   OverdueMarker
	interval time.Duration
}

// NewOverdueWorker creates a worker that sweeps every interval.
func NewOverdueWorker(marker OverdueMarker, interval time.Duration) *OverdueWorker {
	return &OverdueWorker{marker: marker, interval: interval}
}

// RunOnce performs one sweep and returns how many bills became overdue.
func (w *OverdueWorker) RunOnce(ctx context.Context) (int, error) {
	bills, err := w.marker.MarkOverdueBills(ctx)
	if err != nil {
		return 0, err
	}
	if len(bills) > 0 {
		log.Printf("overdue_sweep: marked %d water bills overdue", len(bills))
	}
	return len(bills), nil
}

// Run sweeps once immediately and then every interval until ctx is
// cancelled. Sweep errors are logged and the next tick tries again.
func (w *OverdueWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("overdue_sweep: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
