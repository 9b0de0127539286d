// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/rentals/internal/activity"
	"github.com/matthewbaird/rentals/internal/eventbus"
	"github.com/matthewbaird/rentals/internal/handler"
	"github.com/matthewbaird/rentals/internal/rental"
	"github.com/matthewbaird/rentals/internal/session"
)

// Config holds server configuration.
type Config struct {
	Addr      string
	Service   *rental.Service
	Activity  activity.Store
	Hub       *eventbus.Hub
	Verifier  *session.Verifier // nil trusts X-Actor/X-Role headers
	RateRPS   float64
	RateBurst int
}

// limiterSweep is how often idle rate-limit clients are dropped.
const limiterSweep = 5 * time.Minute

// Routes builds the router with every endpoint and middleware registered.
func Routes(cfg Config) http.Handler {
	return routes(cfg, handler.NewRateLimiter(cfg.RateRPS, cfg.RateBurst))
}

func routes(cfg Config, limiter *handler.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(handler.Recovery, handler.Logging)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	rh := handler.NewRentalHandler(cfg.Service)
	ah := handler.NewActivityHandler(cfg.Activity)
	fh := handler.NewFeedHandler(cfg.Hub, cfg.Service)

	r.Route("/v1", func(r chi.Router) {
		r.Use(handler.Authenticate(cfg.Verifier), limiter.Limit)

		// --- Dashboard ---
		r.Get("/dashboard", rh.GetDashboard)
		r.Get("/dashboard/revenue", rh.GetRevenue)
		r.Method(http.MethodGet, "/dashboard/feed", fh)

		// --- Search ---
		r.Get("/houses", rh.ListHouses)
		r.Get("/tenants", rh.ListTenants)
		r.Get("/payments", rh.ListPayments)

		// --- Payments ---
		r.Post("/payments", rh.CreatePayment)
		r.Post("/payments/{id}/verify", rh.VerifyPayment)
		r.Post("/payments/{id}/fail", rh.FailPayment)
		r.Post("/payments/{id}/retry", rh.RetryPayment)
		r.Post("/payments/{id}/reverse", rh.ReversePayment)

		// --- Billing ---
		r.Post("/houses/{id}/readings", rh.RecordReading)
		r.Post("/billing/accrue", rh.AccrueRent)
		r.Post("/billing/overdue", rh.MarkOverdue)
		r.Post("/bills/quote", rh.QuoteBill)
		r.Get("/reminders", rh.ListReminders)

		// --- Activity ---
		r.Post("/activity/search", ah.SearchActivity)
		r.Get("/activity/{entity_type}/{entity_id}", ah.GetEntityActivity)
		r.Get("/activity/{entity_type}/{entity_id}/summary", ah.GetEntitySummary)
	})

	return r
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	limiter := handler.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           routes(cfg, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(limiterSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup()
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				server.Shutdown(shutdownCtx)
				return
			}
		}
	}()

	log.Printf("starting server on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
