// Package config loads service configuration. An embedded CUE schema
// supplies defaults and constraints; an optional CUE file and then
// environment variables (including a .env file) override them.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"

	"github.com/matthewbaird/rentals/internal/dashboard"
	"github.com/matthewbaird/rentals/internal/rental"
)

//go:embed schema.cue
var schemaSrc string

// Config holds all configuration for the service.
type Config struct {
	Port                int       `json:"port"`
	DatabaseURL         string    `json:"database_url"`
	Currency            string    `json:"currency"`
	WaterUnitPriceCents int64     `json:"water_unit_price_cents"`
	WaterBillDueDays    int       `json:"water_bill_due_days"`
	MovedOutPolicy      string    `json:"moved_out_policy"`
	RecentLimit         int       `json:"recent_limit"`
	RevenueMonths       int       `json:"revenue_months"`
	ReminderLeadDays    int       `json:"reminder_lead_days"`
	EventBuffer         int       `json:"event_buffer"`
	OverdueSweepMinutes int       `json:"overdue_sweep_minutes"` // 0 disables the sweep
	JWTSecret           string    `json:"jwt_secret"`
	RateLimit           RateLimit `json:"rate_limit"`
}

// RateLimit bounds write requests per client.
type RateLimit struct {
	RPS   float64 `json:"rps"`
	Burst int     `json:"burst"`
}

// envVar maps an environment variable onto a schema path.
type envVar struct {
	name string
	path string
	kind cue.Kind
}

var envVars = []envVar{
	{"PORT", "port", cue.IntKind},
	{"DATABASE_URL", "database_url", cue.StringKind},
	{"CURRENCY", "currency", cue.StringKind},
	{"WATER_UNIT_PRICE_CENTS", "water_unit_price_cents", cue.IntKind},
	{"WATER_BILL_DUE_DAYS", "water_bill_due_days", cue.IntKind},
	{"MOVED_OUT_POLICY", "moved_out_policy", cue.StringKind},
	{"RECENT_LIMIT", "recent_limit", cue.IntKind},
	{"REVENUE_MONTHS", "revenue_months", cue.IntKind},
	{"REMINDER_LEAD_DAYS", "reminder_lead_days", cue.IntKind},
	{"EVENT_BUFFER", "event_buffer", cue.IntKind},
	{"OVERDUE_SWEEP_MINUTES", "overdue_sweep_minutes", cue.IntKind},
	{"JWT_SECRET", "jwt_secret", cue.StringKind},
	{"RATE_LIMIT_RPS", "rate_limit.rps", cue.FloatKind},
	{"RATE_LIMIT_BURST", "rate_limit.burst", cue.IntKind},
}

// Load builds the configuration. path names an optional CUE file; pass ""
// to use only defaults and the environment. A .env file in the working
// directory is loaded first if present.
func Load(path string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if path != "" {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		user := ctx.CompileBytes(src, cue.Filename(path))
		if err := user.Err(); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		v = v.Unify(user)
	}

	for _, ev := range envVars {
		raw, ok := os.LookupEnv(ev.name)
		if !ok || raw == "" {
			continue
		}
		val, err := parseEnv(ev, raw)
		if err != nil {
			return nil, err
		}
		v = v.FillPath(cue.ParsePath(ev.path), val)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func parseEnv(ev envVar, raw string) (any, error) {
	switch ev.kind {
	case cue.IntKind:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", ev.name, raw)
		}
		return n, nil
	case cue.FloatKind:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", ev.name, raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Rental converts the configuration into service settings.
func (c *Config) Rental() rental.Config {
	return rental.Config{
		Currency:            c.Currency,
		WaterUnitPriceCents: c.WaterUnitPriceCents,
		WaterBillDueDays:    c.WaterBillDueDays,
		ReminderLeadDays:    c.ReminderLeadDays,
		Dashboard: dashboard.Options{
			MovedOut:      dashboard.MovedOutPolicy(c.MovedOutPolicy),
			RecentLimit:   c.RecentLimit,
			RevenueMonths: c.RevenueMonths,
		},
	}
}
