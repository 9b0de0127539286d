package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentals/internal/dashboard"
)

func writeCUE(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rentals.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "KES", cfg.Currency)
	assert.Equal(t, int64(150), cfg.WaterUnitPriceCents)
	assert.Equal(t, "exclude", cfg.MovedOutPolicy)
	assert.Equal(t, 6, cfg.RevenueMonths)
	assert.Equal(t, 3, cfg.ReminderLeadDays)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 60, cfg.OverdueSweepMinutes)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeCUE(t, `
port: 9090
currency: "UGX"
moved_out_policy: "include"
rate_limit: burst: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "UGX", cfg.Currency)
	assert.Equal(t, 3, cfg.RateLimit.Burst)

	rc := cfg.Rental()
	assert.Equal(t, dashboard.MovedOutInclude, rc.Dashboard.MovedOut)
	assert.Equal(t, "UGX", rc.Currency)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeCUE(t, `port: 9090`)
	t.Setenv("PORT", "7070")
	t.Setenv("WATER_UNIT_PRICE_CENTS", "200")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, int64(200), cfg.WaterUnitPriceCents)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		src  string
		env  map[string]string
	}{
		{name: "negative unit price", src: `water_unit_price_cents: -1`},
		{name: "unknown policy", src: `moved_out_policy: "sometimes"`},
		{name: "bad currency", src: `currency: "shillings"`},
		{name: "unknown field", src: `colour: "blue"`},
		{name: "revenue window too long", src: `revenue_months: 500`},
		{name: "syntax error", src: `port: {`},
		{name: "non-numeric env", env: map[string]string{"PORT": "eighty"}},
		{name: "env outside bounds", env: map[string]string{"PORT": "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.src != "" {
				path = writeCUE(t, tt.src)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}
