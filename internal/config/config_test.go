package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseExtensions(t *testing.T) {
	cases := []struct {
		in   string
		want map[string]bool
	}{
		{"pdf,png,docx", map[string]bool{"pdf": true, "png": true, "docx": true}},
		{" .PDF , png ", map[string]bool{"pdf": true, "png": true}},
		{"", map[string]bool{}},
		{",,", map[string]bool{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseExtensions(tc.in), "input %q", tc.in)
	}
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("RATE_LIMIT_PREFIX", "")

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, "ratelimit", cfg.Prefix)
}

func TestRateLimitConfigOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.Limit)
	assert.Equal(t, 30*time.Second, cfg.Window)
}
