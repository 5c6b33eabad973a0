package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Issuance.RetryLimit)
	assert.Equal(t, 16384, cfg.StatusList.BitstringSize)
	assert.Equal(t, 365*24*time.Hour, cfg.StatusList.Validity)
	assert.Equal(t, "local", cfg.StatusList.Publisher)
	assert.Equal(t, "http://localhost:8080", cfg.StatusList.BaseURL)
	assert.Empty(t, cfg.Database.URL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ISSUANCE_RETRY_LIMIT", "7")
	t.Setenv("ISSUANCE_LEASE_DURATION", "90s")
	t.Setenv("ISSUANCE_BACKOFF_MULTIPLIER", "1.5")
	t.Setenv("STATUSLIST_PUBLISHER", "Redis")
	t.Setenv("STATUSLIST_BASE_URL", "https://status.example.com/")
	t.Setenv("STATUSLIST_BITSTRING_SIZE", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, 7, cfg.Issuance.RetryLimit)
	assert.Equal(t, 90*time.Second, cfg.Issuance.LeaseDuration)
	assert.Equal(t, 1.5, cfg.Issuance.BackoffMultiplier)
	assert.Equal(t, "redis", cfg.StatusList.Publisher)
	assert.Equal(t, "https://status.example.com", cfg.StatusList.BaseURL)
	assert.Equal(t, 16384, cfg.StatusList.BitstringSize, "invalid values fall back to defaults")
}
