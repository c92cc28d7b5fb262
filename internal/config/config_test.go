package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Collect.BatchAmplification)
	assert.Equal(t, 20, cfg.Collect.BatchFloor)
	assert.Equal(t, 15, cfg.Collect.RawAmplification)
	assert.Equal(t, 50, cfg.Collect.RawFloor)
	assert.Equal(t, 5, cfg.Collect.MaxCollectionAttempts)
	assert.Equal(t, 150, cfg.Collect.MaxScrollAttempts)
	assert.Equal(t, 7, cfg.Collect.MaxNoProgress)
	assert.Equal(t, 0.5, cfg.Collect.NavigationsPerSec)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "australia", cfg.Validate.Country)
	assert.False(t, cfg.Validate.VerifyMX)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROSPECT_COLLECT_MAX_NO_PROGRESS", "9")
	t.Setenv("PROSPECT_VALIDATE_COUNTRY", "new zealand")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Collect.MaxNoProgress)
	assert.Equal(t, "new zealand", cfg.Validate.Country)
}

func TestDurationHelpers(t *testing.T) {
	c := CollectConfig{ScrollSettleMs: 3000, FeedWaitSecs: 45, HeadingWaitSecs: 60}
	assert.Equal(t, 3*time.Second, c.ScrollSettle())
	assert.Equal(t, 45*time.Second, c.FeedWait())
	assert.Equal(t, time.Minute, c.HeadingWait())
}
