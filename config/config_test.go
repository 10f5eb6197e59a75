package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "staffing.db", cfg.DatabasePath)
	assert.Equal(t, BaselineFlat, cfg.BaselineMode)
	assert.Equal(t, "@hourly", cfg.ScanSchedule)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.DevMode)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("BASELINE_MODE", "businessdays")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DatabasePath)
	assert.Equal(t, BaselineBusinessDays, cfg.BaselineMode)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, ":9000", cfg.Addr())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestCalendarSelection(t *testing.T) {
	flat := (&Config{BaselineMode: BaselineFlat}).Calendar()
	_, ok := flat.(engine.FlatCalendar)
	assert.True(t, ok)

	biz := (&Config{BaselineMode: BaselineBusinessDays, BaselineHours: 8}).Calendar()
	_, ok = biz.(engine.BusinessDayCalendar)
	assert.True(t, ok)
}
