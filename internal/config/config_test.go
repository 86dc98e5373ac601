package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "fishwell", cfg.Database.Database)

	assert.Equal(t, "9:00:00", cfg.Analysis.LightsOn)
	assert.Equal(t, "23:00:00", cfg.Analysis.LightsOff)
	assert.Equal(t, 4, cfg.Analysis.DayInTheLife)
	assert.Equal(t, 0.1, cfg.Analysis.WakeThreshold)
	assert.Equal(t, 1, cfg.Analysis.ResampleWin)
	assert.Equal(t, map[string]string{"middur": "activity"}, cfg.Analysis.Rename)
	assert.True(t, cfg.Analysis.BoutsRest)

	assert.Equal(t, "#", cfg.IO.Comment)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("LIGHTS_ON", "8:30:00")
	t.Setenv("DAY_IN_THE_LIFE", "5")
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 15432, cfg.Database.Port)
	assert.Equal(t, "8:30:00", cfg.Analysis.LightsOn)
	assert.Equal(t, 5, cfg.Analysis.DayInTheLife)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not a number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
}
