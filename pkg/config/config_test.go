package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Game.PlayCooldown)
	assert.Equal(t, 2, cfg.Game.DrawMaxAttempts)
	assert.Equal(t, uint64(0), cfg.Game.DrawSeed)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PLAY_COOLDOWN", "1h")
	t.Setenv("DRAW_MAX_ATTEMPTS", "3")
	t.Setenv("DRAW_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Game.PlayCooldown)
	assert.Equal(t, 3, cfg.Game.DrawMaxAttempts)
	assert.Equal(t, uint64(42), cfg.Game.DrawSeed)
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	require.EqualError(t, err, "missing jwt secret")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("PLAY_COOLDOWN", "one day")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLAY_COOLDOWN")
}

func TestLoad_RejectsZeroAttempts(t *testing.T) {
	setRequired(t)
	t.Setenv("DRAW_MAX_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
}
