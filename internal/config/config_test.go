package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REWARDS_DATA_DIR", dir)
	t.Setenv("REWARDS_ENV", "")
	t.Setenv("REWARDS_PORT", "")
	t.Setenv("REWARDS_SESSION_SECRET", "")

	cfg := Load()

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, DevSessionSecret, cfg.SessionSecret)
	assert.Equal(t, 86400, cfg.SessionMaxAge)
	assert.False(t, cfg.SecureCookie)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REWARDS_DATA_DIR", t.TempDir())
	t.Setenv("REWARDS_PORT", "8081")
	t.Setenv("REWARDS_ENV", "Production")
	t.Setenv("REWARDS_SECURE_COOKIE", "true")
	t.Setenv("REWARDS_SESSION_MAX_AGE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8081, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.SecureCookie)
	assert.Equal(t, 86400, cfg.SessionMaxAge)
}

func TestValidateProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction, SessionSecret: DevSessionSecret}
	require.ErrorIs(t, cfg.Validate(), ErrDefaultSecret)

	cfg.SessionSecret = "short"
	require.ErrorIs(t, cfg.Validate(), ErrShortSecret)

	cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	require.NoError(t, cfg.Validate())
}

func TestManagerPassword(t *testing.T) {
	assert.Equal(t, "REWARDS_MANAGER_PASSWORD_JKENT", ManagerPasswordKey("jkent"))
	assert.Equal(t, "REWARDS_MANAGER_PASSWORD_A_B", ManagerPasswordKey("a.b"))

	t.Setenv("REWARDS_MANAGER_PASSWORD_JKENT", "s3cret")
	pw, ok := ManagerPassword("jkent")
	assert.True(t, ok)
	assert.Equal(t, "s3cret", pw)

	_, ok = ManagerPassword("nobody")
	assert.False(t, ok)
}
