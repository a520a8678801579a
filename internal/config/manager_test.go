package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setManagerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "test-token")
	t.Setenv("AUTH_KEY", "test-auth-key")
	t.Setenv("PORT", "")
	t.Setenv("WORKER_POOL_SIZE", "")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "")
}

func TestNewManagerDefaults(t *testing.T) {
	setManagerEnv(t)

	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 3001, m.GetServerConfig().Port)
	assert.Equal(t, "0.0.0.0", m.GetServerConfig().Host)
	assert.Equal(t, "!bf", m.GetDiscordConfig().CommandPrefix)
	assert.Equal(t, 16, m.GetDiscordConfig().WorkerPool)
	assert.Equal(t, 10, m.GetProviderConfig().RequestTimeoutSecs)
	assert.Contains(t, m.GetProviderConfig().LibreTranslateURL, "libretranslate")
}

func TestNewManagerRequiresToken(t *testing.T) {
	setManagerEnv(t)
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := NewManager()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
}

func TestNewManagerRequiresAuthKey(t *testing.T) {
	setManagerEnv(t)
	t.Setenv("AUTH_KEY", "")

	_, err := NewManager()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_KEY")
}

func TestNewManagerRejectsBadPort(t *testing.T) {
	setManagerEnv(t)
	t.Setenv("PORT", "70000")

	_, err := NewManager()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestNewManagerRejectsZeroWorkers(t *testing.T) {
	setManagerEnv(t)
	t.Setenv("WORKER_POOL_SIZE", "0")

	_, err := NewManager()
	require.Error(t, err)
}

func TestManagerOverrides(t *testing.T) {
	setManagerEnv(t)
	t.Setenv("COMMAND_PREFIX", "!tr")
	t.Setenv("DEEPL_API_KEY", "dk")
	t.Setenv("REDIS_DSN", "redis://localhost:6379")

	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, "!tr", m.GetDiscordConfig().CommandPrefix)
	assert.Equal(t, "dk", m.GetProviderConfig().DeepLAPIKey)
	assert.Equal(t, "redis://localhost:6379", m.GetRedisDSN())
}
