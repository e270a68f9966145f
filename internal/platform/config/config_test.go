package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Reminders.Lead)
	assert.Equal(t, "@every 15m", cfg.Reminders.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.Payments.WebhookTolerance)
	assert.Equal(t, "alterations.events", cfg.Messaging.Exchange)
}

func TestLoad_EnvOverridesAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("APP_NAME=from-dotenv\nREMINDER_LEAD=2h\n"), 0o600))

	t.Setenv("PORT", ":9090")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, "from-dotenv", cfg.AppName)
	assert.Equal(t, 2*time.Hour, cfg.Reminders.Lead)

	// godotenv.Load deja las variables en el proceso
	_ = os.Unsetenv("APP_NAME")
	_ = os.Unsetenv("REMINDER_LEAD")
}

func TestLoad_RequiresWebhookSecretWithStripeKey(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
