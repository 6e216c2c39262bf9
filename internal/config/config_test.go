// AngelaMos | 2026
// config_test.go

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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Activation.CodeTTL())
	assert.Equal(t, 16, cfg.Activation.SaltBytes)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, 3*time.Second, cfg.Mail.Timeout())
	assert.Equal(t, MailProviderHTTP, cfg.Mail.Provider)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.False(t, cfg.Server.TrustProxy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CODE_TTL_SECONDS", "120")
	t.Setenv("CODE_SALT_BYTES", "32")
	t.Setenv("BCRYPT_ROUNDS", "10")
	t.Setenv("EMAIL_TIMEOUT_SECONDS", "1.5")
	t.Setenv("EMAIL_API_BASE_URL", "http://mailer:8081")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Activation.CodeTTL())
	assert.Equal(t, 32, cfg.Activation.SaltBytes)
	assert.Equal(t, 10, cfg.Security.BcryptCost)
	assert.Equal(t, 1500*time.Millisecond, cfg.Mail.Timeout())
	assert.Equal(t, "http://mailer:8081", cfg.Mail.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.TrustProxy)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
activation:
  code_ttl_seconds: 300
mail:
  provider: log
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Activation.CodeTTL())
	assert.Equal(t, MailProviderLog, cfg.Mail.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bcrypt cost too low", key: "BCRYPT_ROUNDS", val: "2"},
		{name: "zero ttl", key: "CODE_TTL_SECONDS", val: "0"},
		{name: "short salt", key: "CODE_SALT_BYTES", val: "4"},
		{name: "unknown provider", key: "EMAIL_PROVIDER", val: "pigeon"},
		{name: "mailgun without keys", key: "EMAIL_PROVIDER", val: "mailgun"},
		{name: "resend without key", key: "EMAIL_PROVIDER", val: "resend"},
		{name: "zero rate limit window", key: "RATE_LIMIT_WINDOW", val: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		Name:     "usersdb",
		User:     "userapi",
		Password: "p@ss",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://userapi:p%40ss@db:5433/usersdb?sslmode=disable", d.DSN())

	d.URL = "postgres://other/db"
	assert.Equal(t, "postgres://other/db", d.DSN())
}
