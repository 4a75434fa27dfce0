package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadConfig_RequiresSecretAndDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://portal@localhost/portal")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(noEnvFile(t))
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	os.Unsetenv("DATABASE_URL")

	_, err = LoadConfig(noEnvFile(t))
	require.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://portal@localhost/portal")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.ResetTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_ENV=development\nSESSION_TTL=30m\n"), 0o600))
	t.Setenv("DATABASE_URL", "postgres://portal@localhost/portal")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Cleanup(func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("SESSION_TTL")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoadConfig_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://portal@localhost/portal")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "0s")

	_, err := LoadConfig(noEnvFile(t))
	require.Error(t, err)
}

func TestLoadConfig_RejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://portal@localhost/portal")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := LoadConfig(noEnvFile(t))
	require.ErrorContains(t, err, "LOG_LEVEL")
}

func TestLoadConfig_CertificateSecretFallsBackToJWT(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://portal@localhost/portal")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CERTIFICATE_SECRET", "")

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.CertificateSecret)

	t.Setenv("CERTIFICATE_SECRET", "cert-key")
	cfg, err = LoadConfig(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "cert-key", cfg.CertificateSecret)
}
