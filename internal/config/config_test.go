package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LAWGUIDE_JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 120*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL())
	assert.Equal(t, int64(10*1024*1024), cfg.Files.MaxUploadBytes)
	assert.Equal(t, 15*time.Minute, cfg.Files.DownloadExpiry())
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
backend:
  base_url: "http://backend:8000"
  timeout_seconds: 30
jwt:
  secret: "from-file"
kafka:
  brokers: "k1:9092,k2:9092"
`)
	t.Setenv("LAWGUIDE_BACKEND_BASE_URL", "http://override:8000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://override:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "k1:9092,k2:9092", cfg.Kafka.Brokers)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: x\nsession:\n  store: etcd\n")
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "session:\n  store: memory\n"))
	assert.Error(t, err, "jwt secret is required")
}

func TestValidate(t *testing.T) {
	base := Config{
		Backend: BackendConfig{TimeoutSeconds: 10},
		Session: SessionConfig{Store: "memory"},
		Files:   FilesConfig{Storage: "memory", MaxUploadBytes: 1 << 20},
		JWT:     JWTConfig{Secret: "s"},
	}
	require.NoError(t, base.Validate())

	cfg := base
	cfg.Files.MaxUploadBytes = 0
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Files.Storage = "s3"
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Backend.TimeoutSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Audit.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Kafka.Enabled = true
	cfg.Database.MySQL.DSN = "dsn"
	assert.NoError(t, cfg.Validate())
}
