package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "choremane.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.False(t, cfg.Auth.AllowHeader)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "choremane.yaml")
	body := `
server:
  port: "9090"
database:
  path: /var/lib/choremane/data.db
log:
  level: debug
  format: json
auth:
  issuer: https://id.example.com/
  allow_header: true
archive:
  bucket: chores
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/var/lib/choremane/data.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://id.example.com/", cfg.Auth.Issuer)
	assert.True(t, cfg.Auth.AllowHeader)
	assert.Equal(t, "chores", cfg.Archive.Bucket)
	assert.Equal(t, "exports/", cfg.Archive.Prefix)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHOREMANE_SERVER_PORT", "7000")
	t.Setenv("CHOREMANE_DATABASE_PATH", ":memory:")
	t.Setenv("CHOREMANE_VERSION_TAG", "v1.2.3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "v1.2.3", cfg.Version.Tag)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
