package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORAGE_MAX_UPLOAD_BYTES", "2048")
	t.Setenv("AUTHZ_ALLOW_UNASSIGNED_FACULTY", "true")

	path := writeFile(t, "config.yaml", `
server:
  port: "9090"
storage:
  driver: local
  signed_url_ttl: 30m
rate_limit:
  rps: 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, int64(2048), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, "30m", cfg.Storage.SignedURLTTL)
	assert.True(t, cfg.Authorization.AllowUnassignedFaculty)
	assert.Equal(t, 2, cfg.RateLimit.RPS)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "http://localhost:9090", cfg.BaseURL())
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")

	cases := map[string]string{
		"unknown driver":   "storage:\n  driver: ftp\n",
		"s3 needs bucket":  "storage:\n  driver: s3\n  bucket: \"\"\n",
		"bad ttl":          "storage:\n  signed_url_ttl: soon\n",
		"bad upload limit": "storage:\n  max_upload_bytes: 0\n",
		"bad jwt ttl":      "jwt:\n  access_token_expiration: forever\n",
	}
	for name, yaml := range cases {
		_, err := LoadConfig(writeFile(t, "config.yaml", yaml))
		assert.Error(t, err, name)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "PORTAL_TEST_FROM_FILE=file\nPORTAL_TEST_PRESET=file\n")
	t.Setenv("PORTAL_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("PORTAL_TEST_FROM_FILE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "file", os.Getenv("PORTAL_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("PORTAL_TEST_PRESET"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("PORTAL_TEST_SET", "")

	assert.Equal(t, "", GetEnv("PORTAL_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PORTAL_TEST_UNSET", "fallback"))
}
