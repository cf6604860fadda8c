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
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2025, cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 600, cfg.Cache.TTLSeconds)
	assert.Equal(t, 24*time.Hour, cfg.Auth.LinkTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phonebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\nlog:\n  level: debug\n  pretty: true\n"), 0o644))

	t.Setenv("PHONEBOOK_DATA_DIR", "/var/lib/phonebook")
	t.Setenv("PHONEBOOK_SERVER_PORT", "9090")
	t.Setenv("PHONEBOOK_AUTH_LINK_TTL", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/phonebook", cfg.Data.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LinkTTL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 0},
		Data:   DataConfig{Dir: "x"},
		Auth:   AuthConfig{LinkTTL: time.Hour, SessionTTL: time.Hour},
	}
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 80
	assert.NoError(t, cfg.Validate())

	cfg.Data.Dir = ""
	assert.Error(t, cfg.Validate())

	cfg.Data.Dir = "x"
	cfg.Auth.SessionTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PHONEBOOK_AUTH_BASE_URL=https://book.example\nPHONEBOOK_LOG_LEVEL=warn\n"), 0o644))
	t.Setenv("PHONEBOOK_LOG_LEVEL", "error")
	t.Cleanup(func() { os.Unsetenv("PHONEBOOK_AUTH_BASE_URL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://book.example", cfg.Auth.BaseURL)
	assert.Equal(t, "error", cfg.Log.Level)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
