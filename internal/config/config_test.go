package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvWSURL, EnvHTTPURL, EnvDataDir, EnvLogLevel, EnvDev} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080", c.WSURL)
	assert.Equal(t, "http://localhost:8080", c.HTTPURL)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.Dev)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	p := writeEnv(t, "SKETCHROOM_WS_URL=wss://draw.example\nSKETCHROOM_LOG_LEVEL=debug\nSKETCHROOM_DEV=true\n")
	t.Setenv(EnvLogLevel, "warn")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "wss://draw.example", c.WSURL)
	assert.Equal(t, "warn", c.LogLevel, "environment overrides the file")
	assert.True(t, c.Dev)
}

func TestLoad_BadBool(t *testing.T) {
	clearEnv(t)
	p := writeEnv(t, "SKETCHROOM_DEV=sometimes\n")
	_, err := Load(p)
	assert.ErrorContains(t, err, EnvDev)
}
