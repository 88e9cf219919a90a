package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LOBBY_HOST", "LOBBY_PORT", "LOBBY_SECURE", "LOBBY_ORIGIN", "LOBBY_SESSION_DSN", "LOG_LEVEL", "LOG_FILE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	chdir(t, t.TempDir()) // no stray .env
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.False(t, cfg.Secure)
	assert.Equal(t, "http://localhost", cfg.Origin)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.NotEmpty(t, cfg.SessionDSN)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBase())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOBBY_HOST", "robbox.tv")
	t.Setenv("LOBBY_PORT", "9443")
	t.Setenv("LOBBY_SECURE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "robbox.tv", cfg.Host)
	assert.Equal(t, 9443, cfg.Port)
	assert.True(t, cfg.Secure)
	assert.Equal(t, "https://robbox.tv", cfg.Origin)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://robbox.tv:9443/api", cfg.APIBase())
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOBBY_HOST", "from-env")
	t.Setenv("LOBBY_PORT", "1234")

	cfg, err := Load(Options{Host: "from-flag", Port: 8080, SessionDSN: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":memory:", cfg.SessionDSN)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "lobby.env")
	require.NoError(t, os.WriteFile(path, []byte("LOBBY_HOST=from-file\nLOBBY_ORIGIN=http://example.test\n"), 0o600))

	cfg, err := Load(Options{EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Host)
	assert.Equal(t, "http://example.test", cfg.Origin)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		opts Options
	}{
		{name: "bad port", env: map[string]string{"LOBBY_PORT": "eighty"}},
		{name: "port out of range", env: map[string]string{"LOBBY_PORT": "70000"}},
		{name: "bad secure flag", env: map[string]string{"LOBBY_SECURE": "maybe"}},
		{name: "missing explicit env file", opts: Options{EnvFile: "does-not-exist.env"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(tc.opts)
			assert.Error(t, err)
		})
	}
}

// chdir is a pre-Go 1.24 stand-in for t.Chdir.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
