package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/egeskov/localenv/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConfigValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvLogLevel, "")

	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{key: "docker-host", value: "unix:///var/run/docker.sock", want: "unix:///var/run/docker.sock"},
		{key: "docker-host", value: "localhost", wantErr: true},
		{key: "query-timeout", value: "90s", want: "1m30s"},
		{key: "query-timeout", value: "-1s", wantErr: true},
		{key: "concurrency", value: "8", want: "8"},
		{key: "concurrency", value: "0", wantErr: true},
		{key: "concurrency", value: "many", wantErr: true},
		{key: "log-level", value: "DEBUG", want: "debug"},
		{key: "log-level", value: "verbose", wantErr: true},
		{key: "colour", value: "on", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.Default()
			err := setConfigValue(cfg, tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			got, err := getConfigValue(cfg, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetConfigValue_EnvironmentsDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.Default()
	require.NoError(t, setConfigValue(cfg, "environments-dir", "~/sites"))
	assert.Equal(t, filepath.Join(home, "sites"), cfg.EnvironmentsDir)
}

func TestUnsetConfigValue(t *testing.T) {
	cfg := config.Default()
	cfg.DockerHost = "tcp://127.0.0.1:2375"
	cfg.QueryTimeout = "1s"
	cfg.Concurrency = 9

	require.NoError(t, unsetConfigValue(cfg, "docker-host"))
	require.NoError(t, unsetConfigValue(cfg, "query-timeout"))
	require.NoError(t, unsetConfigValue(cfg, "concurrency"))
	assert.Error(t, unsetConfigValue(cfg, "nope"))

	assert.Empty(t, cfg.DockerHost)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, config.DefaultConcurrency, cfg.Concurrency)
}

func TestConfigSetGetRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := execute(t, "config", "set", "query-timeout", "3s")
	require.NoError(t, err)

	cfg, err := config.LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Timeout())

	_, _, err = execute(t, "config", "unset", "query-timeout")
	require.NoError(t, err)

	cfg, err = config.LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultQueryTimeout, cfg.Timeout())

	_, _, err = execute(t, "config", "get", "bogus")
	assert.Error(t, err)
}
