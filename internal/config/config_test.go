package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestDefaultListenAddr(t *testing.T) {
	require.Equal(t, "127.0.0.1:50021", Default().Listen.Addr())
}

func TestParseEmptyContentKeepsBase(t *testing.T) {
	cfg, warnings, err := Parse("", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseOverlaysOnlyPresentKeys(t *testing.T) {
	content := `{
		// worker control port
		"listen": {"port": 50100},
		"predictor": {"threshold": 0.2}
	}`

	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "127.0.0.1", cfg.Listen.Host)
	require.Equal(t, 50100, cfg.Listen.Port)
	require.InDelta(t, 0.2, cfg.Predictor.Threshold, 1e-9)
	require.Equal(t, Default().Predictor.BlurRadius, cfg.Predictor.BlurRadius)
	require.Equal(t, Default().SHM.Dir, cfg.SHM.Dir)
}

func TestParseAllSections(t *testing.T) {
	content := `{
		"listen": {"host": "localhost", "port": 50022},
		"predictor": {"threshold": 0.3, "blur_radius": 0, "max_region_frac": 0.5},
		"shm": {"dir": "/tmp/segments"},
		"debug": {"log_commands": true}
	}`

	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.Listen.Host)
	require.Equal(t, 50022, cfg.Listen.Port)
	require.InDelta(t, 0.3, cfg.Predictor.Threshold, 1e-9)
	require.Zero(t, cfg.Predictor.BlurRadius)
	require.InDelta(t, 0.5, cfg.Predictor.MaxRegionFrac, 1e-9)
	require.Equal(t, "/tmp/segments", cfg.SHM.Dir)
	require.True(t, cfg.Debug.LogCommands)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, _, err := Parse(`{"listne": {"port": 1}}`, Default())
	require.Error(t, err)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, _, err := Parse(`{"listen": `, Default())
	require.Error(t, err)
}

func TestValidateMatrix(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty host", mutate: func(c *Config) { c.Listen.Host = " " }},
		{name: "zero port", mutate: func(c *Config) { c.Listen.Port = 0 }},
		{name: "port too high", mutate: func(c *Config) { c.Listen.Port = 70000 }},
		{name: "zero threshold", mutate: func(c *Config) { c.Predictor.Threshold = 0 }},
		{name: "negative blur", mutate: func(c *Config) { c.Predictor.BlurRadius = -1 }},
		{name: "zero region frac", mutate: func(c *Config) { c.Predictor.MaxRegionFrac = 0 }},
		{name: "region frac above one", mutate: func(c *Config) { c.Predictor.MaxRegionFrac = 1.5 }},
		{name: "empty shm dir", mutate: func(c *Config) { c.SHM.Dir = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
		})
	}
}

func TestValidatePrivilegedPortWarns(t *testing.T) {
	cfg := Default()
	cfg.Listen.Port = 80
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "privileged")
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.conf"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen": {"port": 50555}}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, 50555, loaded.Config.Listen.Port)
}

func TestResolvePathPrefersExplicit(t *testing.T) {
	path, err := ResolvePath("/etc/maskd.conf")
	require.NoError(t, err)
	require.Equal(t, "/etc/maskd.conf", path)
}

func TestResolvePathUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/xdg/maskd/config.conf", path)
}
