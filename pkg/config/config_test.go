package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/liftplan/pkg/analysis"
	"github.com/chazu/liftplan/pkg/kernel/manifold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesAnalysisDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, analysis.DefaultOptions(), cfg.Analysis())
	assert.NoError(t, cfg.Validate())
}

func TestDecode(t *testing.T) {
	src := `
[tolerance]
support = 0.05
volume = 1e-4

[kernel]
name = "sdfx"
sdfx_cells = 16

[support]
spatial_index = true

[sequence]
deadlock_policy = "largest-volume"
workers = 4
timeout = "90s"

[input]
max_input_errors = 3
abort_on_load_bearing = true
`
	cfg, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	opts := cfg.Analysis()
	assert.Equal(t, 0.05, opts.SupportTolerance)
	assert.Equal(t, 1e-4, opts.VolumeTolerance)
	assert.Equal(t, 1.0, opts.CeilingMargin, "unset keys keep defaults")
	assert.True(t, opts.RequireXYOverlap)
	assert.True(t, opts.SpatialIndex)
	assert.Equal(t, "largest-volume", opts.DeadlockPolicy)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, 90*time.Second, opts.Timeout)
	assert.Equal(t, 3, opts.MaxInputErrors)
	assert.True(t, opts.AbortOnLoadBearing)

	k, err := cfg.NewKernel()
	require.NoError(t, err)
	assert.Equal(t, "sdfx", k.Name())
}

func TestDecode_UnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[tolerance]\nsupprt = 1.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tolerance.supprt")
}

func TestDecode_BadDuration(t *testing.T) {
	_, err := Decode(strings.NewReader("[sequence]\ntimeout = \"soon\"\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LIFTPLAN_LOG_LEVEL":  "debug",
		"LIFTPLAN_LOG_FORMAT": "json",
		"LIFTPLAN_KERNEL":     "sdfx",
		"LIFTPLAN_WORKERS":    "8",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "sdfx", cfg.Kernel.Name)
	assert.Equal(t, 8, cfg.Sequence.Workers)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	env["LIFTPLAN_WORKERS"] = "many"
	assert.Error(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liftplan.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o644))
	t.Setenv("LIFTPLAN_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"unknown kernel", func(c *Config) { c.Kernel.Name = "cgal" }, "kernel"},
		{"negative cells", func(c *Config) { c.Kernel.Name = "sdfx"; c.Kernel.SdfxCells = -1 }, "sdfx cells"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"bad policy", func(c *Config) { c.Sequence.DeadlockPolicy = "random" }, "deadlock policy"},
		{"negative tolerance", func(c *Config) { c.Tolerance.Support = -0.5 }, "support tolerance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(&cfg)
			var ce *analysis.ConfigurationError
			require.True(t, errors.As(cfg.Validate(), &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestNewKernel_ManifoldWithoutTag(t *testing.T) {
	if _, err := manifold.New(); err == nil {
		t.Skip("built with the manifold tag")
	}
	cfg := Default()
	cfg.Kernel.Name = "manifold"
	_, err := cfg.NewKernel()
	var ce *analysis.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, "-tags=manifold")
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := LogConfig{Level: "debug", Format: format}.NewLogger()
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
	_, err := LogConfig{Level: "info", Format: "yaml"}.NewLogger()
	assert.Error(t, err)
}
