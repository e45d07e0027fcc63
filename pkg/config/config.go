// Package config loads liftplan settings from a TOML file and the
// environment and turns them into analysis options, a solid kernel and a
// logger.
package config

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/chazu/liftplan/pkg/analysis"
	"github.com/chazu/liftplan/pkg/kernel"
	"github.com/chazu/liftplan/pkg/kernel/boxset"
	"github.com/chazu/liftplan/pkg/kernel/manifold"
	"github.com/chazu/liftplan/pkg/kernel/sdfx"
	"github.com/chazu/liftplan/pkg/sequence"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ---------------------------------------------------------------------------
// Sections
// ---------------------------------------------------------------------------

type ToleranceConfig struct {
	Support       float64 `toml:"support"`
	Volume        float64 `toml:"volume"`
	XY            float64 `toml:"xy"`
	CeilingMargin float64 `toml:"ceiling_margin"`
}

type KernelConfig struct {
	Name      string `toml:"name"`       // boxset, sdfx or manifold
	SdfxCells int    `toml:"sdfx_cells"` // samples per axis for sdfx volumes
}

type SupportConfig struct {
	RequireXYOverlap bool `toml:"require_xy_overlap"`
	SpatialIndex     bool `toml:"spatial_index"`
}

type SequenceConfig struct {
	DeadlockPolicy string   `toml:"deadlock_policy"`
	Workers        int      `toml:"workers"`
	MaxRounds      int      `toml:"max_rounds"`
	Timeout        Duration `toml:"timeout"`
	MaxFailures    int      `toml:"max_failures"`
}

type InputConfig struct {
	MaxInputErrors     int  `toml:"max_input_errors"`
	AbortOnLoadBearing bool `toml:"abort_on_load_bearing"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus textfile dump after each
	// CLI run.
	Textfile string `toml:"textfile"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Config is the complete liftplan configuration.
type Config struct {
	Tolerance ToleranceConfig `toml:"tolerance"`
	Kernel    KernelConfig    `toml:"kernel"`
	Support   SupportConfig   `toml:"support"`
	Sequence  SequenceConfig  `toml:"sequence"`
	Input     InputConfig     `toml:"input"`
	Log       LogConfig       `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Server    ServerConfig    `toml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := analysis.DefaultOptions()
	return Config{
		Tolerance: ToleranceConfig{
			Support:       opts.SupportTolerance,
			Volume:        opts.VolumeTolerance,
			XY:            opts.XYEpsilon,
			CeilingMargin: opts.CeilingMargin,
		},
		Kernel:   KernelConfig{Name: "boxset", SdfxCells: sdfx.DefaultCells},
		Support:  SupportConfig{RequireXYOverlap: true},
		Sequence: SequenceConfig{DeadlockPolicy: sequence.DefaultPolicy},
		Log:      LogConfig{Level: "info", Format: "console"},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Decode reads TOML from r over the defaults. Keys that do not map to a
// setting are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Load reads the file at path (if non-empty) over the defaults and then
// applies LIFTPLAN_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if cfg, err = Decode(f); err != nil {
			return Config{}, fmt.Errorf("%w (in %s)", err, path)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables read through
// getenv. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"LIFTPLAN_LOG_LEVEL":        &c.Log.Level,
		"LIFTPLAN_LOG_FORMAT":       &c.Log.Format,
		"LIFTPLAN_KERNEL":           &c.Kernel.Name,
		"LIFTPLAN_DEADLOCK_POLICY":  &c.Sequence.DeadlockPolicy,
		"LIFTPLAN_METRICS_TEXTFILE": &c.Metrics.Textfile,
		"LIFTPLAN_ADDR":             &c.Server.Addr,
	}
	for env, dst := range strs {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}
	if v := getenv("LIFTPLAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: LIFTPLAN_WORKERS=%q: %w", v, err)
		}
		c.Sequence.Workers = n
	}
	return nil
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// Analysis converts the configuration to analysis options.
func (c Config) Analysis() analysis.Options {
	return analysis.Options{
		SupportTolerance:   c.Tolerance.Support,
		VolumeTolerance:    c.Tolerance.Volume,
		XYEpsilon:          c.Tolerance.XY,
		CeilingMargin:      c.Tolerance.CeilingMargin,
		RequireXYOverlap:   c.Support.RequireXYOverlap,
		SpatialIndex:       c.Support.SpatialIndex,
		DeadlockPolicy:     c.Sequence.DeadlockPolicy,
		Workers:            c.Sequence.Workers,
		MaxRounds:          c.Sequence.MaxRounds,
		Timeout:            c.Sequence.Timeout.Duration,
		MaxFailures:        c.Sequence.MaxFailures,
		MaxInputErrors:     c.Input.MaxInputErrors,
		AbortOnLoadBearing: c.Input.AbortOnLoadBearing,
	}
}

// NewKernel builds the configured solid kernel.
func (c Config) NewKernel() (kernel.Kernel, error) {
	switch strings.ToLower(c.Kernel.Name) {
	case "", "boxset":
		return boxset.New(), nil
	case "sdfx":
		if c.Kernel.SdfxCells < 0 {
			return nil, &analysis.ConfigurationError{Field: "sdfx cells", Value: c.Kernel.SdfxCells, Reason: "must not be negative"}
		}
		return sdfx.New(c.Kernel.SdfxCells), nil
	case "manifold":
		k, err := manifold.New()
		if err != nil {
			return nil, &analysis.ConfigurationError{Field: "kernel", Value: c.Kernel.Name, Reason: err.Error()}
		}
		return k, nil
	default:
		return nil, &analysis.ConfigurationError{Field: "kernel", Value: c.Kernel.Name, Reason: "must be boxset, sdfx or manifold"}
	}
}

// Validate checks every section and returns the first problem as a
// *analysis.ConfigurationError.
func (c Config) Validate() error {
	if err := c.Analysis().Validate(); err != nil {
		return err
	}
	if _, err := c.NewKernel(); err != nil {
		return err
	}
	return c.Log.validate()
}
