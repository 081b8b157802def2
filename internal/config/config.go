// Package config loads blochsweep settings from a TOML or YAML file, a .env
// file and BLOCHSWEEP_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"blochsweep/internal/blob"
	"blochsweep/internal/cache"
	"blochsweep/internal/catalog"
	"blochsweep/internal/model/bloch"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BLOCHSWEEP_"

// Duration wraps time.Duration so it reads from "250ms"-style strings.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the whole settings tree.
type Config struct {
	Log     LogConfig      `toml:"log" yaml:"log"`
	Cache   CacheConfig    `toml:"cache" yaml:"cache"`
	Catalog catalog.Config `toml:"catalog" yaml:"catalog"`
	Metrics MetricsConfig  `toml:"metrics" yaml:"metrics"`
	Sweep   SweepConfig    `toml:"sweep" yaml:"sweep"`
	Model   bloch.Params   `toml:"model" yaml:"model"`
	Atom    AtomConfig     `toml:"atom" yaml:"atom"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`
	// Format is text or json.
	Format string `toml:"format" yaml:"format"`
}

// CacheConfig selects the result cache's blob driver.
type CacheConfig struct {
	Driver          string `toml:"driver" yaml:"driver"`
	Root            string `toml:"root" yaml:"root"`
	Bucket          string `toml:"bucket" yaml:"bucket"`
	Region          string `toml:"region" yaml:"region"`
	Endpoint        string `toml:"endpoint" yaml:"endpoint"`
	PathStyle       bool   `toml:"path_style" yaml:"path_style"`
	AccessKeyID     string `toml:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key" yaml:"secret_access_key"`
	LRUSize         int    `toml:"lru_size" yaml:"lru_size"`
}

// MetricsConfig selects the sweep recorder. Addr, when set, serves
// /metrics for the prometheus recorder and /debug/vars for expvar.
type MetricsConfig struct {
	Recorder string `toml:"recorder" yaml:"recorder"`
	Addr     string `toml:"addr" yaml:"addr"`
}

// SweepConfig holds sweep defaults the CLI flags override.
type SweepConfig struct {
	Workers      int      `toml:"workers" yaml:"workers"`
	PointTimeout Duration `toml:"point_timeout" yaml:"point_timeout"`
	Start        float64  `toml:"start" yaml:"start"`
	Stop         float64  `toml:"stop" yaml:"stop"`
	Points       int      `toml:"points" yaml:"points"`
	Slot         int      `toml:"slot" yaml:"slot"`
}

// Range returns Points evenly spaced detunings from Start to Stop inclusive.
func (s SweepConfig) Range() []float64 {
	if s.Points <= 1 {
		return []float64{s.Start}
	}
	out := make([]float64, s.Points)
	step := (s.Stop - s.Start) / float64(s.Points-1)
	for i := range out {
		out[i] = s.Start + float64(i)*step
	}
	out[len(out)-1] = s.Stop
	return out
}

// Default returns the built-in settings: a two-level model, an fs cache in
// the working directory and a sqlite catalog.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Cache:   CacheConfig{Driver: string(blob.DriverFilesystem), Root: blob.DefaultRoot, LRUSize: cache.DefaultLRUSize},
		Catalog: catalog.Config{Driver: catalog.DriverSQLite, SQLitePath: catalog.DefaultSQLitePath},
		Metrics: MetricsConfig{Recorder: "none"},
		Sweep:   SweepConfig{Start: -10, Stop: 10, Points: 101},
		Model: bloch.Params{
			Energies:  []float64{0, 0},
			Masks:     [][]float64{{0, 1}},
			Detunings: []float64{0},
			Fields:    []bloch.Field{{Rabi: 1, Pairs: []bloch.Coupling{{A: 0, B: 1, Factor: 1}}}},
			Decays:    []bloch.Decay{{From: 1, To: 0, Rate: 1}},
		},
		Atom: DefaultAtom(),
	}
}

// override marks the sections that replace their default wholesale when
// present in a file, rather than merging key by key.
type override struct {
	Model *bloch.Params `toml:"model" yaml:"model"`
	Atom  *AtomConfig   `toml:"atom" yaml:"atom"`
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result. The format follows the extension:
// .toml, .yaml or .yml.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var (
		ov        override
		unmarshal func([]byte, any) error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		unmarshal = toml.Unmarshal
	case ".yaml", ".yml":
		unmarshal = func(b []byte, v any) error {
			dec := yaml.NewDecoder(bytes.NewReader(b))
			dec.KnownFields(true)
			if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err := unmarshal(data, &ov); err != nil && !isUnknownField(err) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if ov.Model != nil {
		cfg.Model = *ov.Model
	}
	if ov.Atom != nil {
		cfg.Atom = *ov.Atom
	}
	return nil
}

// isUnknownField tolerates the strict yaml decoder rejecting the sections the
// override probe does not declare.
func isUnknownField(err error) bool {
	var te *yaml.TypeError
	return errors.As(err, &te)
}

// LoadDotEnv loads each existing .env file into the environment without
// overriding variables that are already set.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("CACHE_DRIVER", &c.Cache.Driver)
	str("CACHE_ROOT", &c.Cache.Root)
	str("CACHE_BUCKET", &c.Cache.Bucket)
	str("CACHE_REGION", &c.Cache.Region)
	str("CACHE_ENDPOINT", &c.Cache.Endpoint)
	str("CACHE_ACCESS_KEY_ID", &c.Cache.AccessKeyID)
	str("CACHE_SECRET_ACCESS_KEY", &c.Cache.SecretAccessKey)
	var catalogDriver string
	str("CATALOG_DRIVER", &catalogDriver)
	if catalogDriver != "" {
		c.Catalog.Driver = catalog.Driver(catalogDriver)
	}
	str("SQLITE_PATH", &c.Catalog.SQLitePath)
	str("POSTGRES_DSN", &c.Catalog.PostgresDSN)
	str("METRICS_RECORDER", &c.Metrics.Recorder)
	str("METRICS_ADDR", &c.Metrics.Addr)

	var errs []error
	if v, ok := lookup(EnvPrefix + "CACHE_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCACHE_PATH_STYLE: %w", EnvPrefix, err))
		}
		c.Cache.PathStyle = b
	}
	for name, dst := range map[string]*int{
		"CACHE_LRU_SIZE": &c.Cache.LRUSize,
		"SWEEP_WORKERS":  &c.Sweep.Workers,
	} {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				continue
			}
			*dst = n
		}
	}
	if v, ok := lookup(EnvPrefix + "SWEEP_POINT_TIMEOUT"); ok && v != "" {
		if err := c.Sweep.PointTimeout.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%sSWEEP_POINT_TIMEOUT: %w", EnvPrefix, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	switch blob.Driver(c.Cache.Driver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Cache.Bucket == "" {
			errs = append(errs, errors.New("cache.bucket: required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver: unknown driver %q", c.Cache.Driver))
	}
	switch c.Catalog.Driver {
	case "", catalog.DriverMemory, catalog.DriverSQLite, catalog.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("catalog.driver: unknown driver %q", c.Catalog.Driver))
	}
	switch c.Metrics.Recorder {
	case "", "none", "prometheus", "expvar":
	default:
		errs = append(errs, fmt.Errorf("metrics.recorder: unknown recorder %q", c.Metrics.Recorder))
	}
	if c.Sweep.Workers < 0 {
		errs = append(errs, errors.New("sweep.workers: must not be negative"))
	}
	if c.Sweep.PointTimeout.Duration < 0 {
		errs = append(errs, errors.New("sweep.point_timeout: must not be negative"))
	}
	if c.Sweep.Points < 1 {
		errs = append(errs, errors.New("sweep.points: need at least one point"))
	}
	if err := c.Model.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("model: %w", err))
	} else if c.Sweep.Slot < 0 || c.Sweep.Slot >= len(c.Model.Masks) {
		errs = append(errs, fmt.Errorf("sweep.slot: %d outside the model's %d detuning slot(s)", c.Sweep.Slot, len(c.Model.Masks)))
	}
	if _, err := c.Atom.Build(); err != nil {
		errs = append(errs, fmt.Errorf("atom: %w", err))
	}
	return errors.Join(errs...)
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Logger builds the configured slog logger writing to w.
func (l LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Blob maps the cache section onto a blob driver configuration.
func (c CacheConfig) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Driver),
		Root:   c.Root,
		S3: blob.S3Config{
			Region:          c.Region,
			Bucket:          c.Bucket,
			Endpoint:        c.Endpoint,
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			PathStyle:       c.PathStyle,
		},
	}
}
