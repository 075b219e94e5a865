package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"mcsim/internal/gbm"

	"gopkg.in/yaml.v3"
)

// Collector domains for user-supplied parameters. The simulator only
// requires finite values and positive sizes; these narrower ranges are what
// the command line accepts.
const (
	MinMu    = -0.1
	MaxMu    = 0.2
	MinSigma = 0.01
	MaxSigma = 0.5
	MinPaths = 100
	MaxPaths = 5000
)

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is everything a run needs before it starts.
type Config struct {
	S0      float64 `yaml:"s0"`
	Mu      float64 `yaml:"mu"`
	Sigma   float64 `yaml:"sigma"`
	Days    int     `yaml:"days"`
	Paths   int     `yaml:"paths"`
	Seed    uint64  `yaml:"seed"`
	Workers int     `yaml:"workers"`
	Log     Log     `yaml:"log"`
}

func Default() *Config {
	return &Config{
		S0:      100.0,
		Mu:      0.05,
		Sigma:   0.2,
		Days:    252 * 2,
		Paths:   1000,
		Seed:    0,
		Workers: 1,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a config from defaults, then the YAML file at path (if path is
// not empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the keys present in a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config from YAML: %w", err)
	}
	return nil
}

// ApplyEnv overlays MCSIM_* variables and LOG_LEVEL / LOG_FORMAT.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	floatVars := []struct {
		key string
		dst *float64
	}{
		{"MCSIM_S0", &c.S0},
		{"MCSIM_MU", &c.Mu},
		{"MCSIM_SIGMA", &c.Sigma},
	}
	for _, v := range floatVars {
		raw, ok := lookup(v.key)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.key, raw, err)
		}
		*v.dst = f
	}

	intVars := []struct {
		key string
		dst *int
	}{
		{"MCSIM_DAYS", &c.Days},
		{"MCSIM_PATHS", &c.Paths},
		{"MCSIM_WORKERS", &c.Workers},
	}
	for _, v := range intVars {
		raw, ok := lookup(v.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.key, raw, err)
		}
		*v.dst = n
	}

	if raw, ok := lookup("MCSIM_SEED"); ok {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MCSIM_SEED %q: %w", raw, err)
		}
		c.Seed = seed
	}
	if raw, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = raw
	}
	if raw, ok := lookup("LOG_FORMAT"); ok {
		c.Log.Format = raw
	}
	return nil
}

// Validate checks the collector domains.
func (c *Config) Validate() error {
	if math.IsNaN(c.S0) || math.IsInf(c.S0, 0) || c.S0 <= 0 {
		return fmt.Errorf("s0 must be a positive finite number, got %v", c.S0)
	}
	if !(c.Mu >= MinMu && c.Mu <= MaxMu) {
		return fmt.Errorf("mu must be within [%v, %v], got %v", MinMu, MaxMu, c.Mu)
	}
	if !(c.Sigma >= MinSigma && c.Sigma <= MaxSigma) {
		return fmt.Errorf("sigma must be within [%v, %v], got %v", MinSigma, MaxSigma, c.Sigma)
	}
	if c.Days < 1 {
		return fmt.Errorf("days must be at least 1, got %d", c.Days)
	}
	if c.Paths < MinPaths || c.Paths > MaxPaths {
		return fmt.Errorf("paths must be within [%d, %d], got %d", MinPaths, MaxPaths, c.Paths)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (c *Config) Parameters() gbm.Parameters {
	return gbm.NewParameters(c.S0, c.Mu, c.Sigma, c.Days, c.Paths)
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", path, err)
	}
	return nil
}
