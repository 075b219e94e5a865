package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags adds the simulation flags to fs with the built-in defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "YAML config file")
	fs.Float64("s0", d.S0, "initial price")
	fs.Float64("mu", d.Mu, "annualized drift")
	fs.Float64("sigma", d.Sigma, "annualized volatility")
	fs.Int("days", d.Days, "number of simulated trading days (rows)")
	fs.Int("paths", d.Paths, "number of simulated trajectories (columns)")
	fs.Uint64("seed", d.Seed, "random seed, 0 derives one from the clock")
	fs.Int("workers", d.Workers, "goroutines per day step")
	fs.String("log-level", d.Log.Level, "log level")
	fs.String("log-format", d.Log.Format, "log format: text or json")
}

// FromFlags loads defaults, the --config file and the environment, then
// applies the flags the user set explicitly.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFlags overlays flags that were changed on the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "s0":
			c.S0, err = fs.GetFloat64(f.Name)
		case "mu":
			c.Mu, err = fs.GetFloat64(f.Name)
		case "sigma":
			c.Sigma, err = fs.GetFloat64(f.Name)
		case "days":
			c.Days, err = fs.GetInt(f.Name)
		case "paths":
			c.Paths, err = fs.GetInt(f.Name)
		case "seed":
			c.Seed, err = fs.GetUint64(f.Name)
		case "workers":
			c.Workers, err = fs.GetInt(f.Name)
		case "log-level":
			c.Log.Level, err = fs.GetString(f.Name)
		case "log-format":
			c.Log.Format, err = fs.GetString(f.Name)
		}
	})
	return err
}
