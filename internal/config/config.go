// Package config holds the processing settings shared by the command line
// tool and the MCP server.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"
)

// Config controls how v8 logs are processed.
type Config struct {
	// Chunking processes payloads in time slices through a work queue.
	Chunking      bool          `yaml:"chunking"`
	SliceBudget   time.Duration `yaml:"slice_budget"`
	CheckInterval int           `yaml:"check_interval"`
	LogLevel      string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Chunking:      true,
		SliceBudget:   60 * time.Millisecond,
		CheckInterval: 10,
		LogLevel:      "info",
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SliceBudget <= 0 {
		return errors.Errorf("slice_budget must be positive, got %s", c.SliceBudget)
	}
	if c.CheckInterval <= 0 {
		return errors.Errorf("check_interval must be positive, got %d", c.CheckInterval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Flags are command line overrides. Unset flags leave the file (or default)
// value alone.
type Flags struct {
	File          string
	Chunking      string
	SliceBudget   time.Duration
	CheckInterval int
	LogLevel      string
}

// RegisterFlags binds the configuration flags to app.
func RegisterFlags(app *kingpin.Application) *Flags {
	f := &Flags{}
	app.Flag("config.file", "YAML configuration file.").StringVar(&f.File)
	app.Flag("chunking", "Process logs in time slices (on|off).").EnumVar(&f.Chunking, "on", "off")
	app.Flag("slice-budget", "Time budget of one processing slice.").DurationVar(&f.SliceBudget)
	app.Flag("check-interval", "Lines between slice budget checks.").IntVar(&f.CheckInterval)
	app.Flag("log.level", "Log level (debug|info|warn|error).").StringVar(&f.LogLevel)
	return f
}

// Resolve loads the configuration file, if any, and applies the overrides.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if f.File != "" {
		var err error
		if cfg, err = Load(f.File); err != nil {
			return cfg, err
		}
	}

	switch f.Chunking {
	case "on":
		cfg.Chunking = true
	case "off":
		cfg.Chunking = false
	}
	if f.SliceBudget != 0 {
		cfg.SliceBudget = f.SliceBudget
	}
	if f.CheckInterval != 0 {
		cfg.CheckInterval = f.CheckInterval
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	return cfg, cfg.Validate()
}
