// Package config loads the yaml configuration of the outlierdetect command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	outlier "github.com/aouyang1/go-outlier"
	"github.com/aouyang1/go-outlier/timedataset"
	"gopkg.in/yaml.v3"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"

	DefaultLogLevel  = "info"
	DefaultLogFormat = FormatJSON

	DefaultSimulatePoints   = 14 * 24 * 12
	DefaultSimulateInterval = 5 * time.Minute
)

var (
	ErrUnknownFormat   = errors.New("unknown output format")
	ErrUnknownLogLevel = errors.New("unknown log level")
	ErrNegativeWidth   = errors.New("resample width must not be negative")
	ErrNoPoints        = errors.New("simulate points must be positive")
	ErrNegativeRetain  = errors.New("output retention must not be negative")
)

// Config is the top level configuration of the outlierdetect command
type Config struct {
	Input    InputConfig      `yaml:"input"`
	ModelDir string           `yaml:"model_dir"`
	Output   OutputConfig     `yaml:"output"`
	Log      LogConfig        `yaml:"log"`
	Detector *outlier.Options `yaml:"detector"`
	Simulate SimulateConfig   `yaml:"simulate"`
}

// InputConfig describes the csv series to read
type InputConfig struct {
	Path string                  `yaml:"path"`
	CSV  *timedataset.CSVOptions `yaml:"csv"`

	// Resample averages values into fixed width buckets when positive
	Resample time.Duration `yaml:"resample"`

	// ResampleKeepEmpty emits buckets with no values as NaN so they show up as gaps
	ResampleKeepEmpty bool `yaml:"resample_keep_empty"`

	// Series names the input in stored runs and metric labels. Defaults to the input path.
	Series string `yaml:"series"`
}

// OutputConfig describes where detection results are written. Empty paths are skipped and an
// empty results path writes to stdout.
type OutputConfig struct {
	Path    string `yaml:"path"`
	Format  string `yaml:"format"`
	SQLite  string `yaml:"sqlite"`
	Metrics string `yaml:"metrics"`
	Plot    string `yaml:"plot"`

	// Retention deletes stored runs older than this after each saved run when positive
	Retention time.Duration `yaml:"retention"`
}

// LogConfig sets the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SimulateConfig drives the synthetic series written by the simulate command
type SimulateConfig struct {
	Points      int           `yaml:"points"`
	Interval    time.Duration `yaml:"interval"`
	Seed        uint64        `yaml:"seed"`
	Noise       float64       `yaml:"noise"`
	Spikes      int           `yaml:"spikes"`
	SpikeHeight float64       `yaml:"spike_height"`
}

// Default returns a Config populated with default values
func Default() *Config {
	return &Config{
		Input: InputConfig{
			CSV: timedataset.NewDefaultCSVOptions(),
		},
		Output: OutputConfig{
			Format: FormatCSV,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Detector: outlier.NewDefaultOptions(),
		Simulate: SimulateConfig{
			Points:      DefaultSimulatePoints,
			Interval:    DefaultSimulateInterval,
			Seed:        1,
			Noise:       1.0,
			Spikes:      5,
			SpikeHeight: 20.0,
		},
	}
}

// Load reads and parses the yaml config file at path. Missing fields keep their defaults. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config yaml, %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and validates the detector options
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "":
		c.Output.Format = FormatCSV
	case FormatCSV, FormatJSON:
	default:
		return fmt.Errorf("output.format %q, %w", c.Output.Format, ErrUnknownFormat)
	}

	switch c.Log.Level {
	case "":
		c.Log.Level = DefaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q, %w", c.Log.Level, ErrUnknownLogLevel)
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = DefaultLogFormat
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("log.format %q, %w", c.Log.Format, ErrUnknownFormat)
	}

	if c.Input.Resample < 0 {
		return ErrNegativeWidth
	}
	if c.Output.Retention < 0 {
		return ErrNegativeRetain
	}
	if c.Input.CSV == nil {
		c.Input.CSV = timedataset.NewDefaultCSVOptions()
	}
	if c.Input.Series == "" {
		c.Input.Series = c.Input.Path
	}

	if c.Simulate.Points <= 0 {
		return ErrNoPoints
	}
	if c.Simulate.Interval <= 0 {
		c.Simulate.Interval = DefaultSimulateInterval
	}

	if c.Detector == nil {
		c.Detector = outlier.NewDefaultOptions()
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("unable to validate detector options, %w", err)
	}
	return nil
}
