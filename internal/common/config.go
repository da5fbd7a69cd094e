// Package common provides configuration and logging shared by the sunspot
// report and dashboard commands.
package common

import (
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SUNSPOTS"

// DefaultDataPath is the data source both commands fall back to.
const DefaultDataPath = "data/sunspots.csv"

// Config holds common configuration for all applications.
type Config struct {
	DataPath        string        `envconfig:"DATA_PATH" default:"data/sunspots.csv" validate:"required"`
	Column          string        `envconfig:"COLUMN" default:"SUNACTIVITY" validate:"required,ne=YEAR"`
	Listen          string        `envconfig:"LISTEN" default:":8501" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	ChartWidth      float64       `envconfig:"CHART_WIDTH" default:"14" validate:"gt=0,lte=100"`
	ChartHeight     float64       `envconfig:"CHART_HEIGHT" default:"10" validate:"gt=0,lte=100"`
}

// Load reads the optional .env files (the working directory's .env when
// none are given), then SUNSPOTS_* variables, and validates the result.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "load config from env")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}
