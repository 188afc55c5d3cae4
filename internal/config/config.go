package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds environment overrides; everything else arrives on the
// command line.
type Config struct {
	LogLevel      string `env:"FIDUCIAL_LOG_LEVEL"      envDefault:"info"`
	DecodeThreads int    `env:"FIDUCIAL_DECODE_THREADS" envDefault:"0"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
