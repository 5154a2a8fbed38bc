// Package config loads runtime settings from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	// BasePath is the host's base directory; prompt video paths are relative to it.
	BasePath    string `env:"LNL_BASE_PATH"    envDefault:"."`
	FFmpegPath  string `env:"LNL_FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"LNL_FFPROBE_PATH" envDefault:"ffprobe"`
	LogLevel    string `env:"LNL_LOG_LEVEL"    envDefault:"info"`
	// MetricsFile receives a Prometheus textfile after each run; empty disables it.
	MetricsFile string `env:"LNL_METRICS_FILE"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
