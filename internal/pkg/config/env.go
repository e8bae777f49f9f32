package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Env holds the settings taken from environment variables.
type Env struct {
	// Config is the configuration file used when no -config flag is given.
	Config string `env:"HOUSINGVIZ_CONFIG"`
	// DataURL is a base URL prepended to relative source locations.
	DataURL  string        `env:"HOUSINGVIZ_DATA_URL"`
	Timeout  time.Duration `env:"HOUSINGVIZ_HTTP_TIMEOUT,default=30s"`
	LogLevel string        `env:"HOUSINGVIZ_LOG_LEVEL,default=info"`
}

// LoadEnv loads settings from environment variables.
func LoadEnv(ctx context.Context) (Env, error) {
	var env Env
	if err := envconfig.Process(ctx, &env); err != nil {
		return env, fmt.Errorf("processing environment: %w", err)
	}

	return env, nil
}

// LoadEnvFrom loads settings from a map of variables instead of the process environment.
func LoadEnvFrom(ctx context.Context, vars map[string]string) (Env, error) {
	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: envconfig.MapLookuper(vars),
	}); err != nil {
		return env, fmt.Errorf("processing environment: %w", err)
	}

	return env, nil
}

// Level yields the [slog.Level] named by LogLevel, defaulting to info.
func (e Env) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(e.LogLevel))); err != nil {
		return slog.LevelInfo
	}

	return level
}
