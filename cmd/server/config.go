package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/miretskiy/mlqsim/internal/session"
	"github.com/miretskiy/mlqsim/simulator"
)

// serverConfig is read from the environment, optionally seeded from a .env
// file. Variables already set in the environment win over the file.
type serverConfig struct {
	Addr         string
	TickInterval time.Duration // autoplay cadence
	TimeQuantum  int
	DBPath       string // empty = runs are not stored
	LogLevel     string
	LogFormat    string
	MaxHistory   int
	Strict       bool
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		Addr:         ":8080",
		TickInterval: time.Second,
		TimeQuantum:  simulator.DefaultTimeQuantum,
		LogLevel:     "info",
		LogFormat:    "text",
		MaxHistory:   session.DefaultMaxHistory,
	}
}

// loadConfig loads the given .env files (".env" when none are named) and
// builds the configuration from the resulting environment. Missing files are
// not an error.
func loadConfig(envFiles ...string) (serverConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return serverConfig{}, fmt.Errorf("load env: %w", err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (serverConfig, error) {
	cfg := defaultServerConfig()

	if v := getenv("MLQ_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("MLQ_TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return cfg, fmt.Errorf("MLQ_TICK_MS must be a positive integer, got %q", v)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if v := getenv("MLQ_TIME_QUANTUM"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("MLQ_TIME_QUANTUM: %w", err)
		}
		cfg.TimeQuantum = q
	}
	if v := getenv("MLQ_MAX_HISTORY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("MLQ_MAX_HISTORY must be a non-negative integer, got %q", v)
		}
		cfg.MaxHistory = n
	}
	if v := getenv("MLQ_STRICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("MLQ_STRICT: %w", err)
		}
		cfg.Strict = b
	}
	cfg.DBPath = getenv("MLQ_DB_PATH")
	if v := getenv("MLQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("MLQ_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	simCfg := cfg.simConfig()
	if err := simCfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c serverConfig) simConfig() simulator.SimConfig {
	return simulator.SimConfig{TimeQuantum: c.TimeQuantum}
}
