package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDBPath        = "parallel.db"
	defaultConcurrency   = 10
	defaultMaxQueue      = 100
	defaultRelaxInterval = 100 * time.Millisecond
	defaultTaskBin       = "parallel-task"

	envListenAddr    = "PARALLEL_LISTEN_ADDR"
	envDBPath        = "PARALLEL_DB_PATH"
	envLogLevel      = "PARALLEL_LOG_LEVEL"
	envConcurrency   = "PARALLEL_CONCURRENCY"
	envMaxQueue      = "PARALLEL_MAX_QUEUE"
	envRelaxInterval = "PARALLEL_RELAX_INTERVAL"
	envInterpreter   = "PARALLEL_INTERPRETER"
	envTaskBin       = "PARALLEL_TASK_BIN"
	envTempDir       = "PARALLEL_TEMP_DIR"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	// ListenAddr is the status server address. Empty disables the server.
	ListenAddr string
	// DBPath is the run history database. Empty disables run history.
	DBPath   string
	LogLevel slog.Level

	Concurrency   int
	MaxQueue      int
	RelaxInterval time.Duration

	// Interpreter runs TaskBin as a script. Empty executes TaskBin directly.
	Interpreter string
	TaskBin     string
	TempDir     string
}

// Load reads configuration from environment variables with sensible defaults.
// PARALLEL_DB_PATH set to an empty value disables run history.
func Load() (Config, error) {
	cfg := Config{
		DBPath:        defaultDBPath,
		LogLevel:      slog.LevelInfo,
		Concurrency:   defaultConcurrency,
		MaxQueue:      defaultMaxQueue,
		RelaxInterval: defaultRelaxInterval,
		TaskBin:       defaultTaskBin,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv(envDBPath); ok {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envInterpreter); v != "" {
		cfg.Interpreter = v
	}
	if v := os.Getenv(envTaskBin); v != "" {
		cfg.TaskBin = v
	}
	if v := os.Getenv(envTempDir); v != "" {
		cfg.TempDir = v
	}

	var err error
	if cfg.Concurrency, err = positiveInt(envConcurrency, cfg.Concurrency); err != nil {
		return Config{}, err
	}
	if cfg.MaxQueue, err = positiveInt(envMaxQueue, cfg.MaxQueue); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(envRelaxInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%s: invalid duration %q", envRelaxInterval, v)
		}
		cfg.RelaxInterval = d
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel converts a level name to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level { return parseLogLevel(s) }

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
