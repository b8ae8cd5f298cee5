package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envListenAddr, envLogLevel, envConcurrency, envMaxQueue,
		envRelaxInterval, envInterpreter, envTaskBin, envTempDir,
	} {
		t.Setenv(key, "")
	}
	// An empty PARALLEL_DB_PATH disables history, so unset it entirely.
	t.Setenv(envDBPath, "")
	os.Unsetenv(envDBPath)
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != "" {
		t.Errorf("ListenAddr = %q, want empty", cfg.ListenAddr)
	}
	if cfg.DBPath != defaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.Concurrency != defaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, defaultConcurrency)
	}
	if cfg.MaxQueue != defaultMaxQueue {
		t.Errorf("MaxQueue = %d, want %d", cfg.MaxQueue, defaultMaxQueue)
	}
	if cfg.RelaxInterval != defaultRelaxInterval {
		t.Errorf("RelaxInterval = %v, want %v", cfg.RelaxInterval, defaultRelaxInterval)
	}
	if cfg.Interpreter != "" {
		t.Errorf("Interpreter = %q, want empty", cfg.Interpreter)
	}
	if cfg.TaskBin != defaultTaskBin {
		t.Errorf("TaskBin = %q, want %q", cfg.TaskBin, defaultTaskBin)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(envListenAddr, ":9090")
	t.Setenv(envDBPath, "/tmp/test.db")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envConcurrency, "2")
	t.Setenv(envMaxQueue, "8")
	t.Setenv(envRelaxInterval, "25ms")
	t.Setenv(envInterpreter, "/usr/bin/env")
	t.Setenv(envTaskBin, "/opt/parallel-task")
	t.Setenv(envTempDir, "/var/tmp")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/test.db")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.Concurrency != 2 || cfg.MaxQueue != 8 {
		t.Errorf("Concurrency, MaxQueue = %d, %d, want 2, 8", cfg.Concurrency, cfg.MaxQueue)
	}
	if cfg.RelaxInterval != 25*time.Millisecond {
		t.Errorf("RelaxInterval = %v, want 25ms", cfg.RelaxInterval)
	}
	if cfg.Interpreter != "/usr/bin/env" || cfg.TaskBin != "/opt/parallel-task" || cfg.TempDir != "/var/tmp" {
		t.Errorf("Interpreter, TaskBin, TempDir = %q, %q, %q", cfg.Interpreter, cfg.TaskBin, cfg.TempDir)
	}
}

func TestLoadEmptyDBPathDisablesHistory(t *testing.T) {
	clearEnv(t)
	t.Setenv(envDBPath, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "" {
		t.Errorf("DBPath = %q, want empty", cfg.DBPath)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{envConcurrency, "0"},
		{envConcurrency, "ten"},
		{envMaxQueue, "-3"},
		{envRelaxInterval, "soon"},
		{envRelaxInterval, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := parseLogLevel(tt.input)
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerOutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}

	logger.Info("test message", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("logger output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	for _, key := range []string{"time", "level", "msg"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("JSON output missing expected key %q", key)
		}
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}
