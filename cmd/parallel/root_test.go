package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/parallel/internal/config"
	"github.com/seantiz/parallel/internal/task"
)

// resolvedConfig executes args against a root command with an inspect
// subcommand and returns the configuration it resolved.
func resolvedConfig(t *testing.T, args ...string) config.Config {
	t.Helper()

	var (
		g   globalFlags
		cfg config.Config
	)
	root := newBareRootCmd(&g)
	root.AddCommand(&cobra.Command{
		Use: "inspect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = resolveConfig(cmd, &g)
			return err
		},
	})
	root.SetArgs(append([]string{"inspect"}, args...))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.Execute())
	return cfg
}

func TestResolveConfigUsesEnvironment(t *testing.T) {
	t.Setenv("PARALLEL_CONCURRENCY", "3")
	t.Setenv("PARALLEL_DB_PATH", "from-env.db")
	t.Setenv("PARALLEL_LOG_LEVEL", "warn")

	cfg := resolvedConfig(t)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "from-env.db", cfg.DBPath)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestResolveConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PARALLEL_CONCURRENCY", "3")
	t.Setenv("PARALLEL_DB_PATH", "from-env.db")
	t.Setenv("PARALLEL_TASK_BIN", "from-env")

	cfg := resolvedConfig(t,
		"-c", "7",
		"--max-queue", "20",
		"--relax", "5ms",
		"--db", "",
		"--task-bin", "/opt/task",
		"--interpreter", "/bin/sh",
		"--log-level", "debug",
	)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, 20, cfg.MaxQueue)
	assert.Equal(t, 5*time.Millisecond, cfg.RelaxInterval)
	assert.Equal(t, "", cfg.DBPath)
	assert.Equal(t, "/opt/task", cfg.TaskBin)
	assert.Equal(t, "/bin/sh", cfg.Interpreter)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestResolveTaskBin(t *testing.T) {
	_, err := resolveTaskBin("")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "task")
	got, err := resolveTaskBin(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = resolveTaskBin("parallel-task-that-does-not-exist")
	require.Error(t, err)

	sh, err := resolveTaskBin("sh")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(sh))
}

func TestRunRequiresDurations(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--task-bin", "/bin/true", "--db", ""})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--durations")
}

func TestNewSleeperHandle(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "parallel-task")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PARALLEL_DB_PATH", "")
	t.Setenv("PARALLEL_TASK_BIN", bin)

	var g globalFlags
	root := newBareRootCmd(&g)
	var a *app
	root.AddCommand(&cobra.Command{
		Use: "inspect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = newApp(cmd, &g)
			return err
		},
	})
	root.SetArgs([]string{"inspect", "--codec", "yaml"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.Execute())
	t.Cleanup(a.close)

	assert.Nil(t, a.db)
	assert.Equal(t, task.CodecYAML, a.codec.Name())

	h, err := a.newSleeper(task.NewSleeper("one", time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, bin, h.EntryPoint())
	assert.Equal(t, "one", h.Task().Label)
	assert.False(t, h.WasStarted())
}
