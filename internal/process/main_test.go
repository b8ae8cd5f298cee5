package process

import (
	"os"
	"testing"

	"github.com/seantiz/parallel/internal/task"
)

const (
	childEnv      = "PARALLEL_TEST_CHILD"
	childCodecEnv = "PARALLEL_TEST_CHILD_CODEC"
)

// TestMain doubles as the entry point for child processes: when started with
// PARALLEL_TEST_CHILD=1 the test binary runs the child protocol for a
// task.Sleeper instead of the tests.
func TestMain(m *testing.M) {
	if os.Getenv(childEnv) == "1" {
		codec, err := task.ByName[*task.Sleeper](os.Getenv(childCodecEnv))
		if err != nil {
			os.Exit(ChildExitLoadFailed)
		}
		os.Exit(RunChild(codec, os.Args))
	}
	os.Exit(m.Run())
}

// newSleeperHandle returns a handle that runs s in a re-executed test binary.
func newSleeperHandle(t *testing.T, s *task.Sleeper, opts ...Option) *Handle[*task.Sleeper] {
	t.Helper()
	base := []Option{
		WithDirectExec(),
		WithEnv(childEnv + "=1"),
		WithTempDir(t.TempDir()),
	}
	h, err := NewHandle[*task.Sleeper](os.Args[0], append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	h.AttachTask(s)
	return h
}

// writeScript writes an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := t.TempDir() + "/entry.sh"
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}
