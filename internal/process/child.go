package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seantiz/parallel/internal/task"
)

// Exit codes returned by RunChild.
const (
	ChildExitOK         = 0
	ChildExitRunFailed  = 1
	ChildExitLoadFailed = 2
)

// PayloadPath returns the payload path from a child's arguments. The path is
// always the final argument.
func PayloadPath(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("missing payload path argument")
	}
	return args[len(args)-1], nil
}

// LoadTask decodes the task stored at path.
func LoadTask[T any](codec task.Codec[T], path string) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open payload: %w", err)
	}
	defer f.Close()

	t, err := codec.Decode(f)
	if err != nil {
		return zero, err
	}
	return t, nil
}

// PersistTask encodes t back to path. The payload is replaced atomically so
// the controller never observes a partial write.
func PersistTask[T any](codec task.Codec[T], path string, t T) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create payload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := codec.Encode(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close payload: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace payload: %w", err)
	}
	return nil
}

// RunChild implements the entry-point side of the protocol: it loads the task
// from the payload path in args, runs it, writes the mutated task back and
// returns the exit code the entry point should exit with. The task is
// persisted even when Run fails so the controller can sync partial state.
// Errors are reported on stderr, which the controller captures.
func RunChild[T task.Task[T]](codec task.Codec[T], args []string) int {
	path, err := PayloadPath(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ChildExitLoadFailed
	}

	t, err := LoadTask(codec, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load task: %v\n", err)
		return ChildExitLoadFailed
	}

	code := ChildExitOK
	if err := t.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "run task: %v\n", err)
		code = ChildExitRunFailed
	}

	if err := PersistTask(codec, path, t); err != nil {
		fmt.Fprintf(os.Stderr, "persist task: %v\n", err)
		code = ChildExitRunFailed
	}
	return code
}
