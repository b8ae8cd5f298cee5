package process

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// exitCodeSpawnFailed is recorded when the OS refused to start the child,
// matching the shell's "command not found" status.
const exitCodeSpawnFailed = 127

// waiter tracks one spawned child. Its result fields are written by the
// reaper goroutine before done is closed and must only be read after done is
// observed closed.
type waiter struct {
	pid  int
	proc *os.Process
	done chan struct{}

	// mu orders signals against reaping: once exiting is set the child may
	// be reaped and its pid reused, so it must not be signalled.
	mu      sync.Mutex
	exiting bool

	exitCode int
	exitedAt time.Time
	writeErr error
}

func (w *waiter) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// finish records the exit code and signals that the child is gone.
func (w *waiter) finish(exitPath string, code int) {
	w.exitCode = code
	w.exitedAt = time.Now()
	w.writeErr = writeExitCode(exitPath, code)
	close(w.done)
}

// spawn starts argv detached from the controlling terminal with its output
// redirected to the stdout and stderr artifacts. A reaper goroutine records
// the exit status into the exit code artifact once the child terminates.
// When the OS refuses to start the child the returned waiter is already
// finished with exitCodeSpawnFailed.
func spawn(argv []string, files Artifacts, env []string) (*waiter, error) {
	w := &waiter{done: make(chan struct{})}

	stdout, err := os.OpenFile(files.Stdout, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		w.finish(files.ExitCode, exitCodeSpawnFailed)
		return w, fmt.Errorf("open stdout artifact: %w", err)
	}
	defer stdout.Close()

	stderr, err := os.OpenFile(files.Stderr, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		w.finish(files.ExitCode, exitCodeSpawnFailed)
		return w, fmt.Errorf("open stderr artifact: %w", err)
	}
	defer stderr.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), env...)
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		w.finish(files.ExitCode, exitCodeSpawnFailed)
		return w, err
	}

	w.pid = cmd.Process.Pid
	w.proc = cmd.Process

	go func() {
		waitExited(w.pid)
		w.mu.Lock()
		w.exiting = true
		w.mu.Unlock()

		waitErr := cmd.Wait()
		w.finish(files.ExitCode, exitStatus(cmd.ProcessState, waitErr))
	}()

	return w, nil
}
