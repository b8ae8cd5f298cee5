//go:build unix

package process

import (
	"errors"
	"os"
	"syscall"
)

// detachedAttr puts the child in a new session so it has no controlling
// terminal and survives terminal signals sent to the controller.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// signalTerminate sends SIGTERM to the child's process group, which includes
// anything an interpreter started on its behalf. A child that already exited
// is left alone.
func signalTerminate(w *waiter) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.exiting {
		return nil
	}
	if err := w.proc.Signal(syscall.Signal(0)); errors.Is(err, os.ErrProcessDone) {
		return nil
	}

	err := syscall.Kill(-w.pid, syscall.SIGTERM)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// exitStatus converts a wait result into a shell-style exit code: the exit
// status for normal exits, 128+signal for signal deaths.
func exitStatus(state *os.ProcessState, waitErr error) int {
	if state == nil {
		if waitErr != nil {
			return -1
		}
		return 0
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
