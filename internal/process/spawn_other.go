//go:build !unix

package process

import (
	"errors"
	"os"
	"syscall"
)

func detachedAttr() *syscall.SysProcAttr {
	return nil
}

func signalTerminate(w *waiter) error {
	err := w.proc.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func exitStatus(state *os.ProcessState, waitErr error) int {
	if state == nil {
		if waitErr != nil {
			return -1
		}
		return 0
	}
	return state.ExitCode()
}
