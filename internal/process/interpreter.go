package process

import (
	"fmt"
	"os"
	"os/exec"
)

// DefaultInterpreter is used when no interpreter is configured.
const DefaultInterpreter = "/bin/sh"

// Finder discovers an interpreter executable when the configured path is
// unusable.
type Finder interface {
	Find() (string, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func() (string, error)

// Find calls f.
func (f FinderFunc) Find() (string, error) { return f() }

// LookPath returns a Finder that searches PATH for the named executable.
func LookPath(name string) Finder {
	return FinderFunc(func() (string, error) {
		return exec.LookPath(name)
	})
}

// resolveInterpreter returns configured if it is executable, otherwise asks
// finder. A nil finder disables discovery.
func resolveInterpreter(configured string, finder Finder) (string, error) {
	if isExecutable(configured) {
		return configured, nil
	}
	if finder == nil {
		return "", fmt.Errorf("%w: interpreter %q is not executable", ErrConfiguration, configured)
	}

	found, err := finder.Find()
	if err != nil {
		return "", fmt.Errorf("%w: interpreter %q is not executable and discovery failed: %v", ErrConfiguration, configured, err)
	}
	if !isExecutable(found) {
		return "", fmt.Errorf("%w: discovered interpreter %q is not executable", ErrConfiguration, found)
	}
	return found, nil
}

// isExecutable reports whether path names a regular file with any execute bit set.
func isExecutable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
