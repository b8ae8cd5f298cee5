package process

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const artifactPrefix = "parallel_"

// Artifacts holds the paths of the temporary files shared with a child.
type Artifacts struct {
	Task     string
	Stdout   string
	Stderr   string
	ExitCode string
}

func (a Artifacts) paths() []string {
	return []string{a.Task, a.Stdout, a.Stderr, a.ExitCode}
}

// createArtifacts creates the four empty artifact files in dir.
func createArtifacts(dir, id string) (Artifacts, error) {
	var a Artifacts
	targets := []struct {
		kind string
		path *string
	}{
		{"task", &a.Task},
		{"out", &a.Stdout},
		{"error", &a.Stderr},
		{"exit", &a.ExitCode},
	}
	for _, t := range targets {
		f, err := os.CreateTemp(dir, artifactPrefix+id+"_"+t.kind+"_*")
		if err != nil {
			_ = a.remove()
			return Artifacts{}, fmt.Errorf("create %s artifact: %w", t.kind, err)
		}
		*t.path = f.Name()
		if err := f.Close(); err != nil {
			_ = a.remove()
			return Artifacts{}, fmt.Errorf("close %s artifact: %w", t.kind, err)
		}
	}
	return a, nil
}

// remove deletes every artifact that was created. Missing files are ignored.
func (a Artifacts) remove() error {
	var errs []error
	for _, p := range a.paths() {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeExitCode records code in the exit code artifact, newline terminated
// like `echo $?` would.
func writeExitCode(path string, code int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(code)+"\n"), 0o600)
}

func readExitCode(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return -1, errors.New("exit code artifact is empty")
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("parse exit code %q: %w", s, err)
	}
	return code, nil
}
