package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/seantiz/parallel/internal/model"
	"github.com/seantiz/parallel/internal/task"
)

// Handle runs one task of type T in its own OS process. A handle is used for
// exactly one execution attempt.
type Handle[T task.Task[T]] struct {
	id          string
	entryPoint  string
	interpreter string
	direct      bool
	finder      Finder
	codec       task.Codec[T]
	tempDir     string
	env         []string
	logger      *slog.Logger

	task    T
	hasTask bool

	started    bool
	synced     bool
	terminated bool

	files    Artifacts
	waiter   *waiter
	spawnErr error

	output      string
	errorOutput string
	exitCode    int
	err         error
	startedAt   time.Time
	finishedAt  time.Time
}

// NewHandle creates a handle for entryPoint, which must exist.
func NewHandle[T task.Task[T]](entryPoint string, opts ...Option) (*Handle[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if entryPoint == "" {
		return nil, fmt.Errorf("%w: entry point is required", ErrConfiguration)
	}
	if _, err := os.Stat(entryPoint); err != nil {
		return nil, fmt.Errorf("%w: entry point %q: %v", ErrConfiguration, entryPoint, err)
	}

	var codec task.Codec[T] = task.JSONCodec[T]{}
	if o.codec != nil {
		c, ok := o.codec.(task.Codec[T])
		if !ok {
			return nil, fmt.Errorf("%w: codec %T does not encode %T", ErrConfiguration, o.codec, *new(T))
		}
		codec = c
	}

	id := model.NewID()
	return &Handle[T]{
		id:          id,
		entryPoint:  entryPoint,
		interpreter: o.interpreter,
		direct:      o.direct,
		finder:      o.resolveFinder(),
		codec:       codec,
		tempDir:     o.tempDir,
		env:         o.env,
		logger:      o.logger.With("process_id", id),
	}, nil
}

// AttachTask sets the task to run. It must be called before Start.
func (h *Handle[T]) AttachTask(t T) {
	h.task = t
	h.hasTask = true
}

// Start encodes the task and spawns the child process. A spawn failure is
// returned wrapped in ErrSpawn; the handle is then already finished with
// exit code 127.
func (h *Handle[T]) Start() error {
	if h.started {
		return ErrAlreadyStarted
	}
	if !h.hasTask {
		return ErrMissingTask
	}

	argv, err := h.command()
	if err != nil {
		return err
	}

	files, err := createArtifacts(h.tempDir, h.id)
	if err != nil {
		return err
	}
	if err := h.writePayload(files.Task); err != nil {
		_ = files.remove()
		return err
	}

	h.files = files
	h.started = true
	h.startedAt = time.Now()

	argv = append(argv, files.Task)
	w, err := spawn(argv, files, h.env)
	h.waiter = w
	if err != nil {
		h.spawnErr = fmt.Errorf("%w: %v", ErrSpawn, err)
		processSpawnFailures.Inc()
		h.logger.Error("spawn failed", "command", argv, "error", err)
		return h.spawnErr
	}

	h.logger.Debug("process started", "pid", w.pid, "command", argv)
	return nil
}

func (h *Handle[T]) command() ([]string, error) {
	if h.direct {
		return []string{h.entryPoint}, nil
	}
	interp, err := resolveInterpreter(h.interpreter, h.finder)
	if err != nil {
		return nil, err
	}
	return []string{interp, h.entryPoint}, nil
}

func (h *Handle[T]) writePayload(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open payload artifact: %w", err)
	}
	if err := h.codec.Encode(f, h.task); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close payload artifact: %w", err)
	}
	return nil
}

// IsFinished reports whether the child has exited. It never blocks.
func (h *Handle[T]) IsFinished() bool {
	if !h.started {
		return false
	}
	if h.synced {
		return true
	}
	return h.waiter.exited()
}

// IsRunning reports whether the handle was started and has not finished.
func (h *Handle[T]) IsRunning() bool {
	return h.started && !h.IsFinished()
}

// State returns the current lifecycle state.
func (h *Handle[T]) State() State {
	switch {
	case !h.started:
		return StateCreated
	case h.synced:
		return StateSynced
	case h.waiter.exited():
		return StateFinished
	default:
		return StateStarted
	}
}

// Sync collects the results of a finished child exactly once. It reports
// false when the handle is not finished or was already synced. A payload or
// exit code that cannot be decoded is returned as an error wrapping
// ErrCorruptArtifact, but the handle is still synced and its artifacts are
// removed.
func (h *Handle[T]) Sync() (bool, error) {
	if h.synced || !h.IsFinished() {
		return false, nil
	}

	var errs []error
	if h.spawnErr != nil {
		errs = append(errs, h.spawnErr)
	}

	if err := h.syncTask(); err != nil {
		errs = append(errs, fmt.Errorf("%w: payload: %v", ErrCorruptArtifact, err))
	}

	if data, err := os.ReadFile(h.files.Stdout); err == nil {
		h.output = string(data)
	} else {
		errs = append(errs, fmt.Errorf("read stdout artifact: %w", err))
	}
	if data, err := os.ReadFile(h.files.Stderr); err == nil {
		h.errorOutput = string(data)
	} else {
		errs = append(errs, fmt.Errorf("read stderr artifact: %w", err))
	}

	code, err := readExitCode(h.files.ExitCode)
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: exit code: %v", ErrCorruptArtifact, err))
	}
	h.exitCode = code

	if err := h.files.remove(); err != nil {
		h.logger.Warn("failed to remove artifacts", "error", err)
	}

	h.finishedAt = h.waiter.exitedAt
	h.waiter = nil
	h.synced = true
	h.err = errors.Join(errs...)

	outcome := model.FinalStatus(h.terminated, h.exitCode, h.err)
	processRunsTotal.WithLabelValues(outcome).Inc()
	processRunSeconds.Observe(h.finishedAt.Sub(h.startedAt).Seconds())

	h.logger.Debug("process synced", "exit_code", h.exitCode, "outcome", outcome)
	return true, h.err
}

func (h *Handle[T]) syncTask() error {
	f, err := os.Open(h.files.Task)
	if err != nil {
		return err
	}
	defer f.Close()

	decoded, err := h.codec.Decode(f)
	if err != nil {
		return err
	}
	h.task.SyncWith(decoded)
	return nil
}

// Terminate sends SIGTERM to a running child. It does not wait: the handle
// becomes finished once the child has actually exited. Terminating a handle
// that is not running is a no-op.
func (h *Handle[T]) Terminate() error {
	if !h.IsRunning() {
		return nil
	}
	h.terminated = true
	if err := signalTerminate(h.waiter); err != nil {
		return fmt.Errorf("terminate process %d: %w", h.waiter.pid, err)
	}
	h.logger.Debug("sent SIGTERM", "pid", h.waiter.pid)
	return nil
}

// ID returns the handle's unique identifier.
func (h *Handle[T]) ID() string { return h.id }

// EntryPoint returns the program the child runs.
func (h *Handle[T]) EntryPoint() string { return h.entryPoint }

// Task returns the attached task. After Sync it carries the child's results.
func (h *Handle[T]) Task() T { return h.task }

// Output returns the child's stdout. Empty before Sync.
func (h *Handle[T]) Output() string { return h.output }

// ErrorOutput returns the child's stderr. Empty before Sync.
func (h *Handle[T]) ErrorOutput() string { return h.errorOutput }

// ExitCode returns the child's exit code, or 0 before Sync. Signal deaths
// are reported as 128+signal; -1 means the code could not be read.
func (h *Handle[T]) ExitCode() int { return h.exitCode }

// Err returns the failure recorded by Sync, including spawn failures.
func (h *Handle[T]) Err() error { return h.err }

// WasStarted reports whether Start was called successfully or failed to
// spawn. Either way the handle will not be started again.
func (h *Handle[T]) WasStarted() bool { return h.started }

// WasSynced reports whether Sync has collected the child's results.
func (h *Handle[T]) WasSynced() bool { return h.synced }

// Terminated reports whether Terminate signalled the child.
func (h *Handle[T]) Terminated() bool { return h.terminated }

// StartedAt returns when the child was spawned.
func (h *Handle[T]) StartedAt() time.Time { return h.startedAt }

// FinishedAt returns when the child exited. Zero before Sync.
func (h *Handle[T]) FinishedAt() time.Time { return h.finishedAt }

// Artifacts returns the temporary file paths. They no longer exist after Sync.
func (h *Handle[T]) Artifacts() Artifacts { return h.files }
