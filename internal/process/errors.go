package process

import "errors"

var (
	// ErrConfiguration is returned when the entry point is missing or the
	// interpreter cannot be resolved.
	ErrConfiguration = errors.New("process configuration error")

	// ErrAlreadyStarted is returned by Start on a handle that was already started.
	ErrAlreadyStarted = errors.New("process can be started only once")

	// ErrMissingTask is returned by Start when no task was attached.
	ErrMissingTask = errors.New("process can not be started without a task")

	// ErrSpawn is returned by Start when the OS refused to create the process.
	// The handle is still considered started and finishes immediately.
	ErrSpawn = errors.New("spawn process")

	// ErrCorruptArtifact is reported by Sync when the payload or exit code
	// file left by the child could not be decoded.
	ErrCorruptArtifact = errors.New("corrupt process artifact")
)
