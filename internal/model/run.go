package model

import "time"

// Run status constants.
const (
	StatusRunning    = "running"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusTerminated = "terminated"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusRunning: {
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusTerminated: true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsTerminal reports whether status is a final run status.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusTerminated
}

// FinalStatus derives the terminal status of a run from how its process ended.
func FinalStatus(terminated bool, exitCode int, syncErr error) string {
	switch {
	case terminated:
		return StatusTerminated
	case exitCode != 0 || syncErr != nil:
		return StatusFailed
	default:
		return StatusCompleted
	}
}

// Run is the historical record of one task execution attempt. It mirrors a
// synced process handle and is never used to re-admit work.
type Run struct {
	ID          string     `json:"id"`
	EntryPoint  string     `json:"entry_point"`
	Status      string     `json:"status"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	Output      string     `json:"output,omitempty"`
	ErrorOutput string     `json:"error_output,omitempty"`
	Error       string     `json:"error,omitempty"`
	DurationMS  *int       `json:"duration_ms,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}
