package task

import (
	"errors"
	"os"
	"time"
)

// Sleeper is a built-in task that sleeps for Duration. It is the payload run
// by cmd/parallel-task and is handy for exercising the scheduler.
type Sleeper struct {
	Label    string        `json:"label" yaml:"label"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	// FailWith makes Run return an error with this message after sleeping.
	FailWith string `json:"fail_with,omitempty" yaml:"fail_with,omitempty"`

	Ran        bool      `json:"ran" yaml:"ran"`
	PID        int       `json:"pid,omitempty" yaml:"pid,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

var _ Task[*Sleeper] = (*Sleeper)(nil)

// NewSleeper creates a Sleeper for the given duration.
func NewSleeper(label string, d time.Duration) *Sleeper {
	return &Sleeper{Label: label, Duration: d}
}

// Run sleeps for Duration and records when and where it ran.
func (s *Sleeper) Run() error {
	s.PID = os.Getpid()
	s.StartedAt = time.Now().UTC()
	time.Sleep(s.Duration)
	s.FinishedAt = time.Now().UTC()
	s.Ran = true
	if s.FailWith != "" {
		return errors.New(s.FailWith)
	}
	return nil
}

// SyncWith copies the fields set by Run from other.
func (s *Sleeper) SyncWith(other *Sleeper) {
	if other == nil {
		return
	}
	s.Ran = other.Ran
	s.PID = other.PID
	s.StartedAt = other.StartedAt
	s.FinishedAt = other.FinishedAt
}

// Elapsed returns how long Run took in the child, or zero if it never ran.
func (s *Sleeper) Elapsed() time.Duration {
	if !s.Ran {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
