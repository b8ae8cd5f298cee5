package scheduler

import (
	"log/slog"
	"time"
)

// Defaults applied by New.
const (
	DefaultConcurrencyLimit = 10
	DefaultMaxQueueLength   = 100
	DefaultRelaxInterval    = 100 * time.Millisecond
)

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithConcurrencyLimit sets how many processes may run at once.
func WithConcurrencyLimit(n int) Option {
	return func(s *Scheduler) error { return s.SetConcurrencyLimit(n) }
}

// WithMaxQueueLength sets how many processes the scheduler may hold.
func WithMaxQueueLength(n int) Option {
	return func(s *Scheduler) error { return s.SetMaxQueueLength(n) }
}

// WithRelaxInterval sets the sleep between polling passes.
func WithRelaxInterval(d time.Duration) Option {
	return func(s *Scheduler) error { return s.SetRelaxInterval(d) }
}

// WithSink registers an event sink. It may be given more than once.
func WithSink(sink Sink) Option {
	return func(s *Scheduler) error {
		s.AddSink(sink)
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}
