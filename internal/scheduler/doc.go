// Package scheduler drives a bounded FIFO collection of processes.
//
// A Scheduler admits processes up to a concurrency limit, syncs them once
// they exit and reports lifecycle events to its sinks. All control logic
// runs on the caller's goroutine: parallelism comes only from the child
// processes themselves. Blocking helpers poll at a fixed relax interval.
//
// The scheduler is not safe for concurrent use, with two exceptions:
// Snapshot may be called from any goroutine, and StopInfiniteLoop may be
// called from any goroutine or from inside an event handler.
package scheduler
