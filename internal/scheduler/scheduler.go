package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/seantiz/parallel/internal/process"
)

// Process is the view of a process handle the scheduler drives.
// *process.Handle[T] satisfies it for every task type.
type Process interface {
	ID() string
	Start() error
	WasStarted() bool
	IsFinished() bool
	IsRunning() bool
	Sync() (bool, error)
	WasSynced() bool
	Terminate() error
}

// Scheduler admits processes in FIFO order under a concurrency limit and a
// queue length limit.
type Scheduler struct {
	processes        []Process
	concurrencyLimit int
	maxQueueLength   int
	relaxInterval    time.Duration
	sinks            []Sink
	logger           *slog.Logger

	background bool
	inTick     bool
	looping    atomic.Bool

	startedTotal  int
	finishedTotal int
	stats         atomic.Pointer[Stats]
}

// New creates a scheduler with the default limits, then applies opts.
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		concurrencyLimit: DefaultConcurrencyLimit,
		maxQueueLength:   DefaultMaxQueueLength,
		relaxInterval:    DefaultRelaxInterval,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.publish()
	return s, nil
}

// SetConcurrencyLimit changes how many processes may run at once. Processes
// already running are never preempted.
func (s *Scheduler) SetConcurrencyLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: concurrency limit must be at least 1, got %d", ErrInvalidConfig, n)
	}
	s.concurrencyLimit = n
	s.publish()
	return nil
}

// SetMaxQueueLength changes how many processes may be held. Lowering it
// below the current count evicts nothing; AddHandle fails until enough
// processes are removed.
func (s *Scheduler) SetMaxQueueLength(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: max queue length must be at least 1, got %d", ErrInvalidConfig, n)
	}
	s.maxQueueLength = n
	s.publish()
	return nil
}

// SetRelaxInterval changes the sleep between polling passes.
func (s *Scheduler) SetRelaxInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: relax interval must be positive, got %s", ErrInvalidConfig, d)
	}
	s.relaxInterval = d
	return nil
}

// AddSink registers an additional event sink.
func (s *Scheduler) AddSink(sink Sink) {
	if sink != nil {
		s.sinks = append(s.sinks, sink)
	}
}

// ConcurrencyLimit returns the maximum number of running processes.
func (s *Scheduler) ConcurrencyLimit() int { return s.concurrencyLimit }

// MaxQueueLength returns the maximum number of held processes.
func (s *Scheduler) MaxQueueLength() int { return s.maxQueueLength }

// RelaxInterval returns the pause between scheduling passes.
func (s *Scheduler) RelaxInterval() time.Duration { return s.relaxInterval }

// AddHandle appends p to the queue. The call that fills the queue emits
// queue_is_full.
func (s *Scheduler) AddHandle(p Process) error {
	if len(s.processes) >= s.maxQueueLength {
		return ErrQueueFull
	}
	s.processes = append(s.processes, p)
	s.publish()

	if len(s.processes) == s.maxQueueLength {
		s.emitManager(EventQueueIsFull)
	}
	return nil
}

// RemoveHandle removes p by identity, keeping the order of the rest. The
// underlying OS process is left alone. It reports whether p was held.
func (s *Scheduler) RemoveHandle(p Process) bool {
	i := slices.Index(s.processes, p)
	if i < 0 {
		return false
	}
	s.processes = slices.Delete(s.processes, i, i+1)
	s.publish()
	return true
}

// PruneSynced removes every synced process and returns how many were removed.
func (s *Scheduler) PruneSynced() int {
	before := len(s.processes)
	s.processes = slices.DeleteFunc(s.processes, Process.WasSynced)
	removed := before - len(s.processes)
	if removed > 0 {
		s.publish()
	}
	return removed
}

// Handles returns a copy of the held processes in queue order.
func (s *Scheduler) Handles() []Process {
	return slices.Clone(s.processes)
}

// Len returns the number of held processes.
func (s *Scheduler) Len() int { return len(s.processes) }

// CountRunningProcesses returns how many held processes are running.
func (s *Scheduler) CountRunningProcesses() int {
	n := 0
	for _, p := range s.processes {
		if p.IsRunning() {
			n++
		}
	}
	return n
}

// CountFreeSlots returns how many more processes the queue accepts.
func (s *Scheduler) CountFreeSlots() int {
	return max(0, s.maxQueueLength-len(s.processes))
}

// AllSynced reports whether every held process is synced. It is true for an
// empty scheduler.
func (s *Scheduler) AllSynced() bool {
	for _, p := range s.processes {
		if !p.WasSynced() {
			return false
		}
	}
	return true
}

// StartAll starts every process that was not started yet, ignoring the
// concurrency limit.
func (s *Scheduler) StartAll() error {
	for _, p := range slices.Clone(s.processes) {
		if p.WasStarted() || !s.holds(p) {
			continue
		}
		if _, err := s.start(p); err != nil {
			return err
		}
	}
	return nil
}

// StartWithinConcurrencyLimit starts processes in queue order until the
// number of running processes reaches the concurrency limit.
func (s *Scheduler) StartWithinConcurrencyLimit() error {
	running := s.CountRunningProcesses()
	for _, p := range slices.Clone(s.processes) {
		if running >= s.concurrencyLimit {
			break
		}
		if p.WasStarted() || !s.holds(p) {
			continue
		}
		started, err := s.start(p)
		if err != nil {
			return err
		}
		if started {
			running++
		}
	}
	return nil
}

// start starts p and emits started. It reports whether p is now running. A
// spawn failure is logged and swallowed: the process still counts as started
// and is already finished, so it is synced on the next pass.
func (s *Scheduler) start(p Process) (bool, error) {
	err := p.Start()
	spawnFailed := errors.Is(err, process.ErrSpawn)
	if err != nil && !spawnFailed {
		return false, fmt.Errorf("start process %s: %w", p.ID(), err)
	}
	if spawnFailed {
		s.logger.Error("process failed to spawn", "process_id", p.ID(), "error", err)
	}

	s.startedTotal++
	s.publish()
	s.emitProcess(EventProcessStarted, p)
	return !spawnFailed, nil
}

// holds reports whether p is still in the queue. Event handlers may remove
// processes while a pass iterates over its snapshot.
func (s *Scheduler) holds(p Process) bool {
	return slices.Contains(s.processes, p)
}

// SyncFinishedHandles syncs every finished process and emits finished for
// each one synced by this call.
func (s *Scheduler) SyncFinishedHandles() {
	for _, p := range slices.Clone(s.processes) {
		if p.IsFinished() && s.holds(p) {
			s.sync(p)
		}
	}
}

func (s *Scheduler) sync(p Process) {
	synced, err := p.Sync()
	if !synced {
		return
	}
	if err != nil {
		s.logger.Error("process synced with errors", "process_id", p.ID(), "error", err)
	}
	s.finishedTotal++
	s.publish()
	s.emitProcess(EventProcessFinished, p)
}

// OnTick runs one scheduling pass: sync finished processes, then fill free
// concurrency slots.
func (s *Scheduler) OnTick() error {
	s.SyncFinishedHandles()
	return s.StartWithinConcurrencyLimit()
}

// RunInBackground enables cooperative background mode: every call to Yield
// runs one scheduling pass.
func (s *Scheduler) RunInBackground() { s.background = true }

// StopInBackground disables cooperative background mode.
func (s *Scheduler) StopInBackground() { s.background = false }

// Yield is the host's yield point. In background mode it runs one
// scheduling pass; otherwise, and when called from inside an event handler,
// it does nothing.
func (s *Scheduler) Yield() error {
	if !s.background || s.inTick {
		return nil
	}
	s.inTick = true
	defer func() { s.inTick = false }()
	return s.OnTick()
}

// WaitForAll blocks until every held process is synced, backfilling free
// concurrency slots on every pass. Background mode is disabled. If ctx is
// cancelled, every running process is terminated and ctx.Err() is returned.
func (s *Scheduler) WaitForAll(ctx context.Context) error {
	s.StopInBackground()
	for {
		if err := s.OnTick(); err != nil {
			return err
		}
		if s.AllSynced() {
			return nil
		}
		if err := s.relax(ctx); err != nil {
			return err
		}
	}
}

// StartAllAndWait starts everything at once and waits for completion.
func (s *Scheduler) StartAllAndWait(ctx context.Context) error {
	if err := s.StartAll(); err != nil {
		return err
	}
	return s.WaitForAll(ctx)
}

// StartGraduallyAndWait starts within the concurrency limit and waits for
// completion.
func (s *Scheduler) StartGraduallyAndWait(ctx context.Context) error {
	if err := s.StartWithinConcurrencyLimit(); err != nil {
		return err
	}
	return s.WaitForAll(ctx)
}

// StartInfiniteLoop runs scheduling passes until StopInfiniteLoop is called,
// then waits for the remaining processes. Each pass syncs, emits idle when
// everything held is synced, fills free slots, emits iteration and, while
// the queue has room, free_slots_available. Handlers of those events are
// expected to feed new processes.
func (s *Scheduler) StartInfiniteLoop(ctx context.Context) error {
	s.looping.Store(true)
	defer s.looping.Store(false)

	for s.looping.Load() {
		s.SyncFinishedHandles()
		if s.AllSynced() {
			s.emitManager(EventIdle)
		}
		if err := s.StartWithinConcurrencyLimit(); err != nil {
			return err
		}
		s.emitManager(EventIteration)
		if len(s.processes) < s.maxQueueLength {
			s.emitManager(EventFreeSlotsAvailable)
		}

		if !s.looping.Load() {
			break
		}
		if err := s.relax(ctx); err != nil {
			return err
		}
	}
	return s.WaitForAll(ctx)
}

// StopInfiniteLoop makes StartInfiniteLoop return after its current pass.
func (s *Scheduler) StopInfiniteLoop() { s.looping.Store(false) }

// relax sleeps one relax interval. On cancellation it terminates everything
// and returns ctx.Err().
func (s *Scheduler) relax(ctx context.Context) error {
	t := time.NewTimer(s.relaxInterval)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler cancelled, terminating processes", "error", ctx.Err())
		if err := s.TerminateAll(); err != nil {
			s.logger.Error("terminate processes", "error", err)
		}
		return ctx.Err()
	}
}

// TerminateProcess signals p, waits for it to exit without a deadline, syncs
// it and emits finished. Processes that were never started are skipped.
func (s *Scheduler) TerminateProcess(p Process) error {
	if !p.WasStarted() {
		return nil
	}
	if err := p.Terminate(); err != nil {
		return fmt.Errorf("terminate process %s: %w", p.ID(), err)
	}
	for !p.IsFinished() {
		time.Sleep(s.relaxInterval)
	}
	s.sync(p)
	return nil
}

// TerminateAll terminates every held process.
func (s *Scheduler) TerminateAll() error {
	var errs []error
	for _, p := range slices.Clone(s.processes) {
		if err := s.TerminateProcess(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
