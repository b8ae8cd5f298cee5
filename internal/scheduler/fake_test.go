package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/parallel/internal/process"
)

// fakeProcess is an in-memory Process. It finishes when finish is called or,
// if duration is set, once duration has elapsed since Start.
type fakeProcess struct {
	id       string
	duration time.Duration

	startErr error
	syncErr  error

	started    bool
	startedAt  time.Time
	finished   bool
	synced     bool
	terminated bool
	syncCalls  int
}

var _ Process = (*fakeProcess)(nil)

func newFake(id string) *fakeProcess {
	return &fakeProcess{id: id}
}

func newTimedFake(id string, d time.Duration) *fakeProcess {
	return &fakeProcess{id: id, duration: d}
}

func newSpawnFailingFake(id string) *fakeProcess {
	return &fakeProcess{id: id, startErr: fmt.Errorf("%w: exec format error", process.ErrSpawn)}
}

func (f *fakeProcess) ID() string { return f.id }

func (f *fakeProcess) Start() error {
	if f.started {
		return process.ErrAlreadyStarted
	}
	if f.startErr != nil && !errors.Is(f.startErr, process.ErrSpawn) {
		return f.startErr
	}
	f.started = true
	f.startedAt = time.Now()
	if f.startErr != nil {
		f.finished = true
	}
	return f.startErr
}

func (f *fakeProcess) finish() { f.finished = true }

func (f *fakeProcess) WasStarted() bool { return f.started }

func (f *fakeProcess) IsFinished() bool {
	if !f.started {
		return false
	}
	if f.finished || f.synced {
		return true
	}
	return f.duration > 0 && time.Since(f.startedAt) >= f.duration
}

func (f *fakeProcess) IsRunning() bool { return f.started && !f.IsFinished() }

func (f *fakeProcess) Sync() (bool, error) {
	f.syncCalls++
	if f.synced || !f.IsFinished() {
		return false, nil
	}
	f.synced = true
	return true, f.syncErr
}

func (f *fakeProcess) WasSynced() bool { return f.synced }

func (f *fakeProcess) Terminate() error {
	if !f.IsRunning() {
		return nil
	}
	f.terminated = true
	f.finished = true
	return nil
}

// recorder is a Sink that records event names, with process ids for
// process events.
type recorder struct {
	events []string
}

var _ Sink = (*recorder)(nil)

func (r *recorder) ProcessStarted(e ProcessEvent) {
	r.events = append(r.events, e.Name()+" "+e.Process.ID())
}

func (r *recorder) ProcessFinished(e ProcessEvent) {
	r.events = append(r.events, e.Name()+" "+e.Process.ID())
}

func (r *recorder) Idle(e ManagerEvent)               { r.events = append(r.events, e.Name()) }
func (r *recorder) Iteration(e ManagerEvent)          { r.events = append(r.events, e.Name()) }
func (r *recorder) FreeSlotsAvailable(e ManagerEvent) { r.events = append(r.events, e.Name()) }
func (r *recorder) QueueIsFull(e ManagerEvent)        { r.events = append(r.events, e.Name()) }

func (r *recorder) count(name string) int {
	n := 0
	for _, e := range r.events {
		if e == name {
			n++
		}
	}
	return n
}
