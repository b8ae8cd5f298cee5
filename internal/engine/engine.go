package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/seantiz/parallel/internal/model"
	"github.com/seantiz/parallel/internal/scheduler"
	"github.com/seantiz/parallel/internal/store"
)

// storeTimeout bounds each run history write.
const storeTimeout = 5 * time.Second

// Result is implemented by processes that expose their outcome after sync.
// *process.Handle[T] satisfies it for every task type.
type Result interface {
	EntryPoint() string
	ExitCode() int
	Output() string
	ErrorOutput() string
	Terminated() bool
	StartedAt() time.Time
	FinishedAt() time.Time
	Err() error
}

// Engine owns a scheduler whose events are logged, recorded as run history
// and streamed through an EventBroker.
type Engine struct {
	sched  *scheduler.Scheduler
	store  store.Store
	logger *slog.Logger
	broker *EventBroker
}

// New creates an engine and its scheduler. The engine's own sink is
// registered before any sink passed in opts. s may be nil to disable run
// history.
func New(s store.Store, logger *slog.Logger, opts ...scheduler.Option) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		store:  s,
		logger: logger,
		broker: NewEventBroker(),
	}

	all := append([]scheduler.Option{
		scheduler.WithLogger(logger),
		scheduler.WithSink(engineSink{e}),
	}, opts...)
	sched, err := scheduler.New(all...)
	if err != nil {
		return nil, err
	}
	e.sched = sched
	return e, nil
}

// Scheduler returns the engine's scheduler.
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }

// Broker returns the engine's event broker for SSE subscription.
func (e *Engine) Broker() *EventBroker { return e.broker }

// Store returns the run history store, or nil if history is disabled.
func (e *Engine) Store() store.Store { return e.store }

// Shutdown closes every event stream. It does not touch running processes.
func (e *Engine) Shutdown() { e.broker.CloseAll() }

func (e *Engine) processStarted(p scheduler.Process) {
	now := time.Now().UTC()
	e.logger.Info("process started", "event", scheduler.EventProcessStarted.String(), "process_id", p.ID())

	// Only processes exposing their outcome are recorded as runs.
	if r, ok := p.(Result); ok && e.store != nil {
		run := &model.Run{
			ID:         p.ID(),
			EntryPoint: r.EntryPoint(),
			Status:     model.StatusRunning,
			CreatedAt:  now,
			StartedAt:  &now,
		}
		if started := r.StartedAt(); !started.IsZero() {
			started = started.UTC()
			run.StartedAt = &started
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := e.store.CreateRun(ctx, run); err != nil {
			e.logger.Error("failed to record run", "process_id", p.ID(), "error", err)
		}
	}

	e.broker.Publish(p.ID(), Message{
		Event:     scheduler.EventProcessStarted.String(),
		ProcessID: p.ID(),
		Status:    model.StatusRunning,
		Time:      now,
	})
}

func (e *Engine) processFinished(p scheduler.Process) {
	now := time.Now().UTC()
	msg := Message{
		Event:     scheduler.EventProcessFinished.String(),
		ProcessID: p.ID(),
		Time:      now,
	}

	r, ok := p.(Result)
	if !ok {
		e.logger.Info("process finished", "event", msg.Event, "process_id", p.ID())
		e.broker.Publish(p.ID(), msg)
		e.broker.Close(p.ID())
		return
	}

	run := finishedRun(p.ID(), r)
	msg.Status = run.Status
	msg.ExitCode = run.ExitCode

	attrs := []any{
		"event", msg.Event,
		"process_id", p.ID(),
		"status", run.Status,
		"exit_code", *run.ExitCode,
	}
	if run.DurationMS != nil {
		attrs = append(attrs, "duration_ms", *run.DurationMS)
	}
	if run.Error != "" {
		attrs = append(attrs, "error", run.Error)
	}
	e.logger.Info("process finished", attrs...)

	if e.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := e.store.FinishRun(ctx, run); err != nil {
			e.logger.Error("failed to finish run", "process_id", p.ID(), "error", err)
		}
	}

	e.broker.Publish(p.ID(), msg)
	e.broker.Close(p.ID())
}

// finishedRun builds the final run record of a synced process.
func finishedRun(id string, r Result) *model.Run {
	exitCode := r.ExitCode()
	run := &model.Run{
		ID:          id,
		EntryPoint:  r.EntryPoint(),
		Status:      model.FinalStatus(r.Terminated(), exitCode, r.Err()),
		ExitCode:    &exitCode,
		Output:      r.Output(),
		ErrorOutput: r.ErrorOutput(),
	}
	if err := r.Err(); err != nil {
		run.Error = err.Error()
	}

	started, finished := r.StartedAt(), r.FinishedAt()
	if !started.IsZero() {
		s := started.UTC()
		run.StartedAt = &s
	}
	if !finished.IsZero() {
		f := finished.UTC()
		run.FinishedAt = &f
	}
	if !started.IsZero() && !finished.IsZero() {
		ms := int(finished.Sub(started).Milliseconds())
		run.DurationMS = &ms
	}
	return run
}

func (e *Engine) managerEvent(kind scheduler.EventKind) {
	// These fire on every loop pass; keep them out of the stream.
	if kind == scheduler.EventIteration || kind == scheduler.EventFreeSlotsAvailable {
		e.logger.Debug("scheduler event", "event", kind.String())
		return
	}
	e.logger.Info("scheduler event", "event", kind.String())
	e.broker.Publish(AllTopic, Message{Event: kind.String(), Time: time.Now().UTC()})
}

// engineSink adapts the engine to scheduler.Sink without exporting the
// callbacks on Engine.
type engineSink struct {
	e *Engine
}

var _ scheduler.Sink = engineSink{}

func (s engineSink) ProcessStarted(ev scheduler.ProcessEvent)  { s.e.processStarted(ev.Process) }
func (s engineSink) ProcessFinished(ev scheduler.ProcessEvent) { s.e.processFinished(ev.Process) }
func (s engineSink) Idle(ev scheduler.ManagerEvent)            { s.e.managerEvent(ev.Kind) }
func (s engineSink) Iteration(ev scheduler.ManagerEvent)       { s.e.managerEvent(ev.Kind) }
func (s engineSink) FreeSlotsAvailable(ev scheduler.ManagerEvent) {
	s.e.managerEvent(ev.Kind)
}
func (s engineSink) QueueIsFull(ev scheduler.ManagerEvent) { s.e.managerEvent(ev.Kind) }
