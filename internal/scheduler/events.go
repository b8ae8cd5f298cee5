package scheduler

// EventKind identifies one of the scheduler's lifecycle events.
type EventKind int

const (
	EventProcessStarted EventKind = iota
	EventProcessFinished
	EventIdle
	EventIteration
	EventFreeSlotsAvailable
	EventQueueIsFull
)

var eventNames = [...]string{
	EventProcessStarted:     "process.started",
	EventProcessFinished:    "process.finished",
	EventIdle:               "process_manager.idle",
	EventIteration:          "process_manager.iteration",
	EventFreeSlotsAvailable: "process_manager.free_slots_available",
	EventQueueIsFull:        "process_manager.queue_is_full",
}

// String returns the canonical dotted event name.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is implemented by ProcessEvent and ManagerEvent.
type Event interface {
	Name() string
}

// ProcessEvent is emitted when a single process starts or finishes.
type ProcessEvent struct {
	Kind      EventKind
	Scheduler *Scheduler
	Process   Process
}

// Name returns the canonical event name.
func (e ProcessEvent) Name() string { return e.Kind.String() }

// ManagerEvent is emitted for scheduler-wide conditions.
type ManagerEvent struct {
	Kind      EventKind
	Scheduler *Scheduler
}

// Name returns the canonical event name.
func (e ManagerEvent) Name() string { return e.Kind.String() }

// Sink receives scheduler events. Methods are called synchronously on the
// scheduler's goroutine, in sink registration order. Handlers may add and
// remove processes.
type Sink interface {
	ProcessStarted(ProcessEvent)
	ProcessFinished(ProcessEvent)
	Idle(ManagerEvent)
	Iteration(ManagerEvent)
	FreeSlotsAvailable(ManagerEvent)
	QueueIsFull(ManagerEvent)
}

// Hooks is a Sink built from optional callbacks. Nil callbacks are skipped.
type Hooks struct {
	OnProcessStarted     func(ProcessEvent)
	OnProcessFinished    func(ProcessEvent)
	OnIdle               func(ManagerEvent)
	OnIteration          func(ManagerEvent)
	OnFreeSlotsAvailable func(ManagerEvent)
	OnQueueIsFull        func(ManagerEvent)
}

var _ Sink = Hooks{}

// ProcessStarted calls OnProcessStarted if set.
func (h Hooks) ProcessStarted(e ProcessEvent) {
	if h.OnProcessStarted != nil {
		h.OnProcessStarted(e)
	}
}

// ProcessFinished calls OnProcessFinished if set.
func (h Hooks) ProcessFinished(e ProcessEvent) {
	if h.OnProcessFinished != nil {
		h.OnProcessFinished(e)
	}
}

// Idle calls OnIdle if set.
func (h Hooks) Idle(e ManagerEvent) {
	if h.OnIdle != nil {
		h.OnIdle(e)
	}
}

// Iteration calls OnIteration if set.
func (h Hooks) Iteration(e ManagerEvent) {
	if h.OnIteration != nil {
		h.OnIteration(e)
	}
}

// FreeSlotsAvailable calls OnFreeSlotsAvailable if set.
func (h Hooks) FreeSlotsAvailable(e ManagerEvent) {
	if h.OnFreeSlotsAvailable != nil {
		h.OnFreeSlotsAvailable(e)
	}
}

// QueueIsFull calls OnQueueIsFull if set.
func (h Hooks) QueueIsFull(e ManagerEvent) {
	if h.OnQueueIsFull != nil {
		h.OnQueueIsFull(e)
	}
}

func (s *Scheduler) emitProcess(kind EventKind, p Process) {
	schedulerEventsTotal.WithLabelValues(kind.String()).Inc()
	s.logger.Debug("event", "event", kind.String(), "process_id", p.ID())

	e := ProcessEvent{Kind: kind, Scheduler: s, Process: p}
	for _, sink := range s.sinks {
		switch kind {
		case EventProcessStarted:
			sink.ProcessStarted(e)
		case EventProcessFinished:
			sink.ProcessFinished(e)
		}
	}
}

func (s *Scheduler) emitManager(kind EventKind) {
	schedulerEventsTotal.WithLabelValues(kind.String()).Inc()
	s.logger.Debug("event", "event", kind.String())

	e := ManagerEvent{Kind: kind, Scheduler: s}
	for _, sink := range s.sinks {
		switch kind {
		case EventIdle:
			sink.Idle(e)
		case EventIteration:
			sink.Iteration(e)
		case EventFreeSlotsAvailable:
			sink.FreeSlotsAvailable(e)
		case EventQueueIsFull:
			sink.QueueIsFull(e)
		}
	}
}
