package scheduler

import "time"

// Stats is a point-in-time view of a scheduler.
type Stats struct {
	Held             int       `json:"held"`
	Pending          int       `json:"pending"`
	Running          int       `json:"running"`
	Synced           int       `json:"synced"`
	FreeSlots        int       `json:"free_slots"`
	ConcurrencyLimit int       `json:"concurrency_limit"`
	MaxQueueLength   int       `json:"max_queue_length"`
	StartedTotal     int       `json:"started_total"`
	FinishedTotal    int       `json:"finished_total"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Snapshot returns the stats published after the most recent change. It is
// safe to call from any goroutine.
func (s *Scheduler) Snapshot() Stats {
	if st := s.stats.Load(); st != nil {
		return *st
	}
	return Stats{}
}

func (s *Scheduler) publish() {
	st := &Stats{
		Held:             len(s.processes),
		FreeSlots:        s.CountFreeSlots(),
		ConcurrencyLimit: s.concurrencyLimit,
		MaxQueueLength:   s.maxQueueLength,
		StartedTotal:     s.startedTotal,
		FinishedTotal:    s.finishedTotal,
		UpdatedAt:        time.Now().UTC(),
	}
	for _, p := range s.processes {
		switch {
		case !p.WasStarted():
			st.Pending++
		case p.WasSynced():
			st.Synced++
		case p.IsRunning():
			st.Running++
		}
	}
	s.stats.Store(st)

	schedulerHeldHandles.Set(float64(st.Held))
	schedulerRunningProcesses.Set(float64(st.Running))
}
