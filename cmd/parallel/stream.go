package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seantiz/parallel/internal/process"
	"github.com/seantiz/parallel/internal/scheduler"
	"github.com/seantiz/parallel/internal/task"
)

// producer feeds sleeper tasks into a scheduler running an infinite loop
// until count tasks were produced and all of them finished.
type producer struct {
	app      *app
	count    int
	duration time.Duration

	produced int
	finished int
	failed   int
	err      error
}

func (p *producer) hooks() scheduler.Hooks {
	return scheduler.Hooks{
		OnFreeSlotsAvailable: p.fill,
		OnProcessFinished:    p.collect,
		OnIdle:               p.stopWhenDone,
	}
}

func (p *producer) fill(e scheduler.ManagerEvent) {
	for p.err == nil && p.produced < p.count && e.Scheduler.CountFreeSlots() > 0 {
		h, err := p.app.newSleeper(task.NewSleeper(fmt.Sprintf("task-%d", p.produced+1), p.duration))
		if err != nil {
			p.err = err
			e.Scheduler.StopInfiniteLoop()
			return
		}
		if err := e.Scheduler.AddHandle(h); err != nil {
			p.err = err
			e.Scheduler.StopInfiniteLoop()
			return
		}
		p.produced++
	}
}

func (p *producer) collect(e scheduler.ProcessEvent) {
	p.finished++
	if h, ok := e.Process.(*process.Handle[*task.Sleeper]); ok && (h.ExitCode() != 0 || h.Err() != nil) {
		p.failed++
	}
	e.Scheduler.RemoveHandle(e.Process)
}

func (p *producer) stopWhenDone(e scheduler.ManagerEvent) {
	if p.produced == p.count {
		e.Scheduler.StopInfiniteLoop()
	}
}

func newStreamCmd(g *globalFlags) *cobra.Command {
	var (
		count    int
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Feed tasks through a bounded queue until count tasks ran",
		Example: `  parallel stream --count 50 --duration 2s --concurrency 4 --max-queue 8
  parallel stream --count 1000 --duration 100ms --listen :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.New("--count must be at least 1")
			}
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.close()

			p := &producer{app: a, count: count, duration: duration}
			sched := a.engine.Scheduler()
			sched.AddSink(p.hooks())

			begin := time.Now()
			err = sched.StartInfiniteLoop(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d tasks finished (%d failed) in %s\n",
				p.finished, count, p.failed, time.Since(begin).Round(time.Millisecond))

			if err := errors.Join(err, p.err); err != nil {
				return err
			}
			if p.failed > 0 {
				return fmt.Errorf("%d tasks failed", p.failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "number of tasks to produce")
	cmd.Flags().DurationVar(&duration, "duration", time.Second, "how long each task sleeps")
	return cmd
}
