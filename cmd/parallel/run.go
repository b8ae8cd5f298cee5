package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seantiz/parallel/internal/process"
	"github.com/seantiz/parallel/internal/task"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		durations []time.Duration
		all       bool
		failIndex []int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch of sleeper tasks and wait for all of them",
		Example: `  parallel run --durations 5s,7s,1s,9s
  parallel run --durations 5s,7s,1s,9s --concurrency 2
  parallel run --durations 1s,1s --all --codec yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(durations) == 0 {
				return errors.New("--durations is required")
			}
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.close()

			sched := a.engine.Scheduler()
			if len(durations) > sched.MaxQueueLength() {
				if err := sched.SetMaxQueueLength(len(durations)); err != nil {
					return err
				}
			}

			failing := make(map[int]bool, len(failIndex))
			for _, i := range failIndex {
				failing[i] = true
			}

			handles := make([]*process.Handle[*task.Sleeper], 0, len(durations))
			for i, d := range durations {
				s := task.NewSleeper(fmt.Sprintf("task-%d", i+1), d)
				if failing[i+1] {
					s.FailWith = "failed on request"
				}
				h, err := a.newSleeper(s)
				if err != nil {
					return err
				}
				if err := sched.AddHandle(h); err != nil {
					return err
				}
				handles = append(handles, h)
			}

			begin := time.Now()
			if all {
				err = sched.StartAllAndWait(cmd.Context())
			} else {
				err = sched.StartGraduallyAndWait(cmd.Context())
			}
			elapsed := time.Since(begin)

			printResults(cmd, handles)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d tasks finished in %s\n", len(handles), elapsed.Round(time.Millisecond))

			if err != nil {
				return err
			}
			for _, h := range handles {
				if h.ExitCode() != 0 || h.Err() != nil {
					return errors.New("some tasks failed")
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationSliceVar(&durations, "durations", nil, "comma separated task durations, one task each")
	cmd.Flags().BoolVar(&all, "all", false, "start every task at once, ignoring the concurrency limit")
	cmd.Flags().IntSliceVar(&failIndex, "fail", nil, "1-based positions of tasks that should fail")
	return cmd
}

func printResults(cmd *cobra.Command, handles []*process.Handle[*task.Sleeper]) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tDURATION\tSTATE\tEXIT\tPID\tRAN FOR\tID")
	for _, h := range handles {
		s := h.Task()
		exit := "-"
		if h.WasSynced() {
			exit = fmt.Sprint(h.ExitCode())
		}
		pid := "-"
		if s.PID != 0 {
			pid = fmt.Sprint(s.PID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Label, s.Duration, h.State(), exit, pid, s.Elapsed().Round(time.Millisecond), h.ID())
	}
	tw.Flush()
}
