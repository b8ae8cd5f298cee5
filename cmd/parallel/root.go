package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seantiz/parallel/internal/api"
	"github.com/seantiz/parallel/internal/config"
	"github.com/seantiz/parallel/internal/engine"
	"github.com/seantiz/parallel/internal/process"
	"github.com/seantiz/parallel/internal/scheduler"
	"github.com/seantiz/parallel/internal/store"
	"github.com/seantiz/parallel/internal/task"
)

// codecEnv tells parallel-task which codec the payload was written with.
const codecEnv = "PARALLEL_TASK_CODEC"

// globalFlags override the environment configuration when set.
type globalFlags struct {
	taskBin     string
	interpreter string
	listen      string
	db          string
	logLevel    string
	codec       string
	concurrency int
	maxQueue    int
	relax       time.Duration
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := newBareRootCmd(&g)
	root.AddCommand(newRunCmd(&g), newStreamCmd(&g))
	return root
}

// newBareRootCmd builds the root command and its persistent flags, bound
// to g, without subcommands.
func newBareRootCmd(g *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "parallel",
		Short: "Run tasks in parallel child processes",
		Long: `parallel runs tasks, each in its own OS process, under a scheduler that
caps how many run at once and how many are queued. Results of every run
are kept in a SQLite history and can be watched through an HTTP status
server.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.taskBin, "task-bin", "", "task entry point (env PARALLEL_TASK_BIN)")
	pf.StringVar(&g.interpreter, "interpreter", "", "interpreter to run the entry point with; empty runs it directly (env PARALLEL_INTERPRETER)")
	pf.StringVar(&g.listen, "listen", "", "status server address; empty disables it (env PARALLEL_LISTEN_ADDR)")
	pf.StringVar(&g.db, "db", "", "run history database; empty disables history (env PARALLEL_DB_PATH)")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error (env PARALLEL_LOG_LEVEL)")
	pf.StringVar(&g.codec, "codec", task.CodecJSON, "task payload codec: json or yaml")
	pf.IntVarP(&g.concurrency, "concurrency", "c", 0, "maximum running processes (env PARALLEL_CONCURRENCY)")
	pf.IntVar(&g.maxQueue, "max-queue", 0, "maximum queued processes (env PARALLEL_MAX_QUEUE)")
	pf.DurationVar(&g.relax, "relax", 0, "polling interval (env PARALLEL_RELAX_INTERVAL)")

	return root
}

// app holds what a command needs to drive sleeper tasks.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	engine *engine.Engine
	codec  task.Codec[*task.Sleeper]

	db         *store.SQLiteStore
	stopServer context.CancelFunc
	serverDone chan error
}

// resolveConfig applies the flags that were set on top of the environment.
func resolveConfig(cmd *cobra.Command, g *globalFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("task-bin") {
		cfg.TaskBin = g.taskBin
	}
	if flags.Changed("interpreter") {
		cfg.Interpreter = g.interpreter
	}
	if flags.Changed("listen") {
		cfg.ListenAddr = g.listen
	}
	if flags.Changed("db") {
		cfg.DBPath = g.db
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = config.ParseLogLevel(g.logLevel)
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = g.concurrency
	}
	if flags.Changed("max-queue") {
		cfg.MaxQueue = g.maxQueue
	}
	if flags.Changed("relax") {
		cfg.RelaxInterval = g.relax
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, g *globalFlags) (*app, error) {
	cfg, err := resolveConfig(cmd, g)
	if err != nil {
		return nil, err
	}

	codec, err := task.ByName[*task.Sleeper](g.codec)
	if err != nil {
		return nil, err
	}

	taskBin, err := resolveTaskBin(cfg.TaskBin)
	if err != nil {
		return nil, err
	}
	cfg.TaskBin = taskBin

	logger := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	a := &app{cfg: cfg, logger: logger, codec: codec}

	var history store.Store
	if cfg.DBPath != "" {
		db, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.db = db
		history = db
	}

	eng, err := engine.New(history, logger,
		scheduler.WithConcurrencyLimit(cfg.Concurrency),
		scheduler.WithMaxQueueLength(cfg.MaxQueue),
		scheduler.WithRelaxInterval(cfg.RelaxInterval),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = eng

	if cfg.ListenAddr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		a.stopServer = cancel
		a.serverDone = make(chan error, 1)
		srv := api.NewServer(cfg.ListenAddr, eng, logger)
		go func() { a.serverDone <- srv.Run(ctx) }()
	}

	logger.Info("parallel: starting",
		"task_bin", cfg.TaskBin,
		"concurrency", cfg.Concurrency,
		"max_queue", cfg.MaxQueue,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
	)
	return a, nil
}

// resolveTaskBin looks bare names up in PATH.
func resolveTaskBin(bin string) (string, error) {
	if bin == "" {
		return "", errors.New("no task entry point configured: set --task-bin or PARALLEL_TASK_BIN")
	}
	if strings.ContainsRune(bin, os.PathSeparator) {
		return bin, nil
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("find task entry point %q: %w", bin, err)
	}
	return path, nil
}

// newSleeper creates a handle running s through the task entry point.
func (a *app) newSleeper(s *task.Sleeper) (*process.Handle[*task.Sleeper], error) {
	opts := []process.Option{
		process.WithCodec(a.codec),
		process.WithEnv(codecEnv + "=" + a.codec.Name()),
		process.WithLogger(a.logger),
	}
	if a.cfg.Interpreter != "" {
		opts = append(opts, process.WithInterpreter(a.cfg.Interpreter))
	} else {
		opts = append(opts, process.WithDirectExec())
	}
	if a.cfg.TempDir != "" {
		opts = append(opts, process.WithTempDir(a.cfg.TempDir))
	}

	h, err := process.NewHandle[*task.Sleeper](a.cfg.TaskBin, opts...)
	if err != nil {
		return nil, err
	}
	h.AttachTask(s)
	return h, nil
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Shutdown()
	}
	if a.stopServer != nil {
		a.stopServer()
		if err := <-a.serverDone; err != nil {
			a.logger.Error("status server", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close run history", "error", err)
		}
	}
}
