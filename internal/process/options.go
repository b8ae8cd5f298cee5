package process

import (
	"log/slog"
	"path/filepath"
)

type options struct {
	interpreter string
	finder      Finder
	finderSet   bool
	direct      bool
	codec       any
	tempDir     string
	env         []string
	logger      *slog.Logger
}

// Option configures a Handle.
type Option func(*options)

func defaultOptions() options {
	return options{
		interpreter: DefaultInterpreter,
		logger:      slog.New(slog.DiscardHandler),
	}
}

// WithInterpreter sets the interpreter the entry point is run with.
func WithInterpreter(path string) Option {
	return func(o *options) {
		o.interpreter = path
	}
}

// WithFinder sets the collaborator used to discover the interpreter when the
// configured path is unusable. A nil finder disables discovery. By default
// PATH is searched for the base name of the configured interpreter.
func WithFinder(f Finder) Option {
	return func(o *options) {
		o.finder = f
		o.finderSet = true
	}
}

// WithDirectExec runs the entry point itself as the executable, for compiled
// entry points that need no interpreter.
func WithDirectExec() Option {
	return func(o *options) {
		o.direct = true
	}
}

// WithCodec sets the codec used to ship the task. It must be a
// task.Codec[T] for the handle's task type; the default is task.JSONCodec.
func WithCodec(codec any) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithTempDir sets the directory the temporary artifacts are created in.
// The default is os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the child's inherited environment.
func WithEnv(kv ...string) Option {
	return func(o *options) {
		o.env = append(o.env, kv...)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o *options) resolveFinder() Finder {
	if o.finderSet {
		return o.finder
	}
	return LookPath(filepath.Base(o.interpreter))
}
