package dona

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/dona/internal/logging"
	loamAdapter "github.com/aretw0/dona/pkg/adapters/loam"
	"github.com/aretw0/dona/pkg/controller"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/persistence/middleware"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/aretw0/dona/pkg/tasks"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the high-level entry point for the dona library.
// It wires a Task Store to a repository and its middleware stack.
type App struct {
	tasks       *tasks.Store
	repo        ports.TaskRepository
	middlewares []middleware.Middleware
	storeOpts   []tasks.Option
	closers     []io.Closer
	registerer  prometheus.Registerer
	encryption  *middleware.EncryptionConfig
	logger      *slog.Logger
	unsubscribe func()
	Name        string
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithRepository injects a custom repository, bypassing the default Loam initialization.
func WithRepository(repo ports.TaskRepository) Option {
	return func(a *App) {
		a.repo = repo
	}
}

// WithLogger sets a custom structured logger. Repository calls are logged through it.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithMiddleware adds repository middleware. The first one listed is the outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mws...)
	}
}

// WithMetrics records repository and task metrics into reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(a *App) {
		a.registerer = reg
	}
}

// WithEncryption seals task titles at rest.
func WithEncryption(cfg middleware.EncryptionConfig) Option {
	return func(a *App) {
		a.encryption = &cfg
	}
}

// WithStoreOptions forwards options to the Task Store (clock, locker, title limit).
func WithStoreOptions(opts ...tasks.Option) Option {
	return func(a *App) {
		a.storeOpts = append(a.storeOpts, opts...)
	}
}

// WithCloser registers a resource released by Close, e.g. a database handle.
func WithCloser(c io.Closer) Option {
	return func(a *App) {
		a.closers = append(a.closers, c)
	}
}

// New initializes a new App.
// By default, it uses a Loam repository at the given path.
// If WithRepository is provided, dataDir can be empty and Loam is skipped.
func New(dataDir string, opts ...Option) (*App, error) {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		app.logger = logging.NewNop()
	}

	if app.repo == nil {
		if dataDir == "" {
			return nil, errors.New("dataDir is required when no custom repository is provided")
		}

		absPath, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		app.Name = filepath.Base(absPath)

		store, err := loamAdapter.Open(absPath)
		if err != nil {
			return nil, err
		}
		app.repo = store
	} else if dataDir != "" {
		app.Name = filepath.Base(dataDir)
	}

	if app.Name != "" {
		app.logger = app.logger.With("list", app.Name)
	}

	// Outermost first: log, then measure, then user middleware, encryption closest to storage.
	stack := []middleware.Middleware{middleware.NewLoggingMiddleware(app.logger)}
	if app.registerer != nil {
		stack = append(stack, middleware.NewMetricsMiddleware(middleware.NewMetrics(app.registerer)))
	}
	stack = append(stack, app.middlewares...)
	if app.encryption != nil {
		enc, err := middleware.NewEncryptionMiddleware(*app.encryption)
		if err != nil {
			return nil, err
		}
		stack = append(stack, enc)
	}

	storeOpts := append([]tasks.Option{tasks.WithLogger(app.logger)}, app.storeOpts...)
	app.tasks = tasks.NewStore(middleware.Chain(app.repo, stack...), storeOpts...)

	if app.registerer != nil {
		if err := app.registerTaskMetrics(); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// registerTaskMetrics exposes the live task count and a change counter.
func (a *App) registerTaskMetrics() error {
	changes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dona_task_changes_total",
		Help: "Committed task changes by type",
	}, []string{"type"})

	count := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dona_tasks",
		Help: "Number of tasks currently stored",
	}, func() float64 {
		all, err := a.tasks.List(context.Background())
		if err != nil {
			a.logger.Warn("Failed to count tasks", "err", err)
			return 0
		}
		return float64(len(all))
	})

	for _, c := range []prometheus.Collector{changes, count} {
		if err := a.registerer.Register(c); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	a.unsubscribe = a.tasks.Subscribe(func(evt domain.ChangeEvent) {
		changes.WithLabelValues(string(evt.Type)).Inc()
	})
	return nil
}

// Tasks returns the Task Store.
func (a *App) Tasks() *tasks.Store {
	return a.tasks
}

// Controller builds a presentation controller over the Task Store.
func (a *App) Controller(theme domain.Theme) *controller.Controller {
	return controller.New(a.tasks,
		controller.WithTheme(theme),
		controller.WithLogger(a.logger),
	)
}

// Logger returns the logger the App was configured with.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Close releases the registered resources.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
