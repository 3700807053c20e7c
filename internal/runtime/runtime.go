package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfgpkg "github.com/nkasozi/reconciler-backend/internal/config"
	"github.com/nkasozi/reconciler-backend/internal/metrics"
	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/repositories/amqppub"
	"github.com/nkasozi/reconciler-backend/internal/repositories/embedded"
	"github.com/nkasozi/reconciler-backend/internal/repositories/redistasks"
	"github.com/nkasozi/reconciler-backend/internal/repositories/taskhttp"
	"github.com/nkasozi/reconciler-backend/internal/services/chunks"
	queuesvc "github.com/nkasozi/reconciler-backend/internal/services/queues"
	"github.com/nkasozi/reconciler-backend/internal/services/tasks"
	pebblestore "github.com/nkasozi/reconciler-backend/internal/storage/pebble"
	"github.com/nkasozi/reconciler-backend/internal/workqueue"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        logpkg.Logger
	// Metrics defaults to a fresh registry.
	Metrics *metrics.Metrics
	// SweepEvery controls lease reclaim on embedded queues; zero means 1s.
	SweepEvery time.Duration
}

// Runtime owns the store and the services built on it.
type Runtime struct {
	db      *pebblestore.DB
	config  cfgpkg.Config
	logger  logpkg.Logger
	metrics *metrics.Metrics

	queueMgr *workqueue.Manager
	redis    *redistasks.Store
	amqp     *amqppub.Publisher

	chunks *chunks.Service
	tasks  *tasks.Service
	queues *queuesvc.Service
}

// Open initializes storage and the configured backends.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       m,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{db: db, config: cfg, logger: logger, metrics: m}
	if err := rt.wire(ctx, opts); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func (r *Runtime) wire(ctx context.Context, opts Options) error {
	cfg := r.config
	names := recon.Queues{Primary: cfg.Queues.PrimaryQueue, Comparison: cfg.Queues.ComparisonQueue}

	var (
		store  recon.TaskStore
		lookup recon.TaskMetadataLookup
	)
	switch cfg.Tasks.Backend {
	case cfgpkg.TaskBackendEmbedded:
		store = embedded.NewTaskStore(r.db)
	case cfgpkg.TaskBackendRedis:
		rs, err := redistasks.Dial(ctx, redistasks.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return err
		}
		r.redis = rs
		store = rs
	case cfgpkg.TaskBackendHTTP:
		lookup = taskhttp.New(cfg.Tasks.ServiceURL, cfg.Tasks.Timeout)
	}
	if store != nil {
		r.tasks = tasks.New(store, r.logger)
		lookup = recon.StoreLookup{Store: store}
	}

	var publisher recon.QueuePublisher
	switch cfg.Queues.Backend {
	case cfgpkg.QueueBackendEmbedded:
		r.queueMgr = workqueue.NewManager(r.db, cfg.Namespace, workqueue.Options{MaxAttempts: cfg.Queues.MaxAttempts})
		every := opts.SweepEvery
		if every <= 0 {
			every = time.Second
		}
		r.queueMgr.StartSweepers(every)
		publisher = embedded.NewPublisher(r.queueMgr)
		r.queues = queuesvc.New(r.queueMgr, names, cfg.Queues.LeaseMs, r.logger)
	case cfgpkg.QueueBackendAMQP:
		p, err := amqppub.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, []string{names.Primary, names.Comparison}, r.logger)
		if err != nil {
			return err
		}
		r.amqp = p
		publisher = p
	}

	r.chunks = chunks.New(lookup, publisher, names, chunks.WithLogger(r.logger), chunks.WithRecorder(r.metrics))
	r.logger.Info("runtime ready",
		logpkg.Str("namespace", cfg.Namespace),
		logpkg.Str("task_backend", cfg.Tasks.Backend),
		logpkg.Str("queue_backend", cfg.Queues.Backend),
	)
	return nil
}

// Close releases backends in reverse order of opening.
func (r *Runtime) Close() error {
	var errs []error
	if r.queueMgr != nil {
		r.queueMgr.Close()
	}
	if r.amqp != nil {
		errs = append(errs, r.amqp.Close())
	}
	if r.redis != nil {
		errs = append(errs, r.redis.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	return errors.Join(errs...)
}

// CheckHealth verifies the store and, when used, the Redis task store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	if err := it.Close(); err != nil {
		return err
	}
	if r.redis != nil {
		if err := r.redis.Ping(ctx, 2*time.Second); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Chunks is the upload pipeline.
func (r *Runtime) Chunks() *chunks.Service { return r.chunks }

// Tasks is nil when task metadata comes from a remote service.
func (r *Runtime) Tasks() *tasks.Service { return r.tasks }

// Queues is nil unless chunks are queued in the embedded store.
func (r *Runtime) Queues() *queuesvc.Service { return r.queues }

func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
