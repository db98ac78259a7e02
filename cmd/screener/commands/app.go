package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wonny/screener/internal/external/tradingview"
	"github.com/wonny/screener/internal/pipeline"
	"github.com/wonny/screener/internal/screener"
	"github.com/wonny/screener/internal/storage"
	"github.com/wonny/screener/internal/storage/memory"
	"github.com/wonny/screener/internal/storage/postgres"
	"github.com/wonny/screener/internal/strategy"
	"github.com/wonny/screener/pkg/config"
	"github.com/wonny/screener/pkg/database"
	"github.com/wonny/screener/pkg/httputil"
	"github.com/wonny/screener/pkg/logger"
	"github.com/wonny/screener/pkg/metrics"
	"github.com/wonny/screener/pkg/redis"
)

// app bundles the dependencies shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	catalog *strategy.Catalog

	db       *database.DB          // nil without DATABASE_URL
	signals  *postgres.SignalStore // nil without db
	dryStore *memory.SignalStore   // set by --dry-run
	writer   *storage.Writer       // nil when nothing can be persisted
	storeErr error                 // why writer is nil
	redis    *redis.Client
	metrics  *metrics.Recorder
}

type appOptions struct {
	dryRun  bool
	needsDB bool // fail instead of degrading when the DB is unavailable
	noRedis bool
}

// newApp loads config and wires dependencies.
// Only invalid configuration is fatal; a missing DB or Redis degrades.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	catalog, err := loadCatalog(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		catalog: catalog,
		redis:   redis.Disabled(),
		metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	policy, err := storage.ParsePolicy(cfg.Screener.ConflictPolicy)
	if err != nil {
		return nil, err
	}
	writerOpts := []storage.WriterOption{
		storage.WithPolicy(policy),
		storage.WithRetention(cfg.Screener.Retention),
	}

	switch {
	case opts.dryRun:
		a.dryStore = memory.NewSignalStore()
		a.writer = storage.NewWriter(a.dryStore, log, writerOpts...)

	case !cfg.Database.Configured():
		a.storeErr = pipeline.ErrNoDatabase
		if opts.needsDB {
			return nil, a.storeErr
		}

	default:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			if opts.needsDB {
				return nil, err
			}
			log.WithError(err).Error("Database unavailable, signals will not be persisted")
			a.storeErr = err
			break
		}
		a.db = db
		a.signals = postgres.NewSignalStore(db.Pool)
		a.writer = storage.NewWriter(a.signals, log, writerOpts...)
	}

	if !opts.noRedis && cfg.Redis.Enabled {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, running without lock and run history")
		} else {
			a.redis = rc
		}
	}

	return a, nil
}

func loadCatalog(cfg *config.Config, log *logger.Logger) (*strategy.Catalog, error) {
	catalog := strategy.Default()
	if cfg.Screener.StrategyFile != "" {
		c, err := strategy.LoadFile(cfg.Screener.StrategyFile)
		if err != nil {
			return nil, fmt.Errorf("load strategy file: %w", err)
		}
		catalog = c
		log.WithField("file", cfg.Screener.StrategyFile).Info("Loaded strategy catalog from file")
	}

	for _, w := range strategy.Warn(catalog) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	return catalog, nil
}

// orchestrator builds the scan pipeline writing its summary to out
func (a *app) orchestrator(out io.Writer) *pipeline.Orchestrator {
	httpClient := httputil.New(a.log, a.cfg.Screener.Timeout).WithRateLimit(a.cfg.Screener.RatePerSec)
	scanner := tradingview.NewClient(httpClient, a.log, a.cfg.Screener.BaseURL)
	runner := screener.NewRunner(scanner, a.log, a.cfg.Screener.Limit)

	opts := []pipeline.Option{
		pipeline.WithOutput(out),
		pipeline.WithRedis(a.redis),
		pipeline.WithMetrics(a.metrics),
	}
	if a.writer != nil {
		opts = append(opts, pipeline.WithWriter(a.writer))
	} else {
		opts = append(opts, pipeline.WithStoreError(a.storeErr))
	}

	return pipeline.New(a.catalog, runner, a.log, opts...)
}

// Close releases connections
func (a *app) Close() {
	a.db.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
