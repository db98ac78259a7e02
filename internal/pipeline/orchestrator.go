package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/screener"
	"github.com/wonny/screener/internal/storage"
	"github.com/wonny/screener/internal/strategy"
	"github.com/wonny/screener/pkg/logger"
	"github.com/wonny/screener/pkg/metrics"
	"github.com/wonny/screener/pkg/redis"
)

// ErrRunInProgress is returned when another run holds the scan lock
var ErrRunInProgress = errors.New("screener run already in progress")

// LockName is the Redis lock guarding a scan run
const LockName = "scan"

// LockTTL bounds how long a crashed run can block the next one
const LockTTL = 30 * time.Minute

// ErrNoDatabase is reported when no persistence destination is configured
var ErrNoDatabase = errors.New("DATABASE_URL not set")

// Orchestrator runs the whole catalog and persists the result
// ⭐ SSOT: 스크리너 실행 흐름은 여기서만
type Orchestrator struct {
	catalog *strategy.Catalog
	runner  *screener.Runner
	writer  *storage.Writer // nil: persistence not configured
	noStore error           // why writer is nil, if known
	lock    *redis.Lock
	cache   *redis.Cache
	metrics *metrics.Recorder
	out     console
	logger  *logger.Logger
	now     func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithWriter sets the signal writer
func WithWriter(w *storage.Writer) Option {
	return func(o *Orchestrator) { o.writer = w }
}

// WithStoreError records why no writer is available (e.g. connect failure)
func WithStoreError(err error) Option {
	return func(o *Orchestrator) { o.noStore = err }
}

// WithRedis enables the run lock and last-run cache
func WithRedis(client *redis.Client) Option {
	return func(o *Orchestrator) {
		o.lock = redis.NewLock(client, LockName, LockTTL)
		o.cache = redis.NewCache(client)
	}
}

// WithMetrics sets the Prometheus recorder
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithOutput sets where the console summary is written
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.out = console{w: w} }
}

// WithClock replaces time.Now for report timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator. Without WithWriter nothing is persisted.
func New(catalog *strategy.Catalog, runner *screener.Runner, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog: catalog,
		runner:  runner,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every strategy in catalog order, persists the aggregate once
// and prints the summary. Strategy and persistence failures end up in the
// report; only lock contention is returned as an error.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if o.lock != nil {
		ok, err := o.lock.Acquire(ctx)
		if err != nil {
			// Redis 장애 시에도 실행은 계속
			o.logger.WithError(err).Warn("Failed to acquire scan lock, running unguarded")
		} else if !ok {
			return nil, ErrRunInProgress
		} else {
			defer func() {
				if err := o.lock.Release(context.Background()); err != nil {
					o.logger.WithError(err).Warn("Failed to release scan lock")
				}
			}()
		}
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: o.now().UTC(),
	}

	hash, err := o.catalog.Hash()
	if err != nil {
		o.logger.WithError(err).Warn("Failed to hash strategy catalog")
	}
	report.CatalogHash = hash

	log := o.logger.WithFields(map[string]interface{}{
		"run_id":       report.RunID,
		"catalog_hash": hash,
		"strategies":   o.catalog.Len(),
	})
	log.Info("Screener run started")
	o.out.header(report.StartedAt)

	for _, def := range o.catalog.Definitions() {
		sr, signals := o.runStrategy(ctx, def)
		report.Strategies = append(report.Strategies, sr)
		report.Signals = append(report.Signals, signals...)
		o.out.strategy(sr)
	}

	report.TotalSignals = len(report.Signals)
	o.out.totals(report)

	o.persist(ctx, report)
	o.out.persisted(report)
	o.out.summary(report)

	report.FinishedAt = o.now().UTC()
	o.metrics.RecordDuration(report.Duration().Seconds())

	if o.cache != nil {
		if err := o.cache.Set(ctx, redis.LastRunKey, report, redis.TTLDaily); err != nil {
			log.WithError(err).Warn("Failed to cache run summary")
		}
	}

	log.WithFields(map[string]interface{}{
		"signals":   report.TotalSignals,
		"persisted": report.Persisted,
		"failed":    report.FailedStrategies(),
		"duration":  report.Duration().String(),
	}).Info("Screener run completed")

	return report, nil
}

// runStrategy queries one strategy and normalizes its rows
func (o *Orchestrator) runStrategy(ctx context.Context, def strategy.Definition) (StrategyReport, []contracts.Signal) {
	sr := StrategyReport{Key: def.Key, Name: def.Name}

	result := o.runner.Run(ctx, def)
	if !result.OK() {
		sr.Error = result.Err.Error()
		o.metrics.RecordError(metrics.ErrorScan)
		return sr, nil
	}

	sr.TotalCount = result.TotalCount
	sr.Returned = result.Returned()
	o.metrics.RecordScan(def.Key, sr.TotalCount, sr.Returned)

	signals := make([]contracts.Signal, 0, len(result.Rows))
	for _, row := range result.Rows {
		signal, reason := screener.Normalize(def, row)
		if reason != screener.Accepted {
			if sr.Skipped == nil {
				sr.Skipped = make(map[string]int)
			}
			sr.Skipped[string(reason)]++
			o.metrics.RecordSkipped(def.Key, string(reason))
			continue
		}
		signals = append(signals, signal)
	}

	sr.Signals = len(signals)
	o.metrics.RecordSignals(def.Key, sr.Signals)

	if len(sr.Skipped) > 0 {
		o.logger.WithStrategy(def.Key).WithField("skipped", sr.Skipped).Debug("Rows skipped by normalizer")
	}

	return sr, signals
}

// persist hands the whole batch to the writer in one call
func (o *Orchestrator) persist(ctx context.Context, report *Report) {
	if o.writer == nil {
		err := o.noStore
		if err == nil {
			err = ErrNoDatabase
		}
		report.PersistError = err.Error()
		o.metrics.RecordError(metrics.ErrorConfig)
		o.logger.WithError(err).WithField("signals", report.TotalSignals).Error("Signals not persisted")
		return
	}

	report.Policy = string(o.writer.Policy())
	outcome := o.writer.Persist(ctx, report.Signals)

	report.Persisted = outcome.Written
	report.PersistSkips = outcome.Skipped
	report.PersistFailed = outcome.Failed
	report.Evicted = outcome.Evicted

	switch {
	case outcome.Err != nil:
		report.PersistError = outcome.Err.Error()
		o.metrics.RecordError(metrics.ErrorPersist)
	default:
		for i := 0; i < outcome.Failed; i++ {
			o.metrics.RecordError(metrics.ErrorPersist)
		}
	}
	if outcome.EvictErr != nil {
		o.metrics.RecordError(metrics.ErrorEvict)
	}
	o.metrics.RecordPersisted(report.Policy, outcome.Written)
}

// LastRun returns the cached summary of the previous run
func LastRun(ctx context.Context, client *redis.Client) (*Report, bool, error) {
	var report Report
	found, err := redis.NewCache(client).Get(ctx, redis.LastRunKey, &report)
	if err != nil || !found {
		return nil, false, err
	}
	return &report, true, nil
}
