package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/logger"
)

// DefaultRetention is how long signals are kept
const DefaultRetention = 24 * time.Hour

// RecordOutcome is the result of writing one signal
type RecordOutcome struct {
	Symbol      string
	StrategyKey string
	Written     bool
	Err         error
}

// Outcome summarizes one Persist call
type Outcome struct {
	Attempted int
	Written   int
	Skipped   int // dropped by the skip policy
	Failed    int
	Evicted   int64
	EvictErr  error
	Err       error // batch-level failure (schema); nothing was written
	Records   []RecordOutcome
}

// Writer applies retention and dedup rules over a Backend
type Writer struct {
	backend   Backend
	policy    Policy
	retention time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithPolicy sets the conflict policy
func WithPolicy(p Policy) WriterOption {
	return func(w *Writer) { w.policy = p }
}

// WithRetention sets the eviction window
func WithRetention(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.retention = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// NewWriter creates a writer. Defaults: overwrite, 24h retention.
func NewWriter(backend Backend, log *logger.Logger, opts ...WriterOption) *Writer {
	w := &Writer{
		backend:   backend,
		policy:    PolicyOverwrite,
		retention: DefaultRetention,
		now:       time.Now,
		logger:    log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Policy returns the active conflict policy
func (w *Writer) Policy() Policy {
	return w.policy
}

// Evict removes records older than the retention window
func (w *Writer) Evict(ctx context.Context) (int64, error) {
	if w.backend == nil {
		return 0, ErrNotConfigured
	}
	if err := w.backend.EnsureSchema(ctx); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}

	cutoff := w.now().UTC().Add(-w.retention)
	n, err := w.backend.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evict before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}

// Persist stores a batch of signals.
//
// Order: ensure schema, evict expired rows, then insert each signal on its own.
// An eviction failure is logged and the write phase still runs.
// A failed record does not affect the others.
// ⭐ SSOT: 저장 규칙(보존기간, 일별 중복)은 여기서만 적용
func (w *Writer) Persist(ctx context.Context, signals []contracts.Signal) Outcome {
	out := Outcome{Attempted: len(signals)}

	if w.backend == nil {
		out.Err = ErrNotConfigured
		out.Failed = len(signals)
		return out
	}

	if err := w.backend.EnsureSchema(ctx); err != nil {
		out.Err = fmt.Errorf("ensure schema: %w", err)
		out.Failed = len(signals)
		w.logger.WithError(err).Error("Failed to ensure signal table")
		return out
	}

	now := w.now().UTC()
	cutoff := now.Add(-w.retention)

	evicted, err := w.backend.DeleteBefore(ctx, cutoff)
	if err != nil {
		out.EvictErr = err
		w.logger.WithError(err).WithField("cutoff", cutoff).Error("Failed to evict old signals, continuing with writes")
	} else {
		out.Evicted = evicted
		if evicted > 0 {
			w.logger.WithField("evicted", evicted).Debug("Evicted old signals")
		}
	}

	out.Records = make([]RecordOutcome, 0, len(signals))
	for _, s := range signals {
		ro := w.insert(ctx, s, now)
		out.Records = append(out.Records, ro)

		switch {
		case ro.Err != nil:
			out.Failed++
		case ro.Written:
			out.Written++
		default:
			out.Skipped++
		}
	}

	w.logger.WithFields(map[string]interface{}{
		"attempted": out.Attempted,
		"written":   out.Written,
		"skipped":   out.Skipped,
		"failed":    out.Failed,
		"policy":    string(w.policy),
	}).Info("Signals persisted")

	return out
}

func (w *Writer) insert(ctx context.Context, s contracts.Signal, now time.Time) RecordOutcome {
	ro := RecordOutcome{Symbol: s.Symbol, StrategyKey: s.StrategyKey}

	rec := NewRecord(s, now)
	if err := rec.Validate(); err != nil {
		ro.Err = err
		w.logRecordError(ro)
		return ro
	}

	written, err := w.backend.Insert(ctx, rec, w.policy)
	if err != nil {
		ro.Err = err
		w.logRecordError(ro)
		return ro
	}

	ro.Written = written
	return ro
}

func (w *Writer) logRecordError(ro RecordOutcome) {
	l := w.logger.WithError(ro.Err).WithFields(map[string]interface{}{
		"symbol":   ro.Symbol,
		"strategy": ro.StrategyKey,
	})
	if errors.Is(ro.Err, ErrSchemaMissing) {
		l.Error("Signal table missing")
		return
	}
	l.Warn("Error saving signal")
}
