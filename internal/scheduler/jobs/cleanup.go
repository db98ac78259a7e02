package jobs

import (
	"context"

	"github.com/wonny/screener/pkg/logger"
)

// Evictor removes expired signals
type Evictor interface {
	Evict(ctx context.Context) (int64, error)
}

// SignalCleanupJob keeps the signal table inside the retention window
// between scans
type SignalCleanupJob struct {
	evictor Evictor
	logger  *logger.Logger
}

// NewSignalCleanupJob creates a new cleanup job
func NewSignalCleanupJob(evictor Evictor, log *logger.Logger) *SignalCleanupJob {
	return &SignalCleanupJob{
		evictor: evictor,
		logger:  log,
	}
}

// Name returns the job name
func (j *SignalCleanupJob) Name() string {
	return "signal_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *SignalCleanupJob) Schedule() string {
	return "0 0 * * * *"
}

// Run evicts expired signals
func (j *SignalCleanupJob) Run(ctx context.Context) error {
	count, err := j.evictor.Evict(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Signal cleanup completed")
	}

	return nil
}
