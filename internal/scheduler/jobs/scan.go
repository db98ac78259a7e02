package jobs

import (
	"context"
	"errors"

	"github.com/wonny/screener/internal/pipeline"
	"github.com/wonny/screener/pkg/logger"
)

// Runner is the part of the orchestrator the job needs
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// ScanJob runs the full screener once per tick
type ScanJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a new scan job
func NewScanJob(runner Runner, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "screener_scan"
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one screener pass.
// Strategy and store failures are inside the report; they do not fail the job.
func (j *ScanJob) Run(ctx context.Context) error {
	report, err := j.runner.Run(ctx)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		j.logger.Warn("Another screener run holds the lock, skipping tick")
		return err
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"signals":   report.TotalSignals,
		"persisted": report.Persisted,
		"failed":    len(report.FailedStrategies()),
	}).Info("Scheduled scan finished")

	return nil
}
