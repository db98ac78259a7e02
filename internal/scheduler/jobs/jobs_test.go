package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/screener/internal/pipeline"
	"github.com/wonny/screener/pkg/logger"
)

type fakeRunner struct {
	report *pipeline.Report
	err    error
}

func (f fakeRunner) Run(context.Context) (*pipeline.Report, error) {
	return f.report, f.err
}

func TestScanJob(t *testing.T) {
	job := NewScanJob(fakeRunner{report: &pipeline.Report{TotalSignals: 3}}, "0 30 21 * * 1-5", logger.NewNop())

	assert.Equal(t, "screener_scan", job.Name())
	assert.Equal(t, "0 30 21 * * 1-5", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))
}

func TestScanJob_PartialFailuresAreNotJobFailures(t *testing.T) {
	report := &pipeline.Report{
		Strategies:   []pipeline.StrategyReport{{Key: "a", Error: "timeout"}},
		PersistError: pipeline.ErrNoDatabase.Error(),
	}
	job := NewScanJob(fakeRunner{report: report}, "@daily", logger.NewNop())

	assert.NoError(t, job.Run(context.Background()))
}

func TestScanJob_LockHeld(t *testing.T) {
	job := NewScanJob(fakeRunner{err: pipeline.ErrRunInProgress}, "@daily", logger.NewNop())

	assert.ErrorIs(t, job.Run(context.Background()), pipeline.ErrRunInProgress)
}

type fakeEvictor struct {
	n   int64
	err error
}

func (f fakeEvictor) Evict(context.Context) (int64, error) { return f.n, f.err }

func TestSignalCleanupJob(t *testing.T) {
	job := NewSignalCleanupJob(fakeEvictor{n: 4}, logger.NewNop())
	assert.Equal(t, "signal_cleanup", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	job = NewSignalCleanupJob(fakeEvictor{err: errors.New("db gone")}, logger.NewNop())
	assert.Error(t, job.Run(context.Background()))
}
