package scheduler

import (
	"context"
	"errors"
	"time"
)

// ErrJobRunning is recorded when a tick fires while the previous run is still going
var ErrJobRunning = errors.New("job already running")

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Six fields with seconds: "0 30 21 * * 1-5" (weekdays 21:30)
	//                          "@daily", "@hourly"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// tally accumulates run outcomes of one job for the shutdown/list stats
type tally struct {
	runs        int
	failures    int
	lastRun     time.Time
	lastSuccess time.Time
	lastFailure time.Time
}

func (t *tally) record(r JobResult) {
	t.runs++
	t.lastRun = r.StartTime
	if r.Success {
		t.lastSuccess = r.StartTime
		return
	}
	t.failures++
	t.lastFailure = r.StartTime
}

func (t *tally) stats(name, schedule string) JobStats {
	st := JobStats{
		JobName:      name,
		Schedule:     schedule,
		TotalRuns:    t.runs,
		SuccessCount: t.runs - t.failures,
		FailureCount: t.failures,
		LastRun:      timePtr(t.lastRun),
		LastSuccess:  timePtr(t.lastSuccess),
		LastFailure:  timePtr(t.lastFailure),
	}
	if t.runs > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(t.runs)
	}
	return st
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
