package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wonny/screener/internal/contracts"
)

// StrategyReport is the per-strategy part of a run
type StrategyReport struct {
	Key        string         `json:"key"`
	Name       string         `json:"name"`
	TotalCount int            `json:"total_count"`
	Returned   int            `json:"returned"`
	Signals    int            `json:"signals"`
	Skipped    map[string]int `json:"skipped,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Report summarizes one run. It is what gets cached as the last-run summary.
type Report struct {
	RunID        string           `json:"run_id"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
	CatalogHash  string           `json:"catalog_hash"`
	Strategies   []StrategyReport `json:"strategies"`
	TotalSignals int              `json:"total_signals"`

	Persisted     int    `json:"persisted"`
	PersistSkips  int    `json:"persist_skips"`
	PersistFailed int    `json:"persist_failed"`
	Evicted       int64  `json:"evicted"`
	PersistError  string `json:"persist_error,omitempty"`
	Policy        string `json:"policy,omitempty"`

	// Signals is the aggregated batch; not part of the cached summary
	Signals []contracts.Signal `json:"-"`
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedStrategies returns keys whose query failed
func (r *Report) FailedStrategies() []string {
	var keys []string
	for _, s := range r.Strategies {
		if s.Error != "" {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

var rule = strings.Repeat("=", 50)

// console writes the human-readable run summary
type console struct {
	w io.Writer
}

func (c console) printf(format string, args ...interface{}) {
	if c.w == nil {
		return
	}
	fmt.Fprintf(c.w, format, args...)
}

func (c console) header(started time.Time) {
	c.printf("TradingView Screener - %s\n", started.Format(time.RFC3339))
	c.printf("%s\n", rule)
}

func (c console) strategy(s StrategyReport) {
	c.printf("\nScanning: %s\n", s.Name)
	if s.Error != "" {
		c.printf("  Error running screener for %s: %s\n", s.Key, s.Error)
		return
	}
	c.printf("  %s: %d total matches, returning top %d\n", s.Name, s.TotalCount, s.Returned)
}

func (c console) totals(r *Report) {
	c.printf("\n%s\n", rule)
	c.printf("Total signals found: %d\n", r.TotalSignals)
}

func (c console) persisted(r *Report) {
	if r.PersistError != "" {
		c.printf("ERROR: %s\n", r.PersistError)
		return
	}
	c.printf("Saved %d signals to database", r.Persisted)
	if r.PersistSkips > 0 || r.PersistFailed > 0 {
		c.printf(" (%d already recorded today, %d failed)", r.PersistSkips, r.PersistFailed)
	}
	c.printf("\n")
}

func (c console) summary(r *Report) {
	counts := contracts.CountByStrategy(r.Signals)

	c.printf("\nSummary by strategy:\n")
	for _, s := range r.Strategies {
		c.printf("  %s: %d signals\n", s.Name, counts[s.Key])
	}
}
