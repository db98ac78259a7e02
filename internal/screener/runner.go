package screener

import (
	"context"
	"fmt"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/strategy"
	"github.com/wonny/screener/pkg/logger"
)

// Defaults for the only supported scope
const (
	DefaultMarket = "america"
	DefaultLimit  = 100
)

// Runner executes one strategy against the remote scanner
// ⭐ SSOT: 전략별 스캐너 실행은 여기서만
type Runner struct {
	scanner contracts.Scanner
	logger  *logger.Logger
	market  string
	limit   int
}

// NewRunner creates a runner for the america scope.
// A limit outside 1..DefaultLimit is clamped to DefaultLimit.
func NewRunner(scanner contracts.Scanner, log *logger.Logger, limit int) *Runner {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	return &Runner{
		scanner: scanner,
		logger:  log,
		market:  DefaultMarket,
		limit:   limit,
	}
}

// Result is the outcome of one strategy query. On failure Rows is empty
// and Err explains why; callers continue with the next strategy.
type Result struct {
	StrategyKey string
	TotalCount  int
	Rows        []contracts.Row
	Err         error
}

// OK reports whether the query succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Returned is the number of rows actually delivered (≤ limit)
func (r Result) Returned() int {
	return len(r.Rows)
}

// Query builds the scanner request for a definition
func (r *Runner) Query(def strategy.Definition) contracts.Query {
	return contracts.Query{
		Columns:    append([]string(nil), def.Columns...),
		Market:     r.market,
		Predicates: append([]strategy.Predicate(nil), def.Predicates...),
		Limit:      r.limit,
	}
}

// Run calls the scanner exactly once for def. Failures never escape:
// they are logged and returned inside Result.
func (r *Runner) Run(ctx context.Context, def strategy.Definition) (result Result) {
	result.StrategyKey = def.Key
	log := r.logger.WithStrategy(def.Key)

	defer func() {
		if p := recover(); p != nil {
			result = Result{StrategyKey: def.Key, Err: fmt.Errorf("scanner panic: %v", p)}
			log.WithError(result.Err).Error("Error running screener")
		}
	}()

	scan, err := r.scanner.Scan(ctx, r.Query(def))
	if err != nil {
		result.Err = err
		log.WithError(err).Error("Error running screener")
		return result
	}
	if scan == nil {
		scan = &contracts.ScanResult{}
	}

	rows := scan.Rows
	if len(rows) > r.limit {
		rows = rows[:r.limit]
	}

	result.TotalCount = scan.TotalCount
	result.Rows = rows

	log.WithFields(map[string]interface{}{
		"total_matches": scan.TotalCount,
		"returned":      len(rows),
	}).Info("Screener query completed")

	return result
}
