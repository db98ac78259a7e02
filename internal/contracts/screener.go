package contracts

import (
	"context"
	"time"

	"github.com/wonny/screener/internal/strategy"
)

// Row is one raw result row from the remote scanner: column name → scalar
type Row map[string]interface{}

// Query is a single request to the remote scanner
// ⭐ SSOT: 스캐너 요청 형식은 여기서만 정의
type Query struct {
	Columns    []string             `json:"columns"`
	Market     string               `json:"market"`
	Predicates []strategy.Predicate `json:"predicates"` // AND
	Limit      int                  `json:"limit"`
}

// ScanResult is the scanner's answer: total upstream matches plus at most Limit rows
type ScanResult struct {
	TotalCount int   `json:"total_count"`
	Rows       []Row `json:"rows"`
}

// Scanner executes queries against the remote filter service
type Scanner interface {
	Scan(ctx context.Context, q Query) (*ScanResult, error)
}

// Signal asserts that one instrument matched one strategy at a point in time
type Signal struct {
	Symbol       string                 `json:"symbol"`
	StrategyKey  string                 `json:"strategy_key"`
	StrategyName string                 `json:"strategy_name"`
	Price        float64                `json:"price"`
	Indicators   map[string]interface{} `json:"indicators"`
	ScannedAt    time.Time              `json:"scanned_at,omitempty"` // set by the store
}

// CountByStrategy tallies signals per strategy key
func CountByStrategy(signals []Signal) map[string]int {
	counts := make(map[string]int)
	for _, s := range signals {
		counts[s.StrategyKey]++
	}
	return counts
}
