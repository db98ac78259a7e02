package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/screener/internal/contracts"
)

// Storage errors
var (
	// ErrNotConfigured is returned when no destination is configured
	ErrNotConfigured = errors.New("signal store not configured")

	// ErrInvalidInput is returned when a record cannot be stored as given
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaMissing means the destination table does not exist.
	// This is a configuration error, not a data error.
	ErrSchemaMissing = errors.New("signal table missing")
)

// Column limits of the signal table
const (
	MaxSymbolLen       = 20
	MaxStrategyKeyLen  = 100
	MaxStrategyNameLen = 200
)

// Policy decides what happens when (symbol, strategy, day) already has a row
type Policy string

const (
	// PolicyOverwrite replaces price, indicators and timestamp of the existing row
	PolicyOverwrite Policy = "overwrite"
	// PolicySkip leaves the earlier row of the day untouched
	PolicySkip Policy = "skip"
)

// ParsePolicy maps a config string to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyOverwrite, PolicySkip:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown conflict policy %q", s)
}

// Record is a Signal as stored
type Record struct {
	ID        int64
	Signal    contracts.Signal
	ScannedAt time.Time
	ScanDate  time.Time // UTC calendar day of ScannedAt; part of the uniqueness key
	Processed bool
}

// NewRecord stamps a signal with the write time
func NewRecord(s contracts.Signal, now time.Time) Record {
	now = now.UTC()
	s.ScannedAt = now
	s.Price = RoundPrice(s.Price)
	return Record{
		Signal:    s,
		ScannedAt: now,
		ScanDate:  DayOf(now),
		Processed: false,
	}
}

// Validate checks column limits before a write
func (r Record) Validate() error {
	s := r.Signal
	switch {
	case s.Symbol == "":
		return fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	case len(s.Symbol) > MaxSymbolLen:
		return fmt.Errorf("%w: symbol %q longer than %d", ErrInvalidInput, s.Symbol, MaxSymbolLen)
	case s.StrategyKey == "" || len(s.StrategyKey) > MaxStrategyKeyLen:
		return fmt.Errorf("%w: strategy key %q", ErrInvalidInput, s.StrategyKey)
	case len(s.StrategyName) > MaxStrategyNameLen:
		return fmt.Errorf("%w: strategy name longer than %d", ErrInvalidInput, MaxStrategyNameLen)
	case math.IsNaN(s.Price) || math.IsInf(s.Price, 0):
		return fmt.Errorf("%w: non-finite price", ErrInvalidInput)
	}
	return nil
}

// Key is the uniqueness scope of a record
type Key struct {
	Symbol      string
	StrategyKey string
	Day         string // YYYY-MM-DD (UTC)
}

// Key returns the (symbol, strategy, day) key
func (r Record) Key() Key {
	return Key{
		Symbol:      r.Signal.Symbol,
		StrategyKey: r.Signal.StrategyKey,
		Day:         r.ScanDate.Format("2006-01-02"),
	}
}

// DayOf truncates t to its UTC calendar date
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RoundPrice matches the DECIMAL(10,2) column
func RoundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

// Backend is a destination for signal records
// ⭐ SSOT: 시그널 저장소 인터페이스는 여기서만 정의
type Backend interface {
	// EnsureSchema creates the table and unique index if missing (idempotent)
	EnsureSchema(ctx context.Context) error

	// DeleteBefore removes every record scanned strictly before cutoff
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Insert writes one record as its own unit of work.
	// written is false when the skip policy dropped a conflicting record.
	Insert(ctx context.Context, rec Record, policy Policy) (written bool, err error)
}
