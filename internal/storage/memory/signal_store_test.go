package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/storage"
	"github.com/wonny/screener/pkg/logger"
)

var day1 = time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC)

func signal(symbol, key string, price float64) contracts.Signal {
	return contracts.Signal{
		Symbol:       symbol,
		StrategyKey:  key,
		StrategyName: "RSI Mean Reversion",
		Price:        price,
		Indicators:   map[string]interface{}{"RSI": 31.2, "volume": 1.2e6},
	}
}

func clockAt(t time.Time) storage.WriterOption {
	return storage.WithClock(func() time.Time { return t })
}

func TestPersist_WritesAll(t *testing.T) {
	store := NewSignalStore()
	w := storage.NewWriter(store, logger.NewNop(), clockAt(day1))

	out := w.Persist(context.Background(), []contracts.Signal{
		signal("AAPL", "rsi_mean_reversion", 50),
		signal("KO", "rsi_mean_reversion", 61.456),
		signal("AAPL", "macd_momentum", 50),
	})

	require.NoError(t, out.Err)
	assert.Equal(t, 3, out.Attempted)
	assert.Equal(t, 3, out.Written)
	assert.Equal(t, 0, out.Failed)

	recs := store.All()
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, day1, r.ScannedAt)
		assert.False(t, r.Processed)
		assert.Equal(t, "2026-03-10", r.Key().Day)
	}
	// price column is DECIMAL(10,2)
	assert.Equal(t, "KO", recs[2].Signal.Symbol)
	assert.Equal(t, 61.46, recs[2].Signal.Price)
}

func TestPersist_SkipPolicyDedupsWithinDay(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	first := storage.NewWriter(store, logger.NewNop(), storage.WithPolicy(storage.PolicySkip), clockAt(day1))
	out := first.Persist(ctx, []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 50)})
	require.Equal(t, 1, out.Written)

	later := storage.NewWriter(store, logger.NewNop(), storage.WithPolicy(storage.PolicySkip), clockAt(day1.Add(time.Hour)))
	out = later.Persist(ctx, []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 55)})

	assert.Equal(t, 0, out.Written)
	assert.Equal(t, 1, out.Skipped)
	recs := store.All()
	require.Len(t, recs, 1)
	assert.Equal(t, 50.0, recs[0].Signal.Price, "earlier row of the day is kept")
	assert.Equal(t, day1, recs[0].ScannedAt)
}

func TestPersist_OverwritePolicyUpdatesWithinDay(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	storage.NewWriter(store, logger.NewNop(), clockAt(day1)).
		Persist(ctx, []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 50)})

	later := day1.Add(time.Hour)
	s := signal("AAPL", "rsi_mean_reversion", 55)
	s.Indicators = map[string]interface{}{"RSI": 28.0}
	out := storage.NewWriter(store, logger.NewNop(), clockAt(later)).Persist(ctx, []contracts.Signal{s})

	assert.Equal(t, 1, out.Written)
	recs := store.All()
	require.Len(t, recs, 1, "still one row per (symbol, strategy, day)")
	assert.Equal(t, 55.0, recs[0].Signal.Price)
	assert.Equal(t, 28.0, recs[0].Signal.Indicators["RSI"])
	assert.Equal(t, later, recs[0].ScannedAt)
}

func TestPersist_NewDayIsNewRow(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	storage.NewWriter(store, logger.NewNop(), storage.WithPolicy(storage.PolicySkip), clockAt(day1)).
		Persist(ctx, []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 50)})
	out := storage.NewWriter(store, logger.NewNop(), storage.WithPolicy(storage.PolicySkip), clockAt(day1.Add(3*time.Hour))).
		Persist(ctx, []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 51)})

	// 21:30 + 3h crosses UTC midnight
	assert.Equal(t, 1, out.Written)
	assert.Equal(t, 2, store.Len())
}

func TestPersist_EvictsExpired(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	storage.NewWriter(store, logger.NewNop(), clockAt(day1.Add(-25*time.Hour))).
		Persist(ctx, []contracts.Signal{signal("OLD", "rsi_mean_reversion", 40)})
	storage.NewWriter(store, logger.NewNop(), clockAt(day1.Add(-23*time.Hour))).
		Persist(ctx, []contracts.Signal{signal("RECENT", "rsi_mean_reversion", 40)})

	out := storage.NewWriter(store, logger.NewNop(), clockAt(day1)).
		Persist(ctx, []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 50)})

	assert.Equal(t, int64(1), out.Evicted)
	symbols := []string{}
	for _, r := range store.All() {
		symbols = append(symbols, r.Signal.Symbol)
	}
	assert.ElementsMatch(t, []string{"RECENT", "AAPL"}, symbols)
}

func TestPersist_EmptyBatchStillEvicts(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	storage.NewWriter(store, logger.NewNop(), clockAt(day1.Add(-48*time.Hour))).
		Persist(ctx, []contracts.Signal{signal("OLD", "rsi_mean_reversion", 40)})

	out := storage.NewWriter(store, logger.NewNop(), clockAt(day1)).Persist(ctx, nil)

	assert.Equal(t, 0, out.Written)
	assert.Equal(t, int64(1), out.Evicted)
	assert.Equal(t, 0, store.Len())
}

func TestPersist_RecordFailureIsIsolated(t *testing.T) {
	store := NewSignalStore()

	out := storage.NewWriter(store, logger.NewNop(), clockAt(day1)).Persist(context.Background(), []contracts.Signal{
		signal("AAPL", "rsi_mean_reversion", 50),
		signal("WAYTOOLONGSYMBOLNAMEXYZ", "rsi_mean_reversion", 50),
		signal("KO", "rsi_mean_reversion", 61),
	})

	assert.Equal(t, 2, out.Written)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Records, 3)
	assert.ErrorIs(t, out.Records[1].Err, storage.ErrInvalidInput)
	assert.Equal(t, 2, store.Len())
}

// failingEvict wraps a store whose DeleteBefore always fails
type failingEvict struct {
	*SignalStore
}

func (f failingEvict) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("lock timeout")
}

func TestPersist_EvictionFailureDoesNotBlockWrites(t *testing.T) {
	store := NewSignalStore()

	out := storage.NewWriter(failingEvict{store}, logger.NewNop(), clockAt(day1)).
		Persist(context.Background(), []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 50)})

	assert.Error(t, out.EvictErr)
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, out.Written)
	assert.Equal(t, 1, store.Len())
}

// brokenSchema fails EnsureSchema
type brokenSchema struct {
	*SignalStore
}

func (b brokenSchema) EnsureSchema(context.Context) error {
	return errors.New("permission denied")
}

func TestPersist_SchemaFailureWritesNothing(t *testing.T) {
	store := NewSignalStore()

	out := storage.NewWriter(brokenSchema{store}, logger.NewNop(), clockAt(day1)).
		Persist(context.Background(), []contracts.Signal{signal("AAPL", "rsi_mean_reversion", 50)})

	assert.Error(t, out.Err)
	assert.Equal(t, 0, out.Written)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 0, store.Len())
}

func TestPersist_NilBackend(t *testing.T) {
	out := storage.NewWriter(nil, logger.NewNop()).Persist(context.Background(), []contracts.Signal{signal("AAPL", "k", 50)})

	assert.ErrorIs(t, out.Err, storage.ErrNotConfigured)
	assert.Equal(t, 0, out.Written)
}

func TestWriter_Evict(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	storage.NewWriter(store, logger.NewNop(), clockAt(day1.Add(-30*time.Hour))).
		Persist(ctx, []contracts.Signal{signal("OLD", "rsi_mean_reversion", 40)})

	n, err := storage.NewWriter(store, logger.NewNop(), clockAt(day1), storage.WithRetention(48*time.Hour)).Evict(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "within 48h retention")

	n, err = storage.NewWriter(store, logger.NewNop(), clockAt(day1)).Evict(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
