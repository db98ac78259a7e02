package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/pipeline"
	"github.com/wonny/screener/internal/strategy"
)

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://screener:s3cret@db:5432/signals?sslmode=disable", "postgres://screener:xxxxx@db:5432/signals?sslmode=disable"},
		{"postgres://screener@db:5432/signals", "postgres://screener@db:5432/signals"},
		{"host=db user=screener", "host=db user=screener"},
	}

	for _, tt := range tests {
		got := maskPassword(tt.in)
		assert.Equal(t, tt.want, got)
		assert.NotContains(t, got, "s3cret")
	}
}

func TestFormatSkips(t *testing.T) {
	assert.Equal(t, "", formatSkips(nil))
	assert.Equal(t, ", skipped no_symbol=1 price_out_of_band=3",
		formatSkips(map[string]int{"price_out_of_band": 3, "no_symbol": 1}))
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"scan", "strategies", "scheduler", "cleanup", "signals", "status", "test-db"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotNil(t, scanCmd.Flags().Lookup("dry-run"))
}

func TestCheckStrategyKey(t *testing.T) {
	catalog := strategy.Default()

	assert.NoError(t, checkStrategyKey(catalog, ""))
	assert.NoError(t, checkStrategyKey(catalog, "macd_momentum"))

	err := checkStrategyKey(catalog, "golden_cross")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown strategy "golden_cross"`)
	assert.Contains(t, err.Error(), "rsi_stochastic_oversold, adx_trend_pullback")
}

func TestNewApp_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SCREENER_STRATEGY_FILE", "")

	_, err := newApp(context.Background(), appOptions{needsDB: true, noRedis: true})
	assert.ErrorIs(t, err, pipeline.ErrNoDatabase)
}
