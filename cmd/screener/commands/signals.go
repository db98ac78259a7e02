package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/strategy"
)

var (
	signalsSince    time.Duration
	signalsStrategy string
)

// signalsCmd groups read-only signal queries
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "저장된 시그널 조회",
}

var signalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "최근 시그널 목록",
	Long: `최근 저장된 시그널을 전략/종목 순으로 출력합니다.

Example:
  go run ./cmd/screener signals list
  go run ./cmd/screener signals list --since 6h --strategy macd_momentum`,
	RunE: runSignalsList,
}

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.AddCommand(signalsListCmd)
	signalsListCmd.Flags().DurationVar(&signalsSince, "since", 24*time.Hour, "look-back window")
	signalsListCmd.Flags().StringVar(&signalsStrategy, "strategy", "", "only this strategy key")
}

// checkStrategyKey accepts an empty key (all strategies) or a catalog key
func checkStrategyKey(catalog *strategy.Catalog, key string) error {
	if key == "" {
		return nil
	}
	if _, ok := catalog.Lookup(key); !ok {
		return fmt.Errorf("unknown strategy %q (known: %s)", key, strings.Join(catalog.Keys(), ", "))
	}
	return nil
}

func runSignalsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx, appOptions{needsDB: true, noRedis: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := checkStrategyKey(a.catalog, signalsStrategy); err != nil {
		return err
	}

	recs, err := a.signals.ListSince(ctx, time.Now().UTC().Add(-signalsSince), signalsStrategy)
	if err != nil {
		return fmt.Errorf("list signals: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d signals in the last %s\n\n", len(recs), signalsSince)
	fmt.Fprintf(out, "%-28s %-8s %8s  %-20s %s\n", "STRATEGY", "SYMBOL", "PRICE", "SCANNED AT (UTC)", "PROCESSED")
	for _, rec := range recs {
		fmt.Fprintf(out, "%-28s %-8s %8.2f  %-20s %v\n",
			rec.Signal.StrategyKey,
			rec.Signal.Symbol,
			rec.Signal.Price,
			rec.ScannedAt.UTC().Format("2006-01-02 15:04:05"),
			rec.Processed,
		)
	}

	return nil
}
