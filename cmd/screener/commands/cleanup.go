package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cleanupCmd evicts expired signals without scanning
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "보존기간 지난 시그널 삭제",
	Long: `SCREENER_RETENTION(기본 24h)보다 오래된 시그널을 삭제합니다.
스캔 없이 보존 정책만 적용할 때 사용합니다.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := newApp(ctx, appOptions{needsDB: true, noRedis: true})
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.writer.Evict(ctx)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d signals older than %s\n", removed, a.cfg.Screener.Retention)
	return nil
}
