package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/pipeline"
)

// statusCmd shows the last cached run summary
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "마지막 실행 요약 조회",
	Long: `Redis에 캐시된 마지막 스캔 결과(24시간 보관)를 출력합니다.
REDIS_ENABLED=true 필요.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !a.redis.Enabled() {
		fmt.Fprintln(out, "Redis is disabled; no run history available (set REDIS_ENABLED=true)")
		return nil
	}

	report, found, err := pipeline.LastRun(ctx, a.redis)
	if err != nil {
		return fmt.Errorf("read last run: %w", err)
	}
	if !found {
		fmt.Fprintln(out, "No run recorded in the last 24h")
		return nil
	}

	fmt.Fprintf(out, "Last run:  %s (%s)\n", report.StartedAt.Format(time.RFC3339), report.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "Run ID:    %s\n", report.RunID)
	fmt.Fprintf(out, "Catalog:   %s\n", report.CatalogHash)
	fmt.Fprintf(out, "Signals:   %d found, %d persisted", report.TotalSignals, report.Persisted)
	if report.Policy != "" {
		fmt.Fprintf(out, " (policy %s)", report.Policy)
	}
	fmt.Fprintln(out)
	if report.PersistError != "" {
		fmt.Fprintf(out, "Persist:   %s\n", report.PersistError)
	}

	fmt.Fprintln(out, "\nStrategies:")
	for _, s := range report.Strategies {
		if s.Error != "" {
			fmt.Fprintf(out, "  ❌ %-28s %s\n", s.Key, s.Error)
			continue
		}
		fmt.Fprintf(out, "  ✅ %-28s %3d signals (%d/%d returned)%s\n", s.Key, s.Signals, s.Returned, s.TotalCount, formatSkips(s.Skipped))
	}

	return nil
}

func formatSkips(skipped map[string]int) string {
	if len(skipped) == 0 {
		return ""
	}
	reasons := make([]string, 0, len(skipped))
	for r := range skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	s := ", skipped"
	for _, r := range reasons {
		s += fmt.Sprintf(" %s=%d", r, skipped[r])
	}
	return s
}
