package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/pipeline"
)

var dryRun bool

// scanCmd runs every strategy once and stores the signals
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "전체 전략 스캔 1회 실행",
	Long: `카탈로그의 모든 전략을 순서대로 스캔하고 시그널을 저장합니다.

이 명령어는:
- 전략별 스캐너 쿼리 1회 (실패해도 다음 전략 계속)
- 가격 범위 재검증 후 시그널 정규화
- 24시간 지난 시그널 삭제 후 일괄 저장
- 전략별 요약 출력

DATABASE_URL이 없으면 저장만 건너뛰고 정상 종료합니다.

Example:
  go run ./cmd/screener scan
  go run ./cmd/screener scan --dry-run`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "store signals in memory and print them instead of writing to the database")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{dryRun: dryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	report, err := a.orchestrator(out).Run(ctx)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		a.log.Warn("Another screener run is in progress, exiting")
		fmt.Fprintln(out, "Another screener run is in progress; nothing to do.")
		return nil
	}
	if err != nil {
		return err
	}

	if a.dryStore != nil {
		fmt.Fprintf(out, "\nDry run: %d signals held in memory\n", a.dryStore.Len())
		for _, rec := range a.dryStore.All() {
			fmt.Fprintf(out, "  %-28s %-8s %8.2f\n", rec.Signal.StrategyKey, rec.Signal.Symbol, rec.Signal.Price)
		}
	}

	a.log.WithField("run_id", report.RunID).Debug("Scan command finished")
	return nil
}
