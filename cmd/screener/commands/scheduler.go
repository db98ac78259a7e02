package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/api"
	"github.com/wonny/screener/internal/api/handlers"
	"github.com/wonny/screener/internal/scheduler"
	"github.com/wonny/screener/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작 (METRICS_ENABLED=true면 HTTP 서버도 시작)
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler run screener_scan`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- screener_scan: SCHEDULE_CRON (기본 평일 21:30 UTC, 미국장 마감 후)
- signal_cleanup: 매시간 (보존기간 지난 시그널 삭제, DB 설정 시)

실패한 작업은 재시도하지 않고 다음 스케줄에 다시 실행됩니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Screener Scheduler ===")

	ctx := context.Background()
	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	var server *api.Server
	if a.cfg.Metrics.Enabled {
		server = newAPIServer(a)
		go func() {
			if err := server.Start(); err != nil {
				a.log.WithError(err).Error("API server stopped")
			}
		}()
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	if server != nil {
		fmt.Printf("\nHTTP: :%s (/health, /metrics, /api/*)\n", a.cfg.Metrics.Port)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.WithError(err).Warn("API server shutdown failed")
		}
	}

	for name, stat := range sched.GetJobStats() {
		a.log.WithFields(map[string]interface{}{
			"job":     name,
			"runs":    stat.TotalRuns,
			"success": stat.SuccessRate,
		}).Info("Job statistics")
	}

	fmt.Println("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	fmt.Println("Registered jobs:")
	for name, stat := range sched.GetJobStats() {
		fmt.Printf("  - %-16s %s\n", name, stat.Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		fmt.Printf("❌ Job failed after %s: %s\n", result.Duration.Round(time.Millisecond), result.Error)
		return nil
	}
	fmt.Printf("✅ Job completed in %s\n", result.Duration.Round(time.Millisecond))
	return nil
}

func initScheduler(ctx context.Context) (*app, *scheduler.Scheduler, error) {
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)

	scan := jobs.NewScanJob(a.orchestrator(os.Stdout), a.cfg.Scheduler.ScanCron, a.log)
	if err := sched.AddJob(scan); err != nil {
		a.Close()
		return nil, nil, err
	}

	if a.writer != nil {
		if err := sched.AddJob(jobs.NewSignalCleanupJob(a.writer, a.log)); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	return a, sched, nil
}

func newAPIServer(a *app) *api.Server {
	var (
		lister handlers.SignalLister
		health api.HealthChecker
	)
	// nil pointers must stay nil interfaces
	if a.signals != nil {
		lister = a.signals
	}
	if a.db != nil {
		health = a.db
	}

	h := handlers.NewScreenerHandler(a.catalog, lister, a.redis, a.log)
	return api.New(a.cfg.Metrics.Port, a.log, api.NewRouter(h, health, a.log))
}
