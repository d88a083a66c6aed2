package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JUDRAGONII/AI----sub000/internal/scheduler"
	"github.com/JUDRAGONII/AI----sub000/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run analytics_precompute`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- analytics_precompute: 평일 18:30 (watchlist 지표/팩터/진단 캐시 워밍)

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
	fmt.Println("=== Quant Analytics Scheduler ===")

	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintSuccess("Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for jobName, stat := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)\n", jobName, stat.Schedule)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJob(cmd.Context(), jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}
	return nil
}

// initScheduler registers the analytics jobs. Manual runs ignore
// PRECOMPUTE_ENABLED; start only schedules enabled jobs.
func initScheduler(rt *runtime) (*scheduler.Scheduler, error) {
	sched := scheduler.New(rt.log)

	if len(rt.cfg.Precompute.Watchlist) == 0 {
		rt.log.Warn("PRECOMPUTE_WATCHLIST is empty, precompute will do nothing")
	}
	if err := sched.AddJob(jobs.NewPrecomputeJob(rt.engine, rt.cfg, rt.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

// precomputeCmd runs the warm-up for one date without the scheduler
var precomputeCmd = &cobra.Command{
	Use:   "precompute",
	Short: "watchlist 사전 계산 1회 실행",
	Long: `PRECOMPUTE_WATCHLIST의 모든 종목에 대해 지표/팩터/진단을 계산하여
결과 캐시를 채웁니다. 과거 날짜를 --as-of로 지정할 수 있습니다.

Example:
  go run ./cmd/quant precompute
  go run ./cmd/quant precompute --as-of 2024-12-31`,
	RunE: runPrecompute,
}

func init() {
	rootCmd.AddCommand(precomputeCmd)
	precomputeCmd.Flags().StringVar(&asOfFlag, "as-of", "", "analysis date YYYY-MM-DD (default today)")
}

func runPrecompute(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	return withEngine(cmd, func(ctx context.Context, rt *runtime) (interface{}, error) {
		return jobs.NewPrecomputeJob(rt.engine, rt.cfg, rt.log).RunFor(ctx, asOf)
	})
}
