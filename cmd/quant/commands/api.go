package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JUDRAGONII/AI----sub000/internal/api"
	"github.com/JUDRAGONII/AI----sub000/internal/api/handlers"
	"github.com/JUDRAGONII/AI----sub000/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

PRECOMPUTE_ENABLED=true 이면 같은 프로세스에서 사전 계산 스케줄러도 실행합니다.

Endpoints:
  GET  /health                              - Health check
  GET  /api/securities/{id}/indicators      - 지표 패널
  GET  /api/securities/{id}/factors         - 팩터 점수
  GET  /api/securities/{id}/diagnosis       - 포지션 진단
  POST /api/portfolio/risk                  - 포트폴리오 리스크

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Quant Analytics API Server ===")

	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, log := rt.cfg, rt.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	analytics := handlers.NewAnalyticsHandler(rt.engine, cfg.Analytics.DefaultBenchmark, log)
	router := api.NewRouter(analytics, log)
	server := api.New(cfg, log, router)

	var sched *scheduler.Scheduler
	if cfg.Precompute.Enabled {
		sched, err = initScheduler(rt)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
