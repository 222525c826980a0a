package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/symptrack/internal/api"
	"github.com/wonny/symptrack/internal/api/handlers"
	"github.com/wonny/symptrack/internal/scheduler"
	"github.com/wonny/symptrack/internal/scheduler/jobs"
	"github.com/wonny/symptrack/pkg/config"
	"github.com/wonny/symptrack/pkg/logger"
	"github.com/wonny/symptrack/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버와 완료 스윕 스케줄러를 시작합니다.

Endpoints:
  GET    /health                              - Health check
  GET    /api/progress                        - 로드된 모든 사용자 진행률
  GET    /api/scenarios                       - 시나리오 목록
  GET    /api/users/{user}/progress           - 진행률 조회
  GET    /api/users/{user}/events             - 진행률 이벤트 (websocket)
  POST   /api/users/{user}/entries            - 일별 기록 추가
  DELETE /api/users/{user}/entries            - 기록 전체 삭제
  POST   /api/users/{user}/period             - 새 관찰 기간 시작
  POST   /api/users/{user}/random-days        - 랜덤 기록 추가
  POST   /api/users/{user}/scenarios/custom   - 커스텀 시나리오 로드
  POST   /api/users/{user}/scenarios/{name}   - 시나리오 로드

Example:
  go run ./cmd/symptrack api
  go run ./cmd/symptrack api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== symptrack API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port":    cfg.Port,
		"env":     cfg.Env,
		"storage": cfg.StorageBackend,
		"redis":   cfg.Redis.Enabled,
	}).Info("Initializing API server")

	// 3. Wire tracking components
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.startForwarder(ctx); err != nil {
		return fmt.Errorf("start event forwarder: %w", err)
	}

	// 4. Rate limiter
	var limiter api.Limiter = api.NewLocalLimiter(cfg.API.RateLimit, cfg.API.RateBurst)
	if a.redis.Enabled() {
		limiter = api.NewSharedLimiter(redis.NewRateLimiter(a.redis, keyPrefix), cfg.API.RateLimit, cfg.API.RateBurst)
	}

	// 5. Router & server
	router := api.NewRouter(api.Handlers{
		Progress: handlers.NewProgressHandler(a.registry, log),
		Scenario: handlers.NewScenarioHandler(a.registry, a.generator, log),
		Events:   handlers.NewEventsHandler(a.registry, a.hub, log),
	}, limiter, log)
	server := api.New(cfg, log, router)

	// 6. Scheduler
	sched := scheduler.New(log, scheduler.WithRetry(2, 10*time.Second))
	if err := sched.AddJob(jobs.NewCompletionSweepJob(a.registry, a.dispatcher, a.lister, cfg.Tracking.SweepSchedule, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewProgressSnapshotJob(a.registry, log)); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// 7. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
