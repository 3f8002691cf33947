package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/radezheng/marco/internal/api"
	"github.com/radezheng/marco/internal/api/handlers"
	"github.com/radezheng/marco/internal/scheduler"
	"github.com/radezheng/marco/internal/scheduler/jobs"
	"github.com/radezheng/marco/pkg/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "启动 API 服务器",
	Long: `启动 REST API 服务器（可选内置调度器）。

Endpoints:
  GET  /health                      - Health check
  GET  /api/snapshot                - 宏观快照（指标 + regime + 仓位模板）
  GET  /api/observations/{key}      - 原始/衍生序列
  GET  /api/sectors/overview        - 板块轮动总览
  GET  /api/sectors/matrix          - 板块强度热力图
  GET  /api/sectors/{code}/breadth  - 板块成分涨跌广度
  POST /api/ingest/run              - 手动触发 ingest
  GET  /api/scheduler/jobs          - 定时任务状态
  GET  /api/ws                      - WebSocket 推送

Example:
  go run ./cmd/marco api
  go run ./cmd/marco api --port 8089 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 服务器端口（默认取 PORT 环境变量）")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "同进程启动定时 ingest")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Marco API Server ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}

	// Optional in-process scheduler
	var sched *scheduler.Scheduler
	if withScheduler {
		sched, err = newIngestScheduler(app)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	h := api.Handlers{
		Snapshot: handlers.NewSnapshotHandler(app.snapshots, app.log),
		Series:   handlers.NewSeriesHandler(app.snapshots, app.log),
		Sector:   handlers.NewSectorHandler(app.snapshots, app.sectorDefaults(), app.log),
		Ingest:   handlers.NewIngestHandler(app.runner, app.hub, app.log),
		Jobs:     handlers.NewJobsHandler(sched, app.log),
		Hub:      app.hub,
	}

	router := api.NewRouter(h, app.log)
	server := api.New(app.cfg, app.log, router)

	// Prometheus on its own port, kept off the public router
	if app.cfg.MetricsEnabled {
		go serveMetrics(app)
	}

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	app.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.log.Info("Server stopped")
	return nil
}

// newIngestScheduler registers the daily ingest jobs.
// 早上补美盘隔夜数据，傍晚补 A 股收盘后的板块资金数据。
func newIngestScheduler(app *app) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(app.strategy.Meta.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load strategy timezone: %w", err)
	}

	sched := scheduler.New(app.log, loc)
	ingestJobs := []scheduler.Job{
		jobs.NewIngestJob("morning_ingest", "0 30 7 * * *", app.runner, app.hub, app.log),
		jobs.NewIngestJob("evening_ingest", "0 0 19 * * *", app.runner, app.hub, app.log),
	}
	for _, job := range ingestJobs {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// serveMetrics exposes Prometheus metrics on the configured port.
func serveMetrics(app *app) {
	addr := ":" + app.cfg.MetricsPort
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	app.log.WithField("addr", addr).Info("Metrics server started")
	if err := http.ListenAndServe(addr, mux); err != nil {
		app.log.WithError(err).Error("Metrics server stopped")
	}
}
