package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "启动独立调度器进程",
	Long: `只跑定时 ingest，不开 API 端口。

API 与调度器可以分进程部署；同进程部署用 api --with-scheduler。

Jobs:
  morning_ingest  07:30 - 补美盘隔夜数据（FRED）
  evening_ingest  19:00 - 补 A 股收盘后的板块资金数据

Example:
  go run ./cmd/marco scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Marco Scheduler ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := newIngestScheduler(app)
	if err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("\n✅ Scheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
