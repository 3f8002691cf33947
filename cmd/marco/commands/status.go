package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/pipeline"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "检查系统状态",
	Long: `检查数据库/Redis 连接与数据新鲜度。

Example:
  go run ./cmd/marco status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Marco Status ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	// Database
	if err := app.db.Ping(ctx); err != nil {
		fmt.Printf("  database: ❌ %v\n", err)
	} else {
		fmt.Println("  database: ✅ connected")
	}

	// Redis
	if app.redis.Enabled() {
		fmt.Println("  redis:    ✅ enabled")
	} else {
		fmt.Println("  redis:    ⚪ disabled (cache bypass)")
	}

	// Data freshness per clock series
	fmt.Println("\n  series freshness:")
	now := time.Now()
	for _, key := range []string{
		contracts.SeriesWALCL,
		contracts.SeriesHYOAS,
		contracts.SeriesFundingSpread,
		contracts.SeriesVIXSlope,
	} {
		d, ok, err := app.observations.MaxDate(ctx, key, now)
		switch {
		case err != nil:
			fmt.Printf("    %-28s ❌ %v\n", key, err)
		case !ok:
			fmt.Printf("    %-28s ⚪ no data\n", key)
		default:
			fmt.Printf("    %-28s %s\n", key, d.Format("2006-01-02"))
		}
	}

	// Latest regime
	snapshot, err := app.snapshots.Build(ctx, nil)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoObservations) {
			fmt.Println("\n  regime:   ⚪ no observations yet, run `marco ingest`")
			return nil
		}
		return err
	}

	fmt.Printf("\n  asof:     %s\n", snapshot.Asof.Format("2006-01-02"))
	if snapshot.Regime != nil {
		fmt.Printf("  regime:   %s (risk_score %.1f)\n", snapshot.Regime.Regime, snapshot.Regime.RiskScore)
	} else {
		fmt.Println("  regime:   n/a (核心指标不足)")
	}
	return nil
}
