package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/pipeline"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "打印某日的宏观快照",
	Long: `对指定日期（默认最新）做指标分类与 regime 判定并打印。

分类是现算的，任何有足够历史的日期都可以问。

Example:
  go run ./cmd/marco snapshot
  go run ./cmd/marco snapshot --date 2025-06-02
  go run ./cmd/marco snapshot --json`,
	RunE: runSnapshot,
}

var (
	snapshotDate string
	snapshotJSON bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapshotDate, "date", "", "快照日期 YYYY-MM-DD（默认最新）")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "输出完整 JSON")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var requested *time.Time
	if snapshotDate != "" {
		t, err := time.Parse("2006-01-02", snapshotDate)
		if err != nil {
			return fmt.Errorf("invalid --date (expected YYYY-MM-DD): %w", err)
		}
		d := contracts.DateOf(t)
		requested = &d
	}

	snapshot, err := app.snapshots.Build(cmd.Context(), requested)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoObservations) {
			return fmt.Errorf("no observations yet, run `marco ingest` first")
		}
		return err
	}

	if snapshotJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	fmt.Printf("=== Marco Snapshot %s ===\n\n", snapshot.Asof.Format("2006-01-02"))
	for _, ind := range snapshot.Indicators {
		fmt.Printf("  %-22s %-2s", ind.IndicatorKey, ind.State)
		if ind.Details.Reason != "" {
			fmt.Printf("  (%s)", ind.Details.Reason)
		}
		fmt.Println()
	}

	if snapshot.Regime != nil {
		fmt.Printf("\n  regime:     %s\n", snapshot.Regime.Regime)
		fmt.Printf("  risk_score: %.1f\n", snapshot.Regime.RiskScore)
		fmt.Printf("  template:   %s\n", snapshot.Regime.TemplateName)
	} else {
		fmt.Println("\n  regime:     n/a (核心指标不足)")
	}
	return nil
}
