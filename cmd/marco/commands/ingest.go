package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "执行一轮完整 ingest",
	Long: `抓取 FRED 与东财数据，计算衍生序列，分类指标并落库。

流程:
  1. 抓取 11 条 FRED 基础序列
  2. 计算合成流动性 / 资金利差 / VIX 斜率 / 美债已实现波动率
  3. 红绿灯分类 + A/B/C regime 判定
  4. 刷新东财行业板块资金流与轮动指标

Example:
  go run ./cmd/marco ingest`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Marco Ingest ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.runner.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("\n✅ Ingest finished in %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	fmt.Printf("   observations upserted: %d\n", result.InsertedOrUpdated)
	fmt.Printf("   base series fetched:   %d/%d\n", len(result.BaseSeriesFetched), 11)
	fmt.Printf("   sectors computed:      %d\n", result.SectorCount)

	if result.Asof != nil {
		fmt.Printf("   asof:                  %s\n", result.Asof.Format("2006-01-02"))
	}
	if result.Regime != nil {
		fmt.Printf("   regime:                %s (risk_score %.1f, template %s)\n",
			result.Regime.Regime, result.Regime.RiskScore, result.Regime.TemplateName)
	}

	if result.HasErrors() {
		fmt.Printf("\n⚠️  %d key(s) failed:\n", len(result.Errors))
		for key, msg := range result.Errors {
			fmt.Printf("   %-30s %s\n", key, msg)
		}
	}
	return nil
}
