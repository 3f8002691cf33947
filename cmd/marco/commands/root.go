package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marco",
	Short: "Marco - 宏观风险红绿灯与 A 股板块轮动监控",
	Long: `Marco Unified CLI

美元流动性/信用/资金面/波动率的红绿灯分类，
叠加东财行业板块资金轮动，输出 A/B/C 风险档位与仓位模板。

Usage:
  go run ./cmd/marco [command]

Examples:
  go run ./cmd/marco api
  go run ./cmd/marco ingest
  go run ./cmd/marco snapshot --date 2025-06-02
  go run ./cmd/marco status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
