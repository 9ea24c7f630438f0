package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Multibagger - fundamental screening engine",
	Long: `Multibagger Screening CLI

재무제표 정규화 → 파생지표 → 하드필터 → 스코어 → 랭킹.
시가총액 밴드 기반 유니버스 관리 포함.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener screen --input batch.json
  go run ./cmd/screener screen --source db --save
  go run ./cmd/screener universe review --input batch.json
  go run ./cmd/screener policy validate
  go run ./cmd/screener test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML (default is $STRATEGY_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
