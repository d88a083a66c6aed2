package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Quant analytics engine - 지표, 팩터, 진단, 포트폴리오 리스크",
	Long: `Quant Analytics Unified CLI

가격/재무 데이터 위에서 기술적 지표, 팩터 점수, 포지션 진단,
포트폴리오 리스크(Monte Carlo, Efficient Frontier, CAPM)를 계산합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant api
  go run ./cmd/quant indicators 2330 --lookback 365
  go run ./cmd/quant risk --weights 2330=0.6,2454=0.4 --benchmark 0050
  go run ./cmd/quant scheduler start
  go run ./cmd/quant test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file loaded before the environment (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging with engine events")
}
