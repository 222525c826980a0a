package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "symptrack",
	Short: "symptrack - 20일 증상 추적 진행률 서비스",
	Long: `symptrack CLI

사용자별 20일 관찰 기간의 일별 증상 기록을 추적하고,
기간이 완료되면 예측 분석 준비 신호를 보냅니다.

Usage:
  go run ./cmd/symptrack [command]

Examples:
  go run ./cmd/symptrack api
  go run ./cmd/symptrack scenario highRisk
  go run ./cmd/symptrack simulate
  go run ./cmd/symptrack migrate
  go run ./cmd/symptrack test-db`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// flags override the environment; config.Load reads it afterwards
		if cmd.Flags().Changed("env") {
			_ = os.Setenv("ENV", env)
		}
		if verbose {
			_ = os.Setenv("LOG_LEVEL", "debug")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
