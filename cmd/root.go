package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	analyticscmd "github.com/Alijeyrad/simorq_noshow/cmd/analytics"
	httpcmd "github.com/Alijeyrad/simorq_noshow/cmd/http"
	predictcmd "github.com/Alijeyrad/simorq_noshow/cmd/predict"
	systemcmd "github.com/Alijeyrad/simorq_noshow/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "noshow",
	Short: "No-show risk prediction for clinic appointments.",
	Long: `noshow scores upcoming appointments for the risk that the patient will not
attend, explains each score through its contributing factors, and suggests
reminder actions. It also reports population-level no-show analytics.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
	rootCmd.AddCommand(predictcmd.NewPredictCommand())
	rootCmd.AddCommand(analyticscmd.NewAnalyticsCommand())
}
