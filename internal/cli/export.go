package cli

import (
	"github.com/spf13/cobra"

	"trade-signal-alerts/internal/app"
)

var (
	exportDays      int
	exportCategory  string
	exportTimeframe string
	exportCSVPath   string
	exportPNGPath   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored alerts as CSV and/or a daily-count PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Days:      exportDays,
			Category:  exportCategory,
			Timeframe: exportTimeframe,
			CSVPath:   exportCSVPath,
			PNGPath:   exportPNGPath,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportDays, "days", 7, "Window size in days")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "Restrict to one category (RSI, CROSSOVER, TREND, OTHER)")
	exportCmd.Flags().StringVar(&exportTimeframe, "timeframe", "", "Restrict to one timeframe (e.g. 15M, 4H, 1D)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
}
