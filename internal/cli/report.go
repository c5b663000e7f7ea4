package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxmend/voxmend/internal/report"
	"github.com/voxmend/voxmend/internal/stability"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a performance report over the recovery history",
	Run:   runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	entries, err := report.NewLog(cfg.Recovery.LogPath).Entries()
	if err != nil {
		slog.Error("Failed to read recovery log", "error", err)
		os.Exit(1)
	}

	stats, err := stability.NewFileStore(cfg.Stats.Path).Load()
	if err != nil {
		slog.Warn("Failed to read backend stats", "error", err)
		stats = nil
	}

	fmt.Print(report.Build(entries, stats).Markdown())
}
