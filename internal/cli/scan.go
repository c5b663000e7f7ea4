package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxmend/voxmend/internal/control"
)

var scanDrain bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan intake directories for lost recordings",
	Run:   runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanDrain, "drain", false, "recover the queued recordings after scanning")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewApp(cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	found, err := app.Scanner().Scan(ctx)
	if err != nil {
		slog.Error("Scan failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Scan finished", "queued", found)

	if !scanDrain {
		return
	}

	res, err := app.Manager().Drain(ctx)
	if err != nil {
		slog.Error("Drain failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Drain finished", "processed", res.Processed, "succeeded", res.Succeeded)
}
