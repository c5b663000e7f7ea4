package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxmend/voxmend/internal/control"
)

var recoverCmd = &cobra.Command{
	Use:   "recover <audio-file>",
	Short: "Recover a single audio file and print the transcript",
	Args:  cobra.ExactArgs(1),
	Run:   runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewApp(cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	result, err := app.Manager().RecoverOne(context.Background(), args[0])
	if err != nil {
		slog.Error("Recovery failed", "error", err)
		os.Exit(1)
	}

	if !result.Success {
		slog.Error("All backends exhausted", "attempts", result.TotalAttempts())
		os.Exit(1)
	}

	fmt.Println(result.Transcript)
}
