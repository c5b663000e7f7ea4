package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voxmend/voxmend/internal/core/domain"
	"github.com/voxmend/voxmend/internal/infra/redisq"
	"github.com/voxmend/voxmend/internal/stability"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend stats and the pending-audio queue",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	stats, err := stability.NewFileStore(cfg.Stats.Path).Load()
	if err != nil {
		slog.Error("Failed to read backend stats", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "BACKEND\tSUCCESS RATE\tCONSECUTIVE FAILURES")
	for _, cfgBackend := range cfg.Backends {
		stat, ok := stats[cfgBackend.Name]
		if !ok {
			_, _ = fmt.Fprintf(w, "%s\t%.3f\t%d\n", cfgBackend.Name, domain.DefaultSuccessRate, 0)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%.3f\t%d\n", stat.BackendName, stat.SuccessRateEMA, stat.ConsecutiveFailures)
	}
	_ = w.Flush()

	if cfg.Redis.URL == "" {
		return
	}
	rc, err := redisq.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unreachable", "error", err)
		return
	}
	defer rc.Close()

	pending, err := rc.All(context.Background())
	if err != nil {
		slog.Warn("Failed to read pending queue", "error", err)
		return
	}
	fmt.Printf("\nPending recordings: %d\n", len(pending))
	for _, path := range pending {
		fmt.Printf("  %s\n", path)
	}
}
