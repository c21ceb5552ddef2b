package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/domain"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the site-wide composite aggregate",
	Long: `Recomputes every production's tier-weighted composite score from its
canonical shard and atomically replaces the site-wide aggregate
document. Rebuilds are exclusive and deterministic: a concurrent
rebuild fails fast, and rebuilding unchanged shards produces a
byte-identical document.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "rebuild"))

	a, err := newApp(log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Migrate(ctx); err != nil {
		return err
	}

	report, err := a.coordinator.Rebuild(ctx)
	if errors.Is(err, domain.ErrRebuildConflict) {
		return eris.New("rebuild: another rebuild is already in progress")
	}
	if err != nil {
		return eris.Wrap(err, "rebuild")
	}

	printReport(cmd, report)
	return nil
}
