package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile canonical shards against aggregator snapshots",
	Long: `Compares each production's canonical reviews against every stored
aggregator snapshot and reports discrepancies: reviews one side is
missing, polarity conflicts with a severity hint, and coverage gaps.

Findings feed the manual correction workflow; nothing is changed
automatically.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringArray("production", nil, "limit reconciliation to a production id (repeatable)")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "reconcile"))

	ids, err := cmd.Flags().GetStringArray("production")
	if err != nil {
		return err
	}

	a, err := newApp(log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Migrate(ctx); err != nil {
		return err
	}

	report, err := a.pipeline.Reconcile(ctx, ids)
	if err != nil {
		return eris.Wrap(err, "reconcile")
	}

	cmd.Println(reconcile.RenderReport(report.Reconciliation))
	printReport(cmd, report)
	return nil
}
