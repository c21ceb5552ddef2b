package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Ensemble-score unrated reviews",
	Long: `Runs the multi-model sentiment ensemble over every unrated review that
carries an excerpt, filling in scores for outlets that publish no
explicit rating. Reviews whose ensemble produced no usable vote stay
unrated and are retried on the next run.

Examples:
  # Score every production
  marquee score

  # Score selected productions
  marquee score --production hamlet-2025 --production sunset-blvd-2024`,
	RunE: runScoreCmd,
}

func init() {
	scoreCmd.Flags().StringArray("production", nil, "limit scoring to a production id (repeatable)")
	rootCmd.AddCommand(scoreCmd)
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "score"))

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

	report, err := a.pipeline.Score(ctx, ids)
	if err != nil {
		return eris.Wrap(err, "score")
	}

	printReport(cmd, report)
	return nil
}
