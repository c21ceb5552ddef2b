// Command marquee runs the review reconciliation and scoring pipeline:
// ingesting raw review evidence, normalizing ratings, ensemble-scoring
// unrated reviews, reconciling against aggregator snapshots, and
// rebuilding the site-wide composite aggregate.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "Theater review reconciliation and scoring pipeline",
	Long:  "Normalizes heterogeneous critic ratings onto a 0-100 scale, reconciles canonical reviews against aggregator snapshots, ensemble-scores unrated reviews, and rebuilds tier-weighted composite scores.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
