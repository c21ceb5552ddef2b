package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/pipeline"
)

// ingestInput is the on-disk shape of an ingest batch file: raw review
// evidence grouped by production, plus optional aggregator snapshots.
type ingestInput struct {
	Productions []struct {
		Production domain.Production    `json:"production"`
		Evidence   []domain.RawEvidence `json:"evidence"`
	} `json:"productions"`
	Snapshots []domain.ReviewSource `json:"snapshots,omitempty"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <evidence.json>",
	Short: "Ingest raw review evidence into canonical shards",
	Long: `Reads a batch file of raw review evidence, resolves review identities,
normalizes ratings onto the 0-100 scale, and upserts the results into
per-production canonical shards. Aggregator snapshots in the batch are
stored as reconciliation evidence.

Unresolvable outlets are parked for manual correction; unparseable
ratings are reported. Neither aborts the batch, and re-ingesting the
same file is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "ingest"))

	data, err := os.ReadFile(args[0])
	if err != nil {
		return eris.Wrap(err, "ingest: read batch file")
	}
	var input ingestInput
	if err := json.Unmarshal(data, &input); err != nil {
		return eris.Wrap(err, "ingest: decode batch file")
	}

	a, err := newApp(log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Migrate(ctx); err != nil {
		return err
	}

	batches := make([]pipeline.IngestBatch, 0, len(input.Productions))
	for _, p := range input.Productions {
		batches = append(batches, pipeline.IngestBatch{Production: p.Production, Evidence: p.Evidence})
	}

	report, err := a.pipeline.Ingest(ctx, batches)
	if err != nil {
		return eris.Wrap(err, "ingest")
	}

	if len(input.Snapshots) > 0 {
		if err := a.pipeline.IngestSnapshots(ctx, input.Snapshots); err != nil {
			return eris.Wrap(err, "ingest: snapshots")
		}
		log.Info("snapshots stored", zap.Int("count", len(input.Snapshots)))
	}

	printReport(cmd, report)
	return nil
}
