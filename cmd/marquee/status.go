package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and the current aggregate",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Int("limit", 10, "number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "status"))

	limit, err := cmd.Flags().GetInt("limit")
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

	runs, err := a.store.ListRuns(ctx, limit)
	if err != nil {
		return eris.Wrap(err, "status: list runs")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSTARTED\tDURATION\tPRODUCTIONS\tFAILED\tERRORS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.Kind,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.FinishedAt.Sub(run.StartedAt).Round(1e6),
			run.Productions,
			run.Failed,
			len(run.Errors),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	site, err := a.coordinator.CurrentAggregate(ctx)
	if err != nil {
		return eris.Wrap(err, "status: load aggregate")
	}
	if site == nil {
		cmd.Println("\naggregate: no rebuild has completed yet")
		return nil
	}

	public := 0
	for _, p := range site.Productions {
		if p.Public() {
			public++
		}
	}
	cmd.Printf("\naggregate: %d productions (%d public, %d pending)\n",
		len(site.Productions), public, len(site.Productions)-public)
	return nil
}

// printReport summarizes a run report on the command's output.
func printReport(cmd *cobra.Command, report *domain.RunReport) {
	cmd.Printf("%s run %s: %d productions, %d succeeded, %d failed\n",
		report.Kind, report.ID, report.Productions, report.Succeeded, report.Failed)
	if len(report.Parked) > 0 {
		cmd.Printf("parked evidence: %d (unknown outlets)\n", len(report.Parked))
	}
	if len(report.Duplicates) > 0 {
		cmd.Printf("candidate duplicates: %d (pending manual review)\n", len(report.Duplicates))
	}
	for _, runErr := range report.Errors {
		target := runErr.ProductionID
		if runErr.ReviewKey != "" {
			target = runErr.ReviewKey
		}
		cmd.Printf("  error [%s] %s: %s\n", runErr.Stage, target, runErr.Message)
	}
}
