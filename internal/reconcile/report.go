package reconcile

import (
	"fmt"
	"strings"

	"github.com/showscore/marquee/internal/domain"
)

// RenderReport formats reconciliation results as the human-readable
// discrepancy list consumed by the manual-correction workflow. Coverage
// gaps downgrade missing-from-source findings to informational lines.
func RenderReport(results []domain.ReconciliationResult) string {
	var b strings.Builder
	for _, result := range results {
		fmt.Fprintf(&b, "production %s vs %s:\n", result.ProductionID, result.SourceType)

		if result.Clean() && len(result.MissingFromSource) == 0 {
			b.WriteString("  no discrepancies\n")
			continue
		}

		for _, key := range result.NotYetAdded {
			fmt.Fprintf(&b, "  not yet added: %s/%s\n", key.OutletID, key.CriticSlug)
		}

		label := "missing from source"
		if result.CoverageGap {
			label = "missing from source (coverage gap, expected)"
		}
		for _, key := range result.MissingFromSource {
			fmt.Fprintf(&b, "  %s: %s/%s\n", label, key.OutletID, key.CriticSlug)
		}

		for _, conflict := range result.Conflicts {
			fmt.Fprintf(&b, "  polarity conflict [%s]: %s says %s, canonical score implies %s (corroborating %d, dissenting %d)\n",
				conflict.Severity, result.SourceType, conflict.SourcePolarity,
				conflict.CanonicalPolarity, conflict.Corroborating, conflict.Dissenting)
		}
	}
	return b.String()
}
