package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/identity"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	resolver, err := identity.NewResolver([]domain.Outlet{
		{ID: "nyt", Name: "The New York Times", Tier: domain.Tier1, Format: domain.FormatNone},
		{ID: "vulture", Name: "Vulture", Tier: domain.Tier2, Format: domain.FormatNone},
		{ID: "timeout", Name: "Time Out New York", Tier: domain.Tier2, Format: domain.FormatStars, MaxScale: 5},
	}, 0)
	require.NoError(t, err)
	return NewEngine(resolver, 0, 0)
}

func testShard(reviews ...domain.Review) *domain.ReviewShard {
	opened := time.Now().Add(-30 * 24 * time.Hour)
	return &domain.ReviewShard{
		Production: domain.Production{
			ID:       "hamlet-2025",
			Title:    "Hamlet",
			Status:   domain.StatusOpened,
			OpenedAt: &opened,
		},
		Reviews: reviews,
	}
}

func ratedReview(outletID, criticSlug string, score int) domain.Review {
	return domain.Review{
		Key:   domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: outletID, CriticSlug: criticSlug},
		Score: score,
	}
}

func TestReconcile_CoverageDiffs(t *testing.T) {
	engine := testEngine(t)

	shard := testShard(
		ratedReview("nyt", "jesse-green", 90),
		ratedReview("vulture", "sara-holdren", 75),
	)
	sources := []domain.ReviewSource{{
		SourceType:   domain.SourceShowScore,
		ProductionID: "hamlet-2025",
		FetchedAt:    time.Now(),
		Entries: []domain.SourceEntry{
			{Outlet: "The New York Times", Critic: "Jesse Green", Polarity: domain.PolarityUp},
			{Outlet: "Time Out New York", Critic: "Adam Feldman", Polarity: domain.PolarityUp},
		},
	}}

	results := engine.Reconcile(context.Background(), shard, sources)
	require.Len(t, results, 1)
	result := results[0]

	// Canonical has vulture/sara-holdren; the source does not.
	require.Len(t, result.MissingFromSource, 1)
	assert.Equal(t, domain.CoverageKey{OutletID: "vulture", CriticSlug: "sara-holdren"}, result.MissingFromSource[0])

	// The source has timeout/adam-feldman; canonical does not.
	require.Len(t, result.NotYetAdded, 1)
	assert.Equal(t, domain.CoverageKey{OutletID: "timeout", CriticSlug: "adam-feldman"}, result.NotYetAdded[0])

	// The diffs are disjoint: the shared key appears in neither.
	for _, key := range result.MissingFromSource {
		assert.NotContains(t, result.NotYetAdded, key)
	}
	assert.Empty(t, result.Conflicts)
}

func TestReconcile_PolarityConflictSeverity(t *testing.T) {
	engine := testEngine(t)
	key := domain.SourceEntry{Outlet: "The New York Times", Critic: "Jesse Green"}

	tests := []struct {
		name       string
		score      int // canonical score, polarity up at >= 65
		polarities map[domain.SourceType]domain.Polarity
		examined   domain.SourceType
		expected   domain.MismatchSeverity
	}{
		{
			name:  "two corroborating sources flag the dissenter",
			score: 85,
			polarities: map[domain.SourceType]domain.Polarity{
				domain.SourceShowScore:  domain.PolarityDown,
				domain.SourceDidTheyLik: domain.PolarityUp,
				domain.SourceCurtainUp:  domain.PolarityUp,
			},
			examined: domain.SourceShowScore,
			expected: domain.SeveritySourceError,
		},
		{
			name:  "two dissenting sources flag canonical",
			score: 85,
			polarities: map[domain.SourceType]domain.Polarity{
				domain.SourceShowScore:  domain.PolarityDown,
				domain.SourceDidTheyLik: domain.PolarityDown,
			},
			examined: domain.SourceShowScore,
			expected: domain.SeverityCanonicalSuspect,
		},
		{
			name:  "lone disagreement with no other evidence is unconfirmed",
			score: 85,
			polarities: map[domain.SourceType]domain.Polarity{
				domain.SourceShowScore: domain.PolarityDown,
			},
			examined: domain.SourceShowScore,
			expected: domain.SeverityUnconfirmed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shard := testShard(ratedReview("nyt", "jesse-green", tt.score))

			var sources []domain.ReviewSource
			for sourceType, polarity := range tt.polarities {
				sources = append(sources, domain.ReviewSource{
					SourceType:   sourceType,
					ProductionID: "hamlet-2025",
					FetchedAt:    time.Now(),
					Entries: []domain.SourceEntry{
						{Outlet: key.Outlet, Critic: key.Critic, Polarity: polarity},
					},
				})
			}

			results := engine.Reconcile(context.Background(), shard, sources)

			var examined *domain.ReconciliationResult
			for i := range results {
				if results[i].SourceType == tt.examined {
					examined = &results[i]
				}
			}
			require.NotNil(t, examined)
			require.Len(t, examined.Conflicts, 1)

			conflict := examined.Conflicts[0]
			assert.Equal(t, tt.expected, conflict.Severity)
			assert.Equal(t, domain.PolarityDown, conflict.SourcePolarity)
			assert.Equal(t, domain.PolarityUp, conflict.CanonicalPolarity)
		})
	}
}

func TestReconcile_AgreeingPolarityRaisesNoConflict(t *testing.T) {
	engine := testEngine(t)
	shard := testShard(ratedReview("nyt", "jesse-green", 85))

	results := engine.Reconcile(context.Background(), shard, []domain.ReviewSource{{
		SourceType:   domain.SourceShowScore,
		ProductionID: "hamlet-2025",
		FetchedAt:    time.Now(),
		Entries: []domain.SourceEntry{
			{Outlet: "The New York Times", Critic: "Jesse Green", Polarity: domain.PolarityUp},
		},
	}})

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Conflicts)
	assert.Empty(t, results[0].MissingFromSource)
	assert.Empty(t, results[0].NotYetAdded)
}

func TestReconcile_UnratedReviewsSkipPolarityCheck(t *testing.T) {
	engine := testEngine(t)
	shard := testShard(domain.Review{
		Key:     domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "nyt", CriticSlug: "jesse-green"},
		Unrated: true,
	})

	results := engine.Reconcile(context.Background(), shard, []domain.ReviewSource{{
		SourceType:   domain.SourceShowScore,
		ProductionID: "hamlet-2025",
		FetchedAt:    time.Now(),
		Entries: []domain.SourceEntry{
			{Outlet: "The New York Times", Critic: "Jesse Green", Polarity: domain.PolarityDown},
		},
	}})

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Conflicts, "no canonical score means nothing to conflict with")
}

func TestReconcile_SparseSourceHeuristic(t *testing.T) {
	engine := testEngine(t)

	reviews := []domain.Review{
		ratedReview("nyt", "a", 80),
		ratedReview("nyt", "b", 80),
		ratedReview("nyt", "c", 80),
		ratedReview("nyt", "d", 80),
	}

	sparse := domain.ReviewSource{
		SourceType:   domain.SourceCurtainUp,
		ProductionID: "hamlet-2025",
		FetchedAt:    time.Now(),
		Entries: []domain.SourceEntry{
			{Outlet: "The New York Times", Critic: "a", Polarity: domain.PolarityUp},
		},
	}

	t.Run("old production with thin source is a coverage gap", func(t *testing.T) {
		opened := time.Now().Add(-365 * 24 * time.Hour)
		shard := testShard(reviews...)
		shard.Production.OpenedAt = &opened

		results := engine.Reconcile(context.Background(), shard, []domain.ReviewSource{sparse})
		require.Len(t, results, 1)
		assert.True(t, results[0].CoverageGap)
	})

	t.Run("recent production with thin source is not excused", func(t *testing.T) {
		opened := time.Now().Add(-10 * 24 * time.Hour)
		shard := testShard(reviews...)
		shard.Production.OpenedAt = &opened

		results := engine.Reconcile(context.Background(), shard, []domain.ReviewSource{sparse})
		require.Len(t, results, 1)
		assert.False(t, results[0].CoverageGap)
	})
}

func TestReconcile_UnresolvableOutletSurfacesAsGap(t *testing.T) {
	engine := testEngine(t)
	shard := testShard(ratedReview("nyt", "jesse-green", 85))

	results := engine.Reconcile(context.Background(), shard, []domain.ReviewSource{{
		SourceType:   domain.SourceShowScore,
		ProductionID: "hamlet-2025",
		FetchedAt:    time.Now(),
		Entries: []domain.SourceEntry{
			{Outlet: "The New York Times", Critic: "Jesse Green", Polarity: domain.PolarityUp},
			{Outlet: "Some Defunct Zine", Critic: "Unknown Critic", Polarity: domain.PolarityUp},
		},
	}})

	require.Len(t, results, 1)
	// The unresolvable outlet still shows up as not-yet-added under a
	// placeholder key instead of vanishing.
	require.Len(t, results[0].NotYetAdded, 1)
	assert.Equal(t, "?some-defunct-zine", results[0].NotYetAdded[0].OutletID)
}
