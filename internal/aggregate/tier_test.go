package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showscore/marquee/internal/domain"
)

// reviewsOf builds n rated reviews at the given score, the first tier1 of
// them from tier-1 outlets and the rest from tier-3.
func reviewsOf(n, tier1, score int) []domain.Review {
	reviews := make([]domain.Review, 0, n)
	for i := 0; i < n; i++ {
		tier := domain.Tier3
		if i < tier1 {
			tier = domain.Tier1
		}
		reviews = append(reviews, domain.Review{
			Key:    domain.ReviewKey{ProductionID: "p", OutletID: string(rune('a' + i)), CriticSlug: "critic"},
			Score:  score,
			Tier:   tier,
			Weight: tier.Weight(),
		})
	}
	return reviews
}

func TestCompute_WeightedAverage(t *testing.T) {
	shard := &domain.ReviewShard{
		Production: domain.Production{ID: "hamlet-2025", Title: "Hamlet", Status: domain.StatusOpened},
		Reviews: []domain.Review{
			{Key: domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "nyt", CriticSlug: "a"},
				Score: 90, Tier: domain.Tier1, Weight: 1.0},
			{Key: domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "vulture", CriticSlug: "b"},
				Score: 80, Tier: domain.Tier2, Weight: 0.85},
			{Key: domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "blog", CriticSlug: "c"},
				Score: 60, Tier: domain.Tier3, Weight: 0.70},
		},
	}

	computed, err := Compute(shard)
	require.NoError(t, err)

	// simple: (90+80+60)/3
	assert.InDelta(t, 76.67, computed.SimpleAverage, 0.01)
	// weighted: (90*1.0 + 80*0.85 + 60*0.70) / (1.0+0.85+0.70) = 200/2.55
	assert.InDelta(t, 78.43, computed.WeightedAverage, 0.01)
	assert.Equal(t, computed.WeightedAverage, computed.CompositeScore)
	assert.Equal(t, 3, computed.ReviewCount)
	assert.Equal(t, 1, computed.Tier1Count)
}

func TestCompute_UnratedReviewsExcluded(t *testing.T) {
	shard := &domain.ReviewShard{
		Production: domain.Production{ID: "p", Status: domain.StatusOpened},
		Reviews: append(reviewsOf(6, 1, 80), domain.Review{
			Key:     domain.ReviewKey{ProductionID: "p", OutletID: "z", CriticSlug: "c"},
			Unrated: true,
		}),
	}

	computed, err := Compute(shard)
	require.NoError(t, err)
	assert.Equal(t, 6, computed.ReviewCount)
	assert.InDelta(t, 80.0, computed.CompositeScore, 0.001)
}

func TestCompute_ConfidenceClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.LifecycleStatus
		reviews  int
		tier1    int
		expected domain.ConfidenceLevel
	}{
		{
			name:     "sixteen reviews with three tier1 is high",
			status:   domain.StatusOpened,
			reviews:  16,
			tier1:    3,
			expected: domain.ConfidenceHigh,
		},
		{
			name:     "fifteen reviews with three tier1 hits the high floor",
			status:   domain.StatusOpened,
			reviews:  15,
			tier1:    3,
			expected: domain.ConfidenceHigh,
		},
		{
			name:     "volume without tier1 coverage drops to medium",
			status:   domain.StatusOpened,
			reviews:  16,
			tier1:    2,
			expected: domain.ConfidenceMedium,
		},
		{
			name:     "eight reviews with one tier1 is medium",
			status:   domain.StatusOpened,
			reviews:  8,
			tier1:    1,
			expected: domain.ConfidenceMedium,
		},
		{
			name:     "six reviews without tier1 is low",
			status:   domain.StatusOpened,
			reviews:  6,
			tier1:    0,
			expected: domain.ConfidenceLow,
		},
		{
			name:     "five reviews is low regardless of tier1",
			status:   domain.StatusOpened,
			reviews:  5,
			tier1:    3,
			expected: domain.ConfidenceLow,
		},
		{
			name:     "four reviews is pending",
			status:   domain.StatusOpened,
			reviews:  4,
			tier1:    4,
			expected: domain.ConfidencePending,
		},
		{
			name:     "previews forces pending at any volume",
			status:   domain.StatusPreviews,
			reviews:  20,
			tier1:    5,
			expected: domain.ConfidencePending,
		},
		{
			name:     "closed productions keep their confidence",
			status:   domain.StatusClosed,
			reviews:  16,
			tier1:    3,
			expected: domain.ConfidenceHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shard := &domain.ReviewShard{
				Production: domain.Production{ID: "p", Status: tt.status},
				Reviews:    reviewsOf(tt.reviews, tt.tier1, 75),
			}
			computed, err := Compute(shard)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, computed.Confidence)
		})
	}
}

func TestCompute_PendingNeverPublic(t *testing.T) {
	shard := &domain.ReviewShard{
		Production: domain.Production{ID: "p", Status: domain.StatusOpened},
		Reviews:    reviewsOf(3, 1, 90),
	}
	computed, err := Compute(shard)
	require.NoError(t, err)

	// The composite is still computed internally, only its surfacing is
	// blocked.
	assert.Equal(t, domain.ConfidencePending, computed.Confidence)
	assert.False(t, computed.Public())
	assert.InDelta(t, 90.0, computed.CompositeScore, 0.001)
}

func TestCompute_EmptyShard(t *testing.T) {
	shard := &domain.ReviewShard{
		Production: domain.Production{ID: "p", Status: domain.StatusOpened},
	}
	computed, err := Compute(shard)
	require.NoError(t, err)
	assert.Zero(t, computed.CompositeScore)
	assert.Equal(t, 0, computed.ReviewCount)
	assert.Equal(t, domain.ConfidencePending, computed.Confidence)
}

func TestCompute_InvalidScoreRejected(t *testing.T) {
	shard := &domain.ReviewShard{
		Production: domain.Production{ID: "p", Status: domain.StatusOpened},
		Reviews: []domain.Review{
			{Key: domain.ReviewKey{ProductionID: "p", OutletID: "a", CriticSlug: "c"}, Score: 120, Weight: 1.0},
		},
	}
	_, err := Compute(shard)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidScore)
}

func TestCompute_MissingWeightFallsBackToTier(t *testing.T) {
	shard := &domain.ReviewShard{
		Production: domain.Production{ID: "p", Status: domain.StatusOpened},
		Reviews: []domain.Review{
			{Key: domain.ReviewKey{ProductionID: "p", OutletID: "a", CriticSlug: "c"},
				Score: 80, Tier: domain.Tier2}, // Weight never captured
		},
	}
	computed, err := Compute(shard)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, computed.WeightedAverage, 0.001)
}
