package ensemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showscore/marquee/internal/domain"
)

func vote(model string, bucket domain.SentimentBucket, score float64) domain.EnsembleVote {
	return domain.EnsembleVote{Model: model, Bucket: bucket, Score: score, Confidence: 0.9}
}

func TestResolve_ZeroVotes(t *testing.T) {
	_, err := Resolve(nil, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEnsembleUnavailable)
}

func TestResolve_SingleVote(t *testing.T) {
	outcome, err := Resolve([]domain.EnsembleVote{
		vote("model-a", domain.BucketPositive, 80),
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusSingle, outcome.Consensus)
	assert.Equal(t, domain.BucketPositive, outcome.Bucket)
	assert.Equal(t, 80, outcome.Score)
	assert.Equal(t, 1, outcome.ModelCount)
	assert.InDelta(t, 0.55, outcome.Confidence, 0.001)
}

func TestResolve_UnanimousThree(t *testing.T) {
	outcome, err := Resolve([]domain.EnsembleVote{
		vote("model-a", domain.BucketRave, 88),
		vote("model-b", domain.BucketRave, 92),
		vote("model-c", domain.BucketRave, 90),
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusUnanimous, outcome.Consensus)
	assert.Equal(t, domain.BucketRave, outcome.Bucket)
	assert.Equal(t, 90, outcome.Score)
	assert.InDelta(t, 0.90, outcome.Confidence, 0.001)
	assert.Empty(t, outcome.Dissent)
}

func TestResolve_UnanimousTwo(t *testing.T) {
	// Two models agreeing is unanimity at model count two, with lower
	// confidence than three-model unanimity.
	outcome, err := Resolve([]domain.EnsembleVote{
		vote("model-a", domain.BucketNegative, 46),
		vote("model-b", domain.BucketNegative, 50),
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusUnanimous, outcome.Consensus)
	assert.Equal(t, 48, outcome.Score)
	assert.InDelta(t, 0.78, outcome.Confidence, 0.001)
	assert.Equal(t, 2, outcome.ModelCount)
}

func TestResolve_MajorityTwoOfThree(t *testing.T) {
	outcome, err := Resolve([]domain.EnsembleVote{
		vote("model-a", domain.BucketPositive, 80),
		vote("model-b", domain.BucketPositive, 84),
		vote("model-c", domain.BucketNegative, 40),
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusMajority, outcome.Consensus)
	assert.Equal(t, domain.BucketPositive, outcome.Bucket)
	// Mean of the agreeing pair only; the dissenter is excluded.
	assert.Equal(t, 82, outcome.Score)
	assert.InDelta(t, 0.70, outcome.Confidence, 0.001)

	require.Len(t, outcome.Dissent, 1)
	assert.Equal(t, "model-c", outcome.Dissent[0].Model)
	assert.Equal(t, domain.BucketNegative, outcome.Dissent[0].Bucket)
}

func TestResolve_ThreeWaySplitFallsBackToMedian(t *testing.T) {
	outcome, err := Resolve([]domain.EnsembleVote{
		vote("model-a", domain.BucketRave, 90),
		vote("model-b", domain.BucketPositive, 80),
		vote("model-c", domain.BucketPan, 30),
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusMedian, outcome.Consensus)
	assert.Equal(t, 80, outcome.Score)
	assert.InDelta(t, 0.40, outcome.Confidence, 0.001)
	assert.Empty(t, outcome.Bucket)
}

func TestResolve_TwoModelDisagreementIsMedian(t *testing.T) {
	// Two models, two buckets: no majority is possible, so the score is
	// the mean of the two (statistical median of an even count).
	outcome, err := Resolve([]domain.EnsembleVote{
		vote("model-a", domain.BucketPositive, 80),
		vote("model-b", domain.BucketMixed, 60),
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusMedian, outcome.Consensus)
	assert.Equal(t, 70, outcome.Score)
	assert.InDelta(t, 0.40, outcome.Confidence, 0.001)
}

func TestResolve_RecordsAllVotes(t *testing.T) {
	votes := []domain.EnsembleVote{
		vote("model-a", domain.BucketPositive, 80),
		vote("model-b", domain.BucketPositive, 84),
		vote("model-c", domain.BucketNegative, 40),
	}
	now := time.Now().UTC()
	outcome, err := Resolve(votes, now)
	require.NoError(t, err)

	// Every vote is preserved for audit, dissenters included.
	assert.Equal(t, votes, outcome.Votes)
	assert.Equal(t, now, outcome.ScoredAt)
	assert.Equal(t, 3, outcome.ModelCount)
}

func TestBand(t *testing.T) {
	tests := []struct {
		bucket domain.SentimentBucket
		lo, hi int
	}{
		{domain.BucketRave, 84, 96},
		{domain.BucketPositive, 76, 88},
		{domain.BucketMixed, 59, 71},
		{domain.BucketNegative, 42, 54},
		{domain.BucketPan, 24, 36},
	}

	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			lo, hi, ok := Band(tt.bucket)
			require.True(t, ok)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}

	_, _, ok := Band(domain.BucketMixedPositive)
	assert.False(t, ok, "fine-grained buckets are not ensemble buckets")
}

func TestClampToBand(t *testing.T) {
	assert.Equal(t, 88.0, ClampToBand(domain.BucketPositive, 95), "above the band clamps down")
	assert.Equal(t, 76.0, ClampToBand(domain.BucketPositive, 60), "below the band clamps up")
	assert.Equal(t, 82.0, ClampToBand(domain.BucketPositive, 82), "in-band scores pass through")
}
