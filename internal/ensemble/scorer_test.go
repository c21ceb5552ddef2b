package ensemble

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/ports"
)

// stubModel returns a fixed vote or error for every excerpt.
type stubModel struct {
	name string
	vote domain.EnsembleVote
	err  error
}

func (m *stubModel) Classify(_ context.Context, _ string) (domain.EnsembleVote, error) {
	if m.err != nil {
		return domain.EnsembleVote{}, m.err
	}
	return m.vote, nil
}

func (m *stubModel) Model() string { return m.name }

func newTestScorer(t *testing.T, models ...*stubModel) *Scorer {
	t.Helper()
	classifiers := make([]ports.ClassifierModel, 0, len(models))
	for _, m := range models {
		classifiers = append(classifiers, m)
	}
	scorer, err := NewScorer(classifiers, DefaultScorerConfig(), nil)
	require.NoError(t, err)
	return scorer
}

func TestNewScorer_Validation(t *testing.T) {
	model := &stubModel{name: "a", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 80}}

	_, err := NewScorer(nil, DefaultScorerConfig(), nil)
	require.Error(t, err, "zero models rejected")

	four := []ports.ClassifierModel{model, model, model, model}
	_, err = NewScorer(four, DefaultScorerConfig(), nil)
	require.Error(t, err, "more than three models rejected")

	_, err = NewScorer([]ports.ClassifierModel{model},
		ScorerConfig{MaxConcurrency: 0, ModelTimeout: time.Second}, nil)
	require.Error(t, err, "invalid concurrency rejected")
}

func TestScorer_UnanimousEnsemble(t *testing.T) {
	scorer := newTestScorer(t,
		&stubModel{name: "model-a", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 80, Confidence: 0.9}},
		&stubModel{name: "model-b", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 84, Confidence: 0.8}},
		&stubModel{name: "model-c", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 82, Confidence: 0.85}},
	)

	outcome, err := scorer.Score(context.Background(), "a triumph of stagecraft")
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusUnanimous, outcome.Consensus)
	assert.Equal(t, 82, outcome.Score)
	assert.Equal(t, 3, outcome.ModelCount)
}

func TestScorer_FailedModelDegradesConsensus(t *testing.T) {
	scorer := newTestScorer(t,
		&stubModel{name: "model-a", vote: domain.EnsembleVote{Bucket: domain.BucketMixed, Score: 64, Confidence: 0.7}},
		&stubModel{name: "model-b", vote: domain.EnsembleVote{Bucket: domain.BucketMixed, Score: 66, Confidence: 0.7}},
		&stubModel{name: "model-c", err: errors.New("upstream timeout")},
	)

	outcome, err := scorer.Score(context.Background(), "uneven but intermittently moving")
	require.NoError(t, err)

	// Consensus is evaluated at the returned model count: two-model
	// unanimity, not three.
	assert.Equal(t, domain.ConsensusUnanimous, outcome.Consensus)
	assert.Equal(t, 2, outcome.ModelCount)
	assert.InDelta(t, 0.78, outcome.Confidence, 0.001)
}

func TestScorer_AllModelsFailing(t *testing.T) {
	scorer := newTestScorer(t,
		&stubModel{name: "model-a", err: errors.New("rate limited")},
		&stubModel{name: "model-b", err: errors.New("rate limited")},
	)

	_, err := scorer.Score(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEnsembleUnavailable)
}

func TestScorer_InvalidBucketDropped(t *testing.T) {
	scorer := newTestScorer(t,
		&stubModel{name: "model-a", vote: domain.EnsembleVote{Bucket: "enthusiastic", Score: 80, Confidence: 0.9}},
		&stubModel{name: "model-b", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 80, Confidence: 0.9}},
	)

	outcome, err := scorer.Score(context.Background(), "wonderful")
	require.NoError(t, err)

	// The invalid vote drops; one valid vote remains.
	assert.Equal(t, domain.ConsensusSingle, outcome.Consensus)
	assert.Equal(t, 1, outcome.ModelCount)
}

func TestScorer_OutOfBandScoreClamped(t *testing.T) {
	scorer := newTestScorer(t,
		&stubModel{name: "model-a", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 97, Confidence: 0.9}},
	)

	outcome, err := scorer.Score(context.Background(), "glorious")
	require.NoError(t, err)

	// positive band is 76-88; the vote is pulled to the band edge.
	assert.Equal(t, 88, outcome.Score)
}

func TestScorer_DeterministicVoteOrder(t *testing.T) {
	scorer := newTestScorer(t,
		&stubModel{name: "model-c", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 80, Confidence: 0.9}},
		&stubModel{name: "model-a", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 84, Confidence: 0.9}},
		&stubModel{name: "model-b", vote: domain.EnsembleVote{Bucket: domain.BucketPositive, Score: 82, Confidence: 0.9}},
	)

	outcome, err := scorer.Score(context.Background(), "fine work")
	require.NoError(t, err)

	require.Len(t, outcome.Votes, 3)
	assert.Equal(t, "model-a", outcome.Votes[0].Model)
	assert.Equal(t, "model-b", outcome.Votes[1].Model)
	assert.Equal(t, "model-c", outcome.Votes[2].Model)
}
