package ensemble

import (
	"math"
	"sort"
	"time"

	"github.com/showscore/marquee/internal/domain"
)

// Consensus confidence levels, strictly ordered so downstream consumers
// can rank outcomes: three-model unanimity is the strongest signal, a
// median fallback the weakest. Fewer respondents always means lower
// confidence at the same agreement level.
const (
	confidenceUnanimous3 = 0.90
	confidenceUnanimous2 = 0.78
	confidenceMajority   = 0.70
	confidenceSingle     = 0.55
	confidenceMedian     = 0.40
)

// Resolve applies the consensus protocol to whichever votes the ensemble
// collected, evaluated at the returned model count:
//
//  1. Unanimous: all returning models chose the same bucket; the final
//     score is the mean of their scores.
//  2. Majority: exactly two of three agree on a bucket; the final score is
//     the mean of the agreeing pair, and the dissenting vote is recorded
//     but excluded from the score.
//  3. No consensus (three distinct buckets, or two models disagreeing):
//     the final score is the median of all returned scores.
//
// A single returning vote passes through with explicitly reduced
// confidence. Zero votes return domain.ErrEnsembleUnavailable: the review
// stays unrated rather than receiving a fabricated score.
func Resolve(votes []domain.EnsembleVote, now time.Time) (domain.LLMScore, error) {
	if len(votes) == 0 {
		return domain.LLMScore{}, domain.ErrEnsembleUnavailable
	}

	outcome := domain.LLMScore{
		ModelCount: len(votes),
		Votes:      votes,
		ScoredAt:   now,
	}

	buckets := make(map[domain.SentimentBucket][]domain.EnsembleVote)
	for _, vote := range votes {
		buckets[vote.Bucket] = append(buckets[vote.Bucket], vote)
	}

	var winner domain.SentimentBucket
	winnerSize := 0
	for bucket, group := range buckets {
		if len(group) > winnerSize || (len(group) == winnerSize && bucket < winner) {
			winner, winnerSize = bucket, len(group)
		}
	}

	switch {
	case len(votes) == 1:
		vote := votes[0]
		outcome.Consensus = domain.ConsensusSingle
		outcome.Bucket = vote.Bucket
		outcome.Score = clampScore(math.Round(vote.Score))
		outcome.Confidence = confidenceSingle

	case winnerSize == len(votes):
		// Every returning model chose the same bucket.
		outcome.Consensus = domain.ConsensusUnanimous
		outcome.Bucket = winner
		outcome.Score = clampScore(math.Round(meanScore(votes)))
		if len(votes) >= 3 {
			outcome.Confidence = confidenceUnanimous3
		} else {
			outcome.Confidence = confidenceUnanimous2
		}

	case winnerSize == 2 && len(votes) == 3:
		agreeing := buckets[winner]
		outcome.Consensus = domain.ConsensusMajority
		outcome.Bucket = winner
		outcome.Score = clampScore(math.Round(meanScore(agreeing)))
		outcome.Confidence = confidenceMajority
		for _, vote := range votes {
			if vote.Bucket != winner {
				outcome.Dissent = append(outcome.Dissent, vote)
			}
		}

	default:
		// No bucket agreement: median of everything that came back.
		outcome.Consensus = domain.ConsensusMedian
		outcome.Score = clampScore(math.Round(medianScore(votes)))
		outcome.Confidence = confidenceMedian
	}

	return outcome, nil
}

func meanScore(votes []domain.EnsembleVote) float64 {
	var sum float64
	for _, vote := range votes {
		sum += vote.Score
	}
	return sum / float64(len(votes))
}

// medianScore computes the statistical median: the middle value for an
// odd count, the mean of the two middle values for an even count.
func medianScore(votes []domain.EnsembleVote) float64 {
	scores := make([]float64, len(votes))
	for i, vote := range votes {
		scores[i] = vote.Score
	}
	sort.Float64s(scores)

	n := len(scores)
	if n%2 == 1 {
		return scores[n/2]
	}
	return (scores[n/2-1] + scores[n/2]) / 2
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
