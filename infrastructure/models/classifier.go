package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/ports"
)

// classifyPrompt instructs the model to perform bucket-first
// classification: commit to exactly one coarse sentiment bucket, then
// score within that bucket's band. Keeping the contract in the prompt and
// validating it on parse makes every vote auditable.
const classifyPrompt = `You are classifying the sentiment of a theater critic's review excerpt.

First, commit to exactly one sentiment bucket:
- rave (score range 84-96): an unqualified endorsement
- positive (76-88): favorable with minor reservations
- mixed (59-71): significant reservations alongside praise
- negative (42-54): mostly unfavorable
- pan (24-36): an outright dismissal

Then assign a numeric score INSIDE the chosen bucket's range, and a
confidence between 0.0 and 1.0.

Respond with only a JSON object, no prose:
{"bucket": "<bucket>", "score": <number>, "confidence": <number>}

Review excerpt:
%s`

// voteResponse is the JSON shape every provider must return.
type voteResponse struct {
	Bucket     string  `json:"bucket"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// voteClassifier adapts a CoreClassifier (raw completions) to the
// ports.ClassifierModel contract (bucket-first votes).
type voteClassifier struct {
	core CoreClassifier
}

var _ ports.ClassifierModel = (*voteClassifier)(nil)

func newVoteClassifier(core CoreClassifier) *voteClassifier {
	return &voteClassifier{core: core}
}

// Model returns the underlying provider's model identifier.
func (c *voteClassifier) Model() string { return c.core.Model() }

// Classify sends the excerpt to the provider and parses the completion
// into an ensemble vote. Malformed completions fail the vote; the
// ensemble's degradation rules handle the loss.
func (c *voteClassifier) Classify(ctx context.Context, excerpt string) (domain.EnsembleVote, error) {
	completion, err := c.core.Complete(ctx, fmt.Sprintf(classifyPrompt, excerpt))
	if err != nil {
		return domain.EnsembleVote{}, err
	}
	return parseVote(c.core.Model(), completion)
}

// parseVote extracts the JSON vote from a completion. Models sometimes
// wrap JSON in markdown fences or prefix it with prose, so parsing scans
// for the outermost object instead of decoding the whole completion.
func parseVote(model, completion string) (domain.EnsembleVote, error) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start < 0 || end <= start {
		return domain.EnsembleVote{}, fmt.Errorf("model %s: no JSON object in completion", model)
	}

	var resp voteResponse
	if err := json.Unmarshal([]byte(completion[start:end+1]), &resp); err != nil {
		return domain.EnsembleVote{}, fmt.Errorf("model %s: malformed vote JSON: %w", model, err)
	}

	bucket := domain.SentimentBucket(strings.ToLower(strings.TrimSpace(resp.Bucket)))
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return domain.EnsembleVote{}, fmt.Errorf("model %s: confidence %.2f outside [0,1]", model, resp.Confidence)
	}

	return domain.EnsembleVote{
		Model:      model,
		Bucket:     bucket,
		Score:      resp.Score,
		Confidence: resp.Confidence,
	}, nil
}
