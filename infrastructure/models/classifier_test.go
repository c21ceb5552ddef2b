package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showscore/marquee/internal/domain"
)

func TestParseVote(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		expected   domain.EnsembleVote
		wantErr    bool
	}{
		{
			name:       "bare JSON object",
			completion: `{"bucket": "positive", "score": 82, "confidence": 0.9}`,
			expected:   domain.EnsembleVote{Model: "m", Bucket: domain.BucketPositive, Score: 82, Confidence: 0.9},
		},
		{
			name:       "markdown fenced JSON",
			completion: "```json\n{\"bucket\": \"rave\", \"score\": 90, \"confidence\": 0.85}\n```",
			expected:   domain.EnsembleVote{Model: "m", Bucket: domain.BucketRave, Score: 90, Confidence: 0.85},
		},
		{
			name:       "prose before the object",
			completion: `Here is my assessment: {"bucket": "pan", "score": 30, "confidence": 0.7}`,
			expected:   domain.EnsembleVote{Model: "m", Bucket: domain.BucketPan, Score: 30, Confidence: 0.7},
		},
		{
			name:       "bucket case and whitespace normalized",
			completion: `{"bucket": " Mixed ", "score": 65, "confidence": 0.6}`,
			expected:   domain.EnsembleVote{Model: "m", Bucket: domain.BucketMixed, Score: 65, Confidence: 0.6},
		},
		{
			name:       "no JSON at all",
			completion: "I would call this a rave.",
			wantErr:    true,
		},
		{
			name:       "malformed JSON",
			completion: `{"bucket": "positive", "score": }`,
			wantErr:    true,
		},
		{
			name:       "confidence outside range",
			completion: `{"bucket": "positive", "score": 82, "confidence": 1.4}`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote, err := parseVote("m", tt.completion)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, vote)
		})
	}
}

func TestNewClassifier_UnknownProvider(t *testing.T) {
	_, err := NewClassifier(ClientConfig{Provider: "mystery"})
	require.Error(t, err)
}

func TestNewClassifier_MockProvider(t *testing.T) {
	classifier, err := NewClassifier(ClientConfig{Provider: "mock"})
	require.NoError(t, err)

	vote, err := classifier.Classify(context.Background(), "a fine show")
	require.NoError(t, err)
	assert.Equal(t, domain.BucketPositive, vote.Bucket)
	assert.Equal(t, "mock-classifier", vote.Model)
}

func TestMockModel_ReplaysVotesAndErrors(t *testing.T) {
	mock := NewMockModel("model-a",
		domain.EnsembleVote{Bucket: domain.BucketRave, Score: 90, Confidence: 0.9},
		domain.EnsembleVote{Bucket: domain.BucketMixed, Score: 65, Confidence: 0.6},
	)
	mock.QueueError(assert.AnError)

	_, err := mock.Classify(context.Background(), "x")
	require.Error(t, err, "queued error comes first")

	first, err := mock.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, domain.BucketRave, first.Bucket)
	assert.Equal(t, "model-a", first.Model)

	second, err := mock.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, domain.BucketMixed, second.Bucket)

	// The final vote replays indefinitely.
	third, err := mock.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, domain.BucketMixed, third.Bucket)

	assert.Equal(t, 4, mock.Calls())
}
