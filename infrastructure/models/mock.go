package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/ports"
)

func init() {
	RegisterProviderFactory("mock", func(config ClientConfig) (CoreClassifier, error) {
		model := config.Model
		if model == "" {
			model = "mock-classifier"
		}
		return &mockCore{model: model}, nil
	})
}

// mockCore is the registry-reachable mock provider: it classifies every
// excerpt as a mid-band positive. Useful for offline pipeline runs.
type mockCore struct{ model string }

func (m *mockCore) Complete(_ context.Context, _ string) (string, error) {
	return `{"bucket": "positive", "score": 82, "confidence": 0.9}`, nil
}

func (m *mockCore) Model() string { return m.model }

// MockModel is a scriptable classifier for tests: each call returns the
// next queued vote or error. Safe for concurrent use.
type MockModel struct {
	name string

	mu    sync.Mutex
	votes []domain.EnsembleVote
	errs  []error
	calls int
}

var _ ports.ClassifierModel = (*MockModel)(nil)

// NewMockModel creates a mock that replays the given votes in order.
// Interleave errors with QueueError to script failures.
func NewMockModel(name string, votes ...domain.EnsembleVote) *MockModel {
	return &MockModel{name: name, votes: votes}
}

// QueueError makes the next call fail with the given error.
func (m *MockModel) QueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
	return m
}

// Classify replays the scripted votes and errors.
func (m *MockModel) Classify(_ context.Context, _ string) (domain.EnsembleVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return domain.EnsembleVote{}, err
	}
	if len(m.votes) == 0 {
		return domain.EnsembleVote{}, fmt.Errorf("mock %s: no scripted votes remain", m.name)
	}

	vote := m.votes[0]
	if len(m.votes) > 1 {
		m.votes = m.votes[1:]
	}
	vote.Model = m.name
	return vote, nil
}

// Model returns the mock's name.
func (m *MockModel) Model() string { return m.name }

// Calls reports how many times Classify ran.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
