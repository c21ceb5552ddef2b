package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showscore/marquee/internal/domain"
)

func testOutlets() []domain.Outlet {
	return []domain.Outlet{
		{
			ID:      "nyt",
			Name:    "The New York Times",
			Tier:    domain.Tier1,
			Format:  domain.FormatNone,
			Aliases: []string{"NY Times", "NYTimes"},
		},
		{
			ID:       "time-out-ny",
			Name:     "Time Out New York",
			Tier:     domain.Tier2,
			Format:   domain.FormatStars,
			MaxScale: 5,
		},
	}
}

func TestCriticSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple name", input: "Ben Brantley", expected: "ben-brantley"},
		{name: "case folds", input: "BEN BRANTLEY", expected: "ben-brantley"},
		{name: "diacritics strip", input: "Zoë Chao", expected: "zoe-chao"},
		{name: "punctuation removed", input: "J. Kelly O'Hara", expected: "j-kelly-o-hara"},
		{name: "surrounding whitespace trimmed", input: "  Jesse Green  ", expected: "jesse-green"},
		{name: "runs of separators collapse", input: "Sara  Holdren", expected: "sara-holdren"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CriticSlug(tt.input))
		})
	}
}

func TestCriticSlug_Idempotent(t *testing.T) {
	inputs := []string{"Ben Brantley", "Zoë Chao", "ELISABETH VINCENTELLI"}
	for _, input := range inputs {
		slug := CriticSlug(input)
		assert.Equal(t, slug, CriticSlug(slug), "slugging %q twice must be stable", input)
	}
}

func TestResolveOutlet(t *testing.T) {
	resolver, err := NewResolver(testOutlets(), 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{name: "canonical name", input: "The New York Times", wantID: "nyt"},
		{name: "alias", input: "NY Times", wantID: "nyt"},
		{name: "case-insensitive alias", input: "nytimes", wantID: "nyt"},
		{name: "whitespace trimmed", input: " Time Out New York ", wantID: "time-out-ny"},
		{name: "unknown outlet", input: "The Village Voice", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outlet, err := resolver.ResolveOutlet(tt.input, "prod-1")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrUnknownOutlet)

				var unknown *domain.UnknownOutletError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, tt.input, unknown.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, outlet.ID)
		})
	}
}

func TestNewResolver_RejectsAmbiguousAliases(t *testing.T) {
	outlets := []domain.Outlet{
		{ID: "a", Name: "The Paper", Tier: domain.Tier1, Format: domain.FormatNone},
		{ID: "b", Name: "Another", Tier: domain.Tier2, Format: domain.FormatNone, Aliases: []string{"the paper"}},
	}
	_, err := NewResolver(outlets, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claimed by both")
}

func TestResolve_Idempotent(t *testing.T) {
	resolver, err := NewResolver(testOutlets(), 0)
	require.NoError(t, err)

	ev := domain.RawEvidence{
		ProductionID: "hamlet-2025",
		OutletName:   "NY Times",
		CriticName:   "Jesse Green",
	}

	first, _, err := resolver.Resolve(ev)
	require.NoError(t, err)
	second, _, err := resolver.Resolve(ev)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, domain.ReviewKey{
		ProductionID: "hamlet-2025",
		OutletID:     "nyt",
		CriticSlug:   "jesse-green",
	}, first)
}

func TestDetectDuplicates(t *testing.T) {
	resolver, err := NewResolver(testOutlets(), 2)
	require.NoError(t, err)

	shard := &domain.ReviewShard{
		Production: domain.Production{ID: "hamlet-2025"},
		Reviews: []domain.Review{
			{Key: domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "nyt", CriticSlug: "terry-teachout"}},
			{Key: domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "time-out-ny", CriticSlug: "adam-feldman"}},
		},
	}

	tests := []struct {
		name     string
		key      domain.ReviewKey
		expected []domain.DuplicateKind
	}{
		{
			name: "near-name typo at the same outlet",
			key:  domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "nyt", CriticSlug: "terry-techout"},
			expected: []domain.DuplicateKind{
				domain.DuplicateNearName,
			},
		},
		{
			name: "same critic under a different outlet",
			key:  domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "nyt", CriticSlug: "adam-feldman"},
			expected: []domain.DuplicateKind{
				domain.DuplicateCrossOutlet,
			},
		},
		{
			name:     "distinct identity raises nothing",
			key:      domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "nyt", CriticSlug: "sara-holdren"},
			expected: nil,
		},
		{
			name:     "exact existing key is not its own duplicate",
			key:      domain.ReviewKey{ProductionID: "hamlet-2025", OutletID: "nyt", CriticSlug: "terry-teachout"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := resolver.DetectDuplicates(shard, tt.key)
			require.Len(t, findings, len(tt.expected))
			for i, kind := range tt.expected {
				assert.Equal(t, kind, findings[i].Kind)
			}
		})
	}
}

func TestDetectDuplicates_BeyondThreshold(t *testing.T) {
	resolver, err := NewResolver(testOutlets(), 2)
	require.NoError(t, err)

	shard := &domain.ReviewShard{
		Reviews: []domain.Review{
			{Key: domain.ReviewKey{ProductionID: "p", OutletID: "nyt", CriticSlug: "ben-brantley"}},
		},
	}

	// Edit distance well past the threshold: not a candidate.
	findings := resolver.DetectDuplicates(shard, domain.ReviewKey{
		ProductionID: "p", OutletID: "nyt", CriticSlug: "maya-phillips",
	})
	assert.Empty(t, findings)
}
