package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showscore/marquee/internal/domain"
)

func writeOutletFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outlets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOutlets(t *testing.T) {
	path := writeOutletFile(t, `outlets:
  - id: nyt
    name: The New York Times
    tier: 1
    format: none
    aliases: ["NY Times", "NYTimes"]
  - id: timeout
    name: Time Out New York
    tier: 2
    format: stars
    max_scale: 5
`)

	outlets, err := LoadOutlets(path)
	require.NoError(t, err)
	require.Len(t, outlets, 2)

	assert.Equal(t, "nyt", outlets[0].ID)
	assert.Equal(t, domain.Tier1, outlets[0].Tier)
	assert.Equal(t, []string{"NY Times", "NYTimes"}, outlets[0].Aliases)
	assert.Equal(t, 5.0, outlets[1].MaxScale)
}

func TestLoadOutlets_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "empty outlet list",
			content: "outlets: []\n",
		},
		{
			name: "tier out of range",
			content: `outlets:
  - id: x
    name: X
    tier: 4
    format: none
`,
		},
		{
			name: "unknown format",
			content: `outlets:
  - id: x
    name: X
    tier: 1
    format: emoji
`,
		},
		{
			name: "star outlet without max scale",
			content: `outlets:
  - id: x
    name: X
    tier: 1
    format: stars
`,
		},
		{
			name: "unknown field rejected",
			content: `outlets:
  - id: x
    name: X
    tier: 1
    format: none
    weight: 0.5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeOutletFile(t, tt.content)
			_, err := LoadOutlets(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadOutlets_MissingFile(t *testing.T) {
	_, err := LoadOutlets(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
