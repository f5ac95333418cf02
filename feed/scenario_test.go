package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/trail"
)

func TestParseVisitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want trail.Visit
	}{
		{
			name: "ref title image",
			line: `1 "Golden Gate Bridge" bridge.jpg`,
			want: trail.Visit{Ref: "1", Title: "Golden Gate Bridge", Image: "bridge.jpg"},
		},
		{
			name: "ref and bare title",
			line: `42 Presidio`,
			want: trail.Visit{Ref: "42", Title: "Presidio"},
		},
		{
			name: "dash means no ref",
			line: `- "Unlisted Overlook"`,
			want: trail.Visit{Title: "Unlisted Overlook"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVisitLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVisitLineRejectsMalformed(t *testing.T) {
	lines := []string{
		`"title only"`,
		`1 too many fields here`,
		`1 "unterminated title`,
		``,
	}
	for _, line := range lines {
		_, err := ParseVisitLine(line)
		assert.True(t, errors.IsInvalidRequestError(err), "line %q should be rejected", line)
	}
}

func TestParseNeighborLine(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		line string
		want trail.Neighbor
	}{
		{
			name: "ref and title",
			line: `2 "Fort Point"`,
			want: trail.Neighbor{Ref: "2", Title: "Fort Point"},
		},
		{
			name: "third field as score",
			line: `3 "Crissy Field" 0.9`,
			want: trail.Neighbor{Ref: "3", Title: "Crissy Field", Score: score(0.9)},
		},
		{
			name: "third field as image",
			line: `3 "Crissy Field" crissy.jpg`,
			want: trail.Neighbor{Ref: "3", Title: "Crissy Field", Image: "crissy.jpg"},
		},
		{
			name: "image then score",
			line: `4 "The Presidio" presidio.jpg 0.75`,
			want: trail.Neighbor{Ref: "4", Title: "The Presidio", Image: "presidio.jpg", Score: score(0.75)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNeighborLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNeighborLineRejectsBadScore(t *testing.T) {
	_, err := ParseNeighborLine(`4 "The Presidio" presidio.jpg high`)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestParseScenarioCompilesSteps(t *testing.T) {
	doc := []byte(`
name = "bridge-walk"
description = "A stroll across the Golden Gate"
delay_ms = 100

[[step]]
visit = '1 "Golden Gate Bridge" bridge.jpg'

[[step]]
active = "Fort Point"
visit = '2 "Fort Point"'
delay_ms = 0

[[step]]
neighbors_of = "2"
neighbors = [
  '3 "Crissy Field" 0.9',
  '4 "The Presidio" presidio.jpg 0.7',
]
`)

	sc, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "bridge-walk", sc.Name)
	assert.Equal(t, "A stroll across the Golden Gate", sc.Description)
	require.NotNil(t, sc.DefaultDelay)
	assert.Equal(t, 100*time.Millisecond, *sc.DefaultDelay)
	require.Len(t, sc.Steps, 3)

	first := sc.Steps[0]
	require.Len(t, first.Visits, 1)
	assert.Equal(t, "Golden Gate Bridge", first.Visits[0].Title)
	assert.Nil(t, first.Delay, "step without delay_ms defers to the scenario default")

	second := sc.Steps[1]
	assert.Equal(t, "Fort Point", second.Active)
	require.NotNil(t, second.Delay)
	assert.Equal(t, time.Duration(0), *second.Delay, "explicit zero is kept, not treated as unset")

	third := sc.Steps[2]
	require.Contains(t, third.Similar, "2")
	neighbors := third.Similar["2"]
	require.Len(t, neighbors, 2)
	assert.Equal(t, "Crissy Field", neighbors[0].Title)
	require.NotNil(t, neighbors[0].Score)
	assert.InDelta(t, 0.9, *neighbors[0].Score, 1e-9)
	assert.Equal(t, "presidio.jpg", neighbors[1].Image)
}

func TestParseScenarioRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "no steps",
			doc:  `name = "empty"`,
		},
		{
			name: "step plays nothing",
			doc: `
[[step]]
delay_ms = 100
`,
		},
		{
			name: "neighbors without owner",
			doc: `
[[step]]
neighbors = ['2 "Fort Point"']
`,
		},
		{
			name: "owner without neighbors",
			doc: `
[[step]]
neighbors_of = "2"
`,
		},
		{
			name: "bad visit line",
			doc: `
[[step]]
visit = '1 "unterminated'
`,
		},
		{
			name: "empty visit title",
			doc: `
[[step]]
visit = '1 ""'
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.True(t, errors.IsInvalidRequestError(err))
		})
	}
}

func TestLoadNamesScenarioAfterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unnamed-tour.toml")
	doc := "[[step]]\nvisit = '1 \"Golden Gate Bridge\"'\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "unnamed-tour", sc.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.True(t, errors.IsNotFoundError(err))
}

func TestFindScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[step]]\nvisit = '1 Demo'\n"), 0644))

	t.Run("bare name resolves against the scenario dir", func(t *testing.T) {
		got, err := FindScenario("demo", dir)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("explicit path is used as-is", func(t *testing.T) {
		got, err := FindScenario(path, "elsewhere")
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("unknown name is not found", func(t *testing.T) {
		_, err := FindScenario("ghost", dir)
		assert.True(t, errors.IsNotFoundError(err))
	})
}
