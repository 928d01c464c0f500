package keywords_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"newsagent/internal/keywords"
)

func TestMatchShortKeywordNeedsBoundary(t *testing.T) {
	require.Nil(t, keywords.Match("tailored solutions", []string{"AI"}))
	require.Equal(t, []string{"AI"}, keywords.Match("new AI tool released", []string{"AI"}))
	require.Equal(t, []string{"AI"}, keywords.Match("AI", []string{"AI"}))
	require.Equal(t, []string{"AI"}, keywords.Match("the rise of ai.", []string{"AI"}))
}

func TestMatchLongKeywordSubstring(t *testing.T) {
	// Longer keywords match anywhere, boundaries ignored.
	require.Equal(t, []string{"print"}, keywords.Match("3D printing is hot", []string{"print"}))
	require.Equal(t, []string{"Robot"}, keywords.Match("new robotics lab", []string{"Robot"}))
}

func TestMatchPreservesInputOrderAndCase(t *testing.T) {
	got := keywords.Match("LLM agents use AI for robotics", []string{"robotics", "LLM", "AI", "quantum"})
	require.Equal(t, []string{"robotics", "LLM", "AI"}, got)
}

func TestMatchEmptyInputs(t *testing.T) {
	require.Nil(t, keywords.Match("", []string{"AI"}))
	require.Nil(t, keywords.Match("some text", nil))
	require.Nil(t, keywords.Match("some text", []string{""}))
}

func TestMatchShortKeywordInsideWord(t *testing.T) {
	require.Nil(t, keywords.Match("Google announced a model", []string{"Go"}))
	require.Equal(t, []string{"Go"}, keywords.Match("Go modules explained", []string{"Go"}))
}

func TestMatchShortNonASCIIKeyword(t *testing.T) {
	// Two runes but four bytes: still a short keyword, so it needs a
	// boundary match rather than a substring hit inside a longer word.
	require.Equal(t, []string{"ИИ"}, keywords.Match("развитие ии в медицине", []string{"ИИ"}))
	require.Nil(t, keywords.Match("линии на карте", []string{"ИИ"}))
}
