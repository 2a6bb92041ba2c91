package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeaninglessTitle(t *testing.T) {
	cases := map[string]bool{
		"1234":        true,
		"---":         true,
		"ab":          true,
		"Arrival":     false,
		"The Wire":    false,
	}
	for in, want := range cases {
		require.Equal(t, want, MeaninglessTitle(in), in)
	}
}

func TestValidYear(t *testing.T) {
	require.True(t, ValidYear(2016, "Arrival.2016.1080p.BluRay.x264.mkv"))
	require.False(t, ValidYear(1919, "Old.1919.mkv"))
	require.False(t, ValidYear(2021, "Show.S01E02.Some.Episode.Title.mkv"), "a year absent from the reference text must be rejected")
	require.True(t, ValidYear(2024, ""), "no reference text means the range check alone decides")
}

func TestParse_MultiEpisode(t *testing.T) {
	p := Parse("The.Show.S01E01E02.720p.HDTV.x264.mkv", HintEpisode)
	require.Equal(t, 1, p.Season)
	require.Equal(t, []int{1, 2}, p.Episodes)
}

func TestParse_MultiEpisodeRange(t *testing.T) {
	p := Parse("The.Show.S01E01-E03.720p.HDTV.x264.mkv", HintEpisode)
	require.Equal(t, 1, p.Season)
	require.Equal(t, []int{1, 2, 3}, p.Episodes)
}

func TestParse_SingleEpisode(t *testing.T) {
	p := Parse("The.Show.S01E05.720p.HDTV.x264.mkv", HintEpisode)
	require.Equal(t, 1, p.Season)
	require.Equal(t, []int{5}, p.Episodes)
}

func TestParse_PureFunction(t *testing.T) {
	a := Parse("Arrival.2016.1080p.BluRay.x264.mkv", HintMovie)
	b := Parse("Arrival.2016.1080p.BluRay.x264.mkv", HintMovie)
	require.Equal(t, a, b)
}
