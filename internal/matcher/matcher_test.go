package matcher

import (
	"testing"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/stretchr/testify/require"
)

func buildStructure(episodes ...catalogue.Episode) *catalogue.ShowStructure {
	return &catalogue.ShowStructure{Episodes: episodes}
}

func TestVerifyStrategy(t *testing.T) {
	s := buildStructure(catalogue.Episode{Season: 1, Episode: 1, Title: "Pilot"})
	pairs, ok := Match("show.s01e01.mkv", 1, true, []int{1}, s)
	require.True(t, ok)
	require.Equal(t, []SeasonEpisode{{Season: 1, Episode: 1}}, pairs)
}

func TestTitleMatchStrategy(t *testing.T) {
	s := buildStructure(
		catalogue.Episode{Season: 1, Episode: 1, Title: "The Great Escape"},
		catalogue.Episode{Season: 1, Episode: 2, Title: "A Quiet Night"},
	)
	pairs, ok := Match("Show.Name.The.Great.Escape.720p.HDTV.x264.mkv", 0, false, nil, s)
	require.True(t, ok)
	require.Equal(t, SeasonEpisode{Season: 1, Episode: 1}, pairs[0])
}

func TestUniqueEpisodeNumberStrategy(t *testing.T) {
	s := buildStructure(
		catalogue.Episode{Season: 1, Episode: 5, Title: "Unrelated Title Words"},
		catalogue.Episode{Season: 2, Episode: 9, Title: "Other Words Entirely"},
	)
	pairs, ok := Match("random.E05.mkv", 0, false, []int{5}, s)
	require.True(t, ok)
	require.Equal(t, SeasonEpisode{Season: 1, Episode: 5}, pairs[0])
}

func TestExtractEpisodeTitle(t *testing.T) {
	require.Equal(t, "Great Escape", extractEpisodeTitle("Show.S01E01.Great.Escape.720p.HDTV.x264-GROUP.mkv"))
}
