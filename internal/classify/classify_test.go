package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_EntryNamePattern(t *testing.T) {
	require.Equal(t, Show, Classify("Show.Name.S01.1080p", nil))
}

func TestClassify_SampledFilenames(t *testing.T) {
	files := []string{
		"Show.Name.S01E01.mkv",
		"Show.Name.S01E02.mkv",
		"Show.Name.S01E03.mkv",
		"random.mkv",
	}
	require.Equal(t, Show, Classify("Show Name", files))
}

func TestClassify_ManyFilesWithoutPattern(t *testing.T) {
	files := []string{"a.mkv", "b.mkv", "c.mkv", "d.mkv"}
	require.Equal(t, Show, Classify("Collection", files))
}

func TestClassify_FewFilesNoPatternIsMovie(t *testing.T) {
	require.Equal(t, Movie, Classify("Movie.Name.2020.1080p", []string{"movie.mkv"}))
}
