package quality

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore_AdditiveTable(t *testing.T) {
	// 2160p(90) + UHD-Blu-ray(65) + HEVC(30) + REMUX(25) = 210
	got := Score("Arrival.2016.2160p.UHD.BluRay.REMUX.HEVC.mkv")
	require.Equal(t, 210, got)
}

func TestScore_NeverNegative(t *testing.T) {
	require.GreaterOrEqual(t, Score("no.quality.tokens.here.mkv"), 0)
}

func TestScore_Monotone(t *testing.T) {
	base := Score("Arrival.2016.1080p.BluRay.x264.mkv")
	withRemux := Score("Arrival.2016.1080p.BluRay.x264.REMUX.mkv")
	require.GreaterOrEqual(t, withRemux, base)
}

func TestScore_ReferentiallyTransparent(t *testing.T) {
	name := "The.Show.S01E01.720p.HDTV.x264-GROUP.mkv"
	require.Equal(t, Score(name), Score(name))
}

func TestFormatScore_Thresholds(t *testing.T) {
	require.Equal(t, "★★★★★", FormatScore(250))
	require.Equal(t, "★★★★", FormatScore(150))
	require.Equal(t, "★", FormatScore(0))
}
