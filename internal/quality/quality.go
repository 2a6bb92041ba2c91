// Package quality computes a deterministic integer quality score for a
// release name, and a stable human-readable star label for it.
package quality

import (
	"strings"

	"github.com/reconciled/reconciled/internal/release"
)

var resolutionScores = map[string]int{
	"4320p": 100,
	"2160p": 90,
	"1080p": 70,
	"1080i": 65,
	"720p":  50,
	"576p":  30,
	"480p":  20,
	"360p":  10,
}

var sourceScores = map[string]int{
	"uhdbluray": 65,
	"bluray":    60,
	"hddvd":     55,
	"webdl":     40,
	"webrip":    40,
	"web":       40,
	"hdtv":      35,
	"dvd":       30,
	"pdtv":      25,
	"sdtv":      20,
	"telecine":  10,
	"telesync":  8,
	"ts":        8,
	"vhs":       5,
	"workprint": 3,
	"camera":    1,
	"cam":       1,
}

var codecScores = map[string]int{
	"av1":   35,
	"hevc":  30,
	"h265":  30,
	"x265":  30,
	"avc":   20,
	"h264":  20,
	"x264":  20,
	"vp9":   18,
	"mpeg2": 5,
	"xvid":  3,
	"divx":  3,
}

const (
	bonusRemux    = 25
	bonusHDR      = 15
	bonusLossless = 8
	bonusAtmos    = 10
)

var hdrMarkers = []string{"hdr10+", "hdr10", "hdr", "hlg", "dolby.vision", "dolby vision", "dv"}
var losslessMarkers = []string{"dts-hd", "truehd", "flac", "pcm", "lpcm"}
var atmosMarkers = []string{"atmos", "dts:x", "dts-x"}

// Score parses name with the release-name extractor and sums the
// resolution, source, and codec contributions of its extracted tokens,
// plus any case-insensitive bonus markers present in the raw name, never
// returning a negative value. Two names carrying identical tokens always
// produce the same score — the function has no hidden state.
func Score(name string) int {
	parsed := release.Parse(name, release.HintAny)
	lower := strings.ToLower(name)

	score := tableLookup(normalize(parsed.Resolution), resolutionScores)
	score += sourceScore(parsed.Source, lower)
	score += tableLookup(normalize(parsed.VideoCodec), codecScores)

	if containsAny(lower, []string{"remux"}) {
		score += bonusRemux
	}
	if containsAny(lower, hdrMarkers) {
		score += bonusHDR
	}
	if containsAny(lower, losslessMarkers) {
		score += bonusLossless
	}
	if containsAny(lower, atmosMarkers) {
		score += bonusAtmos
	}

	if score < 0 {
		score = 0
	}
	return score
}

// sourceScore scores the parser's Source token, treating a Blu-ray source
// qualified by a UHD marker (either in the token itself or elsewhere in
// the name, since not every parser folds "UHD" into the source token) as
// the higher uhd-bluray tier rather than plain Blu-ray.
func sourceScore(sourceToken, lowerName string) int {
	key := normalize(sourceToken)
	if strings.Contains(key, "bluray") && (strings.Contains(key, "uhd") || strings.Contains(lowerName, "uhd")) {
		return sourceScores["uhdbluray"]
	}
	return tableLookup(key, sourceScores)
}

// tableLookup matches a normalized parser token against table, falling
// back to a substring match against table's keys for compound tokens the
// parser didn't fully canonicalize (e.g. "webdl" containing "web").
func tableLookup(key string, table map[string]int) int {
	if key == "" {
		return 0
	}
	if v, ok := table[key]; ok {
		return v
	}
	best := 0
	for k, v := range table {
		if strings.Contains(key, k) && v > best {
			best = v
		}
	}
	return best
}

// normalize collapses a parser token to a bare lowercase alphanumeric
// key, so that "UHD.BluRay", "uhd-bluray", and "UHD BluRay" all match the
// same table entry regardless of the parser's own punctuation choice.
func normalize(token string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(token) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// FormatScore produces a stable star-count label by threshold.
func FormatScore(score int) string {
	switch {
	case score >= 200:
		return strings.Repeat("★", 5)
	case score >= 150:
		return strings.Repeat("★", 4)
	case score >= 100:
		return strings.Repeat("★", 3)
	case score >= 50:
		return strings.Repeat("★", 2)
	default:
		return strings.Repeat("★", 1)
	}
}
