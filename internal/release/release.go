// Package release is a thin, testable wrapper around the release-name
// token extractor (github.com/moistari/rls), exposing exactly the fields
// the identification pipeline needs and the two validation predicates
// (meaningless title, valid year) the rest of the system depends on.
package release

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/moistari/rls"
)

// Hint names the kind of release the caller expects. Parse accepts it but
// does not consult it: every field is extracted the same way for every
// hint.
type Hint int

const (
	// HintAny names no expected kind.
	HintAny Hint = iota
	// HintMovie names a movie release.
	HintMovie
	// HintEpisode names an episode release.
	HintEpisode
)

// Parsed is the subset of an rls.Release this system consumes.
type Parsed struct {
	Title      string
	Year       int // 0 = absent, or rejected by ValidYear against the parsed name
	HasYear    bool
	Season     int // 0 = absent
	HasSeason  bool
	Episodes   []int // nil = absent; len>1 for multi-episode files like S01E01E02
	Resolution string
	Source     string
	VideoCodec string
	AudioCodec string
	OtherTags  []string
}

// Parse extracts title/year/season/episode/quality tokens from name. It is
// a pure function of its input.
func Parse(name string, hint Hint) Parsed {
	r := rls.ParseString(name)
	return fromRelease(r, name, hint)
}

func fromRelease(r rls.Release, name string, hint Hint) Parsed {
	p := Parsed{
		Title:      r.Title,
		Resolution: r.Resolution,
		Source:     r.Source,
	}

	if r.Year != 0 && ValidYear(r.Year, name) {
		p.Year = r.Year
		p.HasYear = true
	}
	if r.Series > 0 {
		p.Season = r.Series
		p.HasSeason = true
	}
	if r.Episode > 0 {
		p.Episodes = extractEpisodes(name, r.Episode)
	}

	if len(r.Codec) > 0 {
		p.VideoCodec = r.Codec[0]
	}
	p.AudioCodec = r.Audio
	p.OtherTags = append(p.OtherTags, r.HDR...)
	p.OtherTags = append(p.OtherTags, r.Other...)
	if r.Group != "" {
		p.OtherTags = append(p.OtherTags, r.Group)
	}

	_ = hint // not consulted; no field above depends on it
	return p
}

var (
	allDigits  = regexp.MustCompile(`^\d+$`)
	allNonWord = regexp.MustCompile(`^\W+$`)

	// episodeRangeBlock matches a "SxxEyy-Ezz" or "SxxEyy-zz" span, e.g.
	// S01E01-E03 or S01E01-03.
	episodeRangeBlock = regexp.MustCompile(`(?i)S\d{1,4}E(\d{1,4})-E?(\d{1,4})`)
	// seasonEpisodeBlock matches a season marker followed by one or more
	// concatenated episode tokens, e.g. S01E01E02E03.
	seasonEpisodeBlock = regexp.MustCompile(`(?i)S\d{1,4}((?:[ ._-]?E\d{1,4})+)`)
	episodeToken       = regexp.MustCompile(`(?i)E(\d{1,4})`)
)

// extractEpisodes recovers the full episode list for multi-episode files
// (e.g. "S01E01E02" or "S01E01-E03") that rls.Release.Episode collapses to
// its first number. It falls back to that single number when name carries
// no further episode tokens.
func extractEpisodes(name string, fallback int) []int {
	if m := episodeRangeBlock.FindStringSubmatch(name); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end > start {
			episodes := make([]int, 0, end-start+1)
			for e := start; e <= end; e++ {
				episodes = append(episodes, e)
			}
			return episodes
		}
	}

	if m := seasonEpisodeBlock.FindStringSubmatch(name); m != nil {
		tokens := episodeToken.FindAllStringSubmatch(m[1], -1)
		if len(tokens) > 0 {
			episodes := make([]int, 0, len(tokens))
			for _, tok := range tokens {
				n, _ := strconv.Atoi(tok[1])
				episodes = append(episodes, n)
			}
			return episodes
		}
	}

	if fallback > 0 {
		return []int{fallback}
	}
	return nil
}

// MeaninglessTitle reports whether title carries no identifying signal:
// all digits, all non-word characters, or length <= 2.
func MeaninglessTitle(title string) bool {
	t := strings.TrimSpace(title)
	if len(t) <= 2 {
		return true
	}
	if allDigits.MatchString(t) {
		return true
	}
	if allNonWord.MatchString(t) {
		return true
	}
	return false
}

// ValidYear reports whether year lies in [1920, currentYear+1] and, when
// reference is non-empty, appears literally as a substring of reference.
// The literal-substring check is a deliberate, preserved hack: it guards
// against a parser correctly extracting a 4-digit number that is actually
// part of an episode title rather than a release year.
func ValidYear(year int, reference string) bool {
	now := time.Now().Year()
	if year < 1920 || year > now+1 {
		return false
	}
	if reference == "" {
		return true
	}
	return strings.Contains(reference, strconv.Itoa(year))
}
