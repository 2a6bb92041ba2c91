// Package matcher maps a video file name plus a partially-known
// (season, episode) pair onto one or more confirmed (season, episode)
// pairs within a show's full episode structure.
package matcher

import (
	"regexp"
	"strings"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/reconciled/reconciled/internal/textmatch"
)

const titleMatchThreshold = 0.45

// SeasonEpisode is a single resolved (season, episode) pair.
type SeasonEpisode struct {
	Season  int
	Episode int
}

// Match runs the strategy chain in order (verify, absolute, title,
// unique-episode-number) and returns the first confident hit.
func Match(fileName string, season int, hasSeason bool, episodes []int, structure *catalogue.ShowStructure) ([]SeasonEpisode, bool) {
	if hasSeason && len(episodes) > 0 {
		if pairs, ok := verify(season, episodes, structure); ok {
			return pairs, true
		}
	}

	if len(episodes) > 0 && len(structure.SeasonNumbers()) >= 2 {
		if pairs, ok := absolute(episodes, structure); ok {
			return pairs, true
		}
	}

	if pair, ok := titleMatch(fileName, structure); ok {
		return []SeasonEpisode{pair}, true
	}

	if !hasSeason && len(episodes) > 0 {
		if pair, ok := uniqueEpisodeNumber(episodes[0], structure); ok {
			return []SeasonEpisode{pair}, true
		}
	}

	return nil, false
}

func verify(season int, episodes []int, structure *catalogue.ShowStructure) ([]SeasonEpisode, bool) {
	pairs := make([]SeasonEpisode, 0, len(episodes))
	for _, ep := range episodes {
		if !structure.HasEpisode(season, ep) {
			return nil, false
		}
		pairs = append(pairs, SeasonEpisode{Season: season, Episode: ep})
	}
	return pairs, true
}

func absolute(episodes []int, structure *catalogue.ShowStructure) ([]SeasonEpisode, bool) {
	pairs := make([]SeasonEpisode, 0, len(episodes))
	for _, ep := range episodes {
		season, episode, ok := structure.LookupAbsolute(ep)
		if !ok {
			return nil, false
		}
		pairs = append(pairs, SeasonEpisode{Season: season, Episode: episode})
	}
	return pairs, true
}

var (
	leadingSxxExx  = regexp.MustCompile(`(?i)^.*?[Ss]\d{1,2}[Ee]\d{1,3}\s*[-._]*\s*`)
	leadingBareNum = regexp.MustCompile(`(?i)^[Ee]?\d{1,4}\s*[-._]+\s*`)
	dashedNumber   = regexp.MustCompile(`(?i)[-._]\s*(?:episode\s*)?\d{1,4}\s*[-._]`)
	qualityTags    = regexp.MustCompile(`(?i)[\[(]?\b(?:720p|1080p|2160p|4k|bluray|bdrip|web[-.]?dl|web[-.]?rip|hdtv|x264|x265|h\.?264|h\.?265|hevc|aac|dts|flac|10bit|remux|hdr|dv|atmos)\b.*$`)
	separatorRun   = regexp.MustCompile(`[._-]+`)
)

// extractEpisodeTitle strips a leading SxxExx or bare episode marker,
// trailing quality/codec tokens, and normalises separators to spaces.
func extractEpisodeTitle(fileName string) string {
	name := fileName
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}

	name = leadingSxxExx.ReplaceAllString(name, "")
	name = leadingBareNum.ReplaceAllString(name, "")
	name = dashedNumber.ReplaceAllString(name, " ")
	name = qualityTags.ReplaceAllString(name, "")
	name = separatorRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

func titleMatch(fileName string, structure *catalogue.ShowStructure) (SeasonEpisode, bool) {
	extracted := extractEpisodeTitle(fileName)
	queryWords := textmatch.Words(extracted)
	if len(queryWords) < 2 {
		return SeasonEpisode{}, false
	}

	bestScore := 0.0
	var best catalogue.Episode
	found := false
	for _, ep := range structure.Episodes {
		epWords := textmatch.Words(ep.Title)
		if len(epWords) == 0 {
			continue
		}
		score := textmatch.Jaccard(queryWords, epWords)
		if score > bestScore {
			bestScore = score
			best = ep
			found = true
		}
	}

	if !found || bestScore < titleMatchThreshold {
		return SeasonEpisode{}, false
	}
	return SeasonEpisode{Season: best.Season, Episode: best.Episode}, true
}

func uniqueEpisodeNumber(episode int, structure *catalogue.ShowStructure) (SeasonEpisode, bool) {
	var match catalogue.Episode
	count := 0
	for _, ep := range structure.Episodes {
		if ep.Episode == episode {
			count++
			match = ep
		}
	}
	if count != 1 {
		return SeasonEpisode{}, false
	}
	return SeasonEpisode{Season: match.Season, Episode: match.Episode}, true
}
