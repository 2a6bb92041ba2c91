package catalogue

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// Episode is one non-special episode within a ShowStructure.
type Episode struct {
	Season  int
	Episode int
	Title   string
}

// ShowStructure is the full season/episode layout for a single show,
// memoised for the process lifetime. It precomputes an absolute ordering:
// a 1-based across-seasons index mapped to (season, episode).
type ShowStructure struct {
	CatalogueID int
	Episodes    []Episode

	absMap map[int][2]int
}

// SeasonNumbers returns the sorted, de-duplicated season numbers present.
func (s *ShowStructure) SeasonNumbers() []int {
	seen := make(map[int]struct{})
	for _, e := range s.Episodes {
		seen[e.Season] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// LookupAbsolute maps a 1-based absolute episode number to (season,
// episode), or (0, 0, false) if out of range.
func (s *ShowStructure) LookupAbsolute(n int) (season, episode int, ok bool) {
	pair, ok := s.absMap[n]
	if !ok {
		return 0, 0, false
	}
	return pair[0], pair[1], true
}

// HasEpisode reports whether (season, episode) exists in the structure.
func (s *ShowStructure) HasEpisode(season, episode int) bool {
	for _, e := range s.Episodes {
		if e.Season == season && e.Episode == episode {
			return true
		}
	}
	return false
}

func (s *ShowStructure) buildAbsoluteMap() {
	bySeason := make(map[int][]Episode)
	for _, e := range s.Episodes {
		bySeason[e.Season] = append(bySeason[e.Season], e)
	}

	s.absMap = make(map[int][2]int)
	abs := 1
	for _, season := range s.SeasonNumbers() {
		eps := bySeason[season]
		sort.Slice(eps, func(i, j int) bool { return eps[i].Episode < eps[j].Episode })
		for _, e := range eps {
			s.absMap[abs] = [2]int{e.Season, e.Episode}
			abs++
		}
	}
}

type showResponse struct {
	Seasons []struct {
		SeasonNumber int `json:"season_number"`
	} `json:"seasons"`
}

type seasonResponse struct {
	Episodes []struct {
		EpisodeNumber int    `json:"episode_number"`
		Name          string `json:"name"`
	} `json:"episodes"`
}

// GetShowStructure fetches and memoises the full episode structure for
// catalogueID, excluding season 0 (specials). A cache miss that fails to
// fetch any episodes is memoised as absent so repeated calls do not retry
// within the process lifetime.
func (c *Client) GetShowStructure(ctx context.Context, catalogueID int) (*ShowStructure, bool) {
	c.structMu.Lock()
	if s, ok := c.structures[catalogueID]; ok {
		c.structMu.Unlock()
		return s, s != nil
	}
	c.structMu.Unlock()

	structure := c.fetchShowStructure(ctx, catalogueID)

	c.structMu.Lock()
	c.structures[catalogueID] = structure
	c.structMu.Unlock()

	return structure, structure != nil
}

func (c *Client) fetchShowStructure(ctx context.Context, catalogueID int) *ShowStructure {
	var show showResponse
	q := url.Values{"api_key": {c.apiKey}}
	if err := c.getRetrying(ctx, fmt.Sprintf("/tv/%d", catalogueID), q, &show); err != nil {
		c.log.Warn().Err(err).Int("catalogue_id", catalogueID).Msg("failed to fetch show")
		return nil
	}

	structure := &ShowStructure{CatalogueID: catalogueID}
	for _, season := range show.Seasons {
		if season.SeasonNumber == 0 {
			continue
		}
		var seasonData seasonResponse
		path := fmt.Sprintf("/tv/%d/season/%d", catalogueID, season.SeasonNumber)
		if err := c.getRetrying(ctx, path, q, &seasonData); err != nil {
			c.log.Warn().Err(err).Int("catalogue_id", catalogueID).Int("season", season.SeasonNumber).
				Msg("failed to fetch season")
			continue
		}
		for _, ep := range seasonData.Episodes {
			structure.Episodes = append(structure.Episodes, Episode{
				Season:  season.SeasonNumber,
				Episode: ep.EpisodeNumber,
				Title:   ep.Name,
			})
		}
	}

	if len(structure.Episodes) == 0 {
		c.log.Warn().Int("catalogue_id", catalogueID).Msg("show has no episodes")
		return nil
	}

	structure.buildAbsoluteMap()
	return structure
}
