package identify

import (
	"context"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/reconciled/reconciled/internal/classify"
	"github.com/reconciled/reconciled/internal/matcher"
	"github.com/reconciled/reconciled/internal/quality"
	"github.com/reconciled/reconciled/internal/release"
	"github.com/reconciled/reconciled/internal/store"
)

var parentSeasonDir = regexp.MustCompile(`(?i)(?:Season|S)\s*(\d+)`)

// Identifier runs the C9 identification pipeline: classify, then attempt
// identification as the classified type first and the other type on
// failure.
type Identifier struct {
	torrents  *store.TorrentStore
	films     *store.FilmStore
	shows     *store.ShowStore
	catalogue *catalogue.Client
	resolver  *Resolver
	log       zerolog.Logger
}

// NewIdentifier wires an Identifier over the given store adapters and
// catalogue client.
func NewIdentifier(torrents *store.TorrentStore, films *store.FilmStore, shows *store.ShowStore, cat *catalogue.Client, resolver *Resolver, log zerolog.Logger) *Identifier {
	return &Identifier{
		torrents: torrents, films: films, shows: shows,
		catalogue: cat, resolver: resolver,
		log: log.With().Str("component", "identifier").Logger(),
	}
}

// Identify attempts to identify one unidentified torrent row given its
// mount entry name and discovered video files. On success it returns
// true; on failure it sets manual=true on the row and returns false.
func (id *Identifier) Identify(ctx context.Context, t store.Torrent, entryName string, videoFiles []string) bool {
	kind := classify.Classify(entryName, videoFiles)

	first := id.identifyAs(ctx, kind, t, entryName, videoFiles)
	if first {
		return true
	}

	other := classify.Movie
	if kind == classify.Movie {
		other = classify.Show
	}
	if id.identifyAs(ctx, other, t, entryName, videoFiles) {
		return true
	}

	manual := true
	id.torrents.Update(ctx, t.ID, store.TorrentPatch{Manual: &manual})
	return false
}

func (id *Identifier) identifyAs(ctx context.Context, kind classify.Kind, t store.Torrent, entryName string, videoFiles []string) bool {
	if kind == classify.Movie {
		return id.identifyFilm(ctx, t, entryName)
	}
	return id.identifyShow(ctx, t, entryName, videoFiles)
}

func (id *Identifier) identifyFilm(ctx context.Context, t store.Torrent, entryName string) bool {
	parsed := release.Parse(entryName, release.HintMovie)
	if release.MeaninglessTitle(parsed.Title) && t.DebridFilename != "" {
		parsed = release.Parse(t.DebridFilename, release.HintMovie)
	}
	if release.MeaninglessTitle(parsed.Title) {
		return false
	}

	year := 0
	if parsed.HasYear {
		year = parsed.Year
	}
	candidate, ok := id.catalogue.SearchFilm(ctx, parsed.Title, year)
	if !ok {
		return false
	}

	score := quality.Score(scoreSource(t, entryName))
	id.resolver.ResolveFilmDuplicate(ctx, t.ID, score, candidate.Catalogue, candidate.Title, candidate.Year)

	scoreVal := score
	id.torrents.Update(ctx, t.ID, store.TorrentPatch{Score: &scoreVal})
	return true
}

func (id *Identifier) identifyShow(ctx context.Context, t store.Torrent, entryName string, videoFiles []string) bool {
	parsed := release.Parse(entryName, release.HintEpisode)
	if release.MeaninglessTitle(parsed.Title) && t.DebridFilename != "" {
		parsed = release.Parse(t.DebridFilename, release.HintEpisode)
	}
	if release.MeaninglessTitle(parsed.Title) {
		return false
	}

	year := 0
	if parsed.HasYear {
		year = parsed.Year
	}
	candidate, ok := id.catalogue.SearchShow(ctx, parsed.Title, year)
	if !ok {
		return false
	}

	structure, hasStructure := id.catalogue.GetShowStructure(ctx, candidate.Catalogue)

	score := quality.Score(scoreSource(t, entryName))
	anyMatched := false
	anyWon := false

	for _, file := range videoFiles {
		fileParsed := release.Parse(filepath.Base(file), release.HintEpisode)
		season, hasSeason := fileParsed.Season, fileParsed.HasSeason
		if !hasSeason {
			if m := parentSeasonDir.FindStringSubmatch(filepath.Dir(file)); m != nil {
				season = atoiSafe(m[1])
				hasSeason = true
			}
		}

		var pairs []matcher.SeasonEpisode
		if hasStructure {
			pairs, _ = matcher.Match(filepath.Base(file), season, hasSeason, fileParsed.Episodes, structure)
		}
		if len(pairs) == 0 && len(fileParsed.Episodes) > 0 {
			fallbackSeason := season
			if !hasSeason {
				fallbackSeason = 1
			}
			for _, ep := range fileParsed.Episodes {
				pairs = append(pairs, matcher.SeasonEpisode{Season: fallbackSeason, Episode: ep})
			}
		}
		if len(pairs) == 0 {
			continue
		}

		for _, pair := range pairs {
			anyMatched = true
			outcome := id.resolver.ResolveEpisodeDuplicate(ctx, t.ID, score, candidate.Catalogue, pair.Season, pair.Episode, candidate.Title, candidate.Year)
			if outcome != Lost {
				anyWon = true
			}
		}
	}

	scoreVal := score
	id.torrents.Update(ctx, t.ID, store.TorrentPatch{Score: &scoreVal})

	if !anyMatched {
		return false
	}
	if !anyWon {
		archived := true
		id.torrents.Update(ctx, t.ID, store.TorrentPatch{Archived: &archived})
	}
	return anyMatched
}

func scoreSource(t store.Torrent, entryName string) string {
	if t.DebridFilename != "" {
		return t.DebridFilename
	}
	return entryName
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
