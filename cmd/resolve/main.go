// Command resolve manually resolves a torrent the daemon could not
// identify on its own: given a torrent's store id and a known catalogue
// id, it assigns the film or episode rows directly and clears manual so
// the next scan cycle builds symlinks for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/reconciled/reconciled/internal/config"
	"github.com/reconciled/reconciled/internal/identify"
	"github.com/reconciled/reconciled/internal/matcher"
	"github.com/reconciled/reconciled/internal/mount"
	"github.com/reconciled/reconciled/internal/release"
	"github.com/reconciled/reconciled/internal/store"
)

var parentSeasonDir = regexp.MustCompile(`(?i)(?:Season|S)\s*(\d+)`)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: resolve <torrent_id> <catalogue_id> [film|show]")
		os.Exit(1)
	}

	torrentID := args[0]
	catalogueID, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue_id must be a number, got %q\n", args[1])
		os.Exit(1)
	}

	forced := ""
	if len(args) == 3 {
		forced = args[2]
		if forced != "film" && forced != "show" {
			fmt.Fprintf(os.Stderr, "type must be 'film' or 'show', got %q\n", args[2])
			os.Exit(1)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	sc := store.NewClient(cfg.Store.BaseURL, time.Duration(cfg.Store.Timeout)*time.Second, log)
	torrents := store.NewTorrentStore(sc)
	films := store.NewFilmStore(sc)
	shows := store.NewShowStore(sc)
	cat := catalogue.NewClient(cfg.Catalogue.BaseURL, cfg.Catalogue.APIKey,
		time.Duration(cfg.Catalogue.Timeout)*time.Second, cfg.Catalogue.RateLimitPerSec, log)
	resolver := identify.NewResolver(torrents, films, shows, log)

	ctx := context.Background()

	torrent, ok := torrents.GetByID(ctx, torrentID)
	if !ok {
		log.Error().Str("torrent_id", torrentID).Msg("torrent not found")
		os.Exit(1)
	}
	log.Info().Str("name", torrent.Name).Int("score", torrent.Score).Str("path", torrent.Path).Msg("torrent")

	candidate, mediaType, ok := lookupCatalogue(ctx, cat, catalogueID, forced)
	if !ok {
		log.Error().Int("catalogue_id", catalogueID).Msg("catalogue id not found")
		os.Exit(1)
	}
	log.Info().Str("title", candidate.Title).Int("year", candidate.Year).Str("type", mediaType).Msg("resolved")

	removeExisting(ctx, films, shows, torrentID, log)

	if mediaType == "film" {
		resolveAsFilm(ctx, resolver, torrent, candidate, log)
	} else {
		resolveAsShow(ctx, resolver, cat, torrent, candidate, log)
	}

	manual := false
	torrents.Update(ctx, torrentID, store.TorrentPatch{Manual: &manual})
	log.Info().Msg("done, next scan cycle will build symlinks")
}

func lookupCatalogue(ctx context.Context, cat *catalogue.Client, id int, forced string) (catalogue.Candidate, string, bool) {
	if forced != "show" {
		if c, ok := cat.LookupFilmByID(ctx, id); ok {
			return c, "film", true
		}
	}
	if forced != "film" {
		if c, ok := cat.LookupShowByID(ctx, id); ok {
			return c, "show", true
		}
	}
	return catalogue.Candidate{}, "", false
}

func removeExisting(ctx context.Context, films *store.FilmStore, shows *store.ShowStore, torrentID string, log zerolog.Logger) {
	existingFilms := films.ListByTorrent(ctx, torrentID)
	existingShows := shows.ListByTorrent(ctx, torrentID)
	if len(existingFilms) == 0 && len(existingShows) == 0 {
		return
	}
	log.Info().Int("films", len(existingFilms)).Int("episodes", len(existingShows)).
		Msg("removing existing media records for this torrent")
	for _, f := range existingFilms {
		films.Delete(ctx, f.ID)
	}
	for _, e := range existingShows {
		shows.Delete(ctx, e.ID)
	}
}

func resolveAsFilm(ctx context.Context, resolver *identify.Resolver, t store.Torrent, c catalogue.Candidate, log zerolog.Logger) {
	outcome := resolver.ResolveFilmDuplicate(ctx, t.ID, t.Score, c.Catalogue, c.Title, c.Year)
	log.Info().Str("outcome", outcome.String()).Msg("film resolution")
}

func resolveAsShow(ctx context.Context, resolver *identify.Resolver, cat *catalogue.Client, t store.Torrent, c catalogue.Candidate, log zerolog.Logger) {
	videoFiles := videoFiles(t.Path)
	if len(videoFiles) == 0 {
		log.Error().Str("path", t.Path).Msg("no video files found at torrent path")
		return
	}

	structure, hasStructure := cat.GetShowStructure(ctx, c.Catalogue)
	if hasStructure {
		log.Info().Int("total_episodes", len(structure.Episodes)).Msg("catalogue structure")
	}

	episodesFound := 0
	for _, file := range videoFiles {
		fileParsed := release.Parse(filepath.Base(file), release.HintEpisode)
		season, hasSeason := fileParsed.Season, fileParsed.HasSeason
		if !hasSeason {
			if m := parentSeasonDir.FindStringSubmatch(filepath.Dir(file)); m != nil {
				season, _ = strconv.Atoi(m[1])
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
			log.Warn().Str("file", file).Msg("skipping, no episode detected")
			continue
		}

		for _, pair := range pairs {
			episodesFound++
			outcome := resolver.ResolveEpisodeDuplicate(ctx, t.ID, t.Score, c.Catalogue, pair.Season, pair.Episode, c.Title, c.Year)
			log.Info().Int("season", pair.Season).Int("episode", pair.Episode).Str("outcome", outcome.String()).Msg("episode resolution")
		}
	}

	if episodesFound == 0 {
		log.Warn().Msg("no episodes could be parsed from the video files")
	}
}

func videoFiles(path string) []string {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []string{path}
	}

	scanner := mount.NewScanner(filepath.Dir(path), zerolog.Nop())
	entries := scanner.Scan()
	return entries[filepath.Base(path)]
}
