// Package symlink reconciles a desired film/show symlink tree against
// what is actually on disk, applying the minimum set of changes.
package symlink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/reconciled/reconciled/internal/matcher"
	"github.com/reconciled/reconciled/internal/store"
)

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {}, ".mpg": {}, ".mpeg": {}, ".ts": {}, ".vob": {},
	".m2ts": {}, ".iso": {},
}

var sanitiseChars = regexp.MustCompile(`[<>:"/\\|?*]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// Sanitise strips reserved filesystem characters, collapses whitespace,
// and trims trailing space/dot from a candidate path component.
func Sanitise(name string) string {
	cleaned := sanitiseChars.ReplaceAllString(name, "")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	return strings.TrimRight(cleaned, " .")
}

// PathMapping rewrites a host-side mount path to its consumer-side
// equivalent by prefix substitution. When the host path does not carry
// the configured prefix, the raw path passes through unchanged.
type PathMapping struct {
	HostPrefix     string
	ConsumerPrefix string
}

func (m PathMapping) Rewrite(hostPath string) string {
	if m.HostPrefix == "" || !strings.HasPrefix(hostPath, m.HostPrefix) {
		return hostPath
	}
	return m.ConsumerPrefix + strings.TrimPrefix(hostPath, m.HostPrefix)
}

// Config configures the reconciler's output roots and path rewriting.
type Config struct {
	FilmsDir string
	ShowsDir string
	Mapping  PathMapping
}

// Reconciler builds and applies the desired symlink tree.
type Reconciler struct {
	cfg       Config
	films     *store.FilmStore
	shows     *store.ShowStore
	torrents  *store.TorrentStore
	catalogue *catalogue.Client
	log       zerolog.Logger

	videoFilesCache map[string][]string
}

// NewReconciler builds a Reconciler.
func NewReconciler(cfg Config, films *store.FilmStore, shows *store.ShowStore, torrents *store.TorrentStore, cat *catalogue.Client, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		cfg: cfg, films: films, shows: shows, torrents: torrents, catalogue: cat,
		log:             log.With().Str("component", "symlink").Logger(),
		videoFilesCache: make(map[string][]string),
	}
}

// Result reports whether each output root changed this cycle, so the
// orchestrator can issue targeted media-server refreshes.
type Result struct {
	FilmsChanged bool
	ShowsChanged bool
}

// Reconcile builds the desired map, diffs it against disk, applies the
// minimum set of changes, and prunes empty directories.
func (r *Reconciler) Reconcile(ctx context.Context) Result {
	desired := r.buildDesired(ctx)
	onDisk := r.scanOnDisk()

	result := Result{}
	for path, target := range desired {
		existing, present := onDisk[path]
		if present && existing == target {
			delete(onDisk, path)
			continue
		}
		if present {
			os.Remove(path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("failed to create parent dir")
			continue
		}
		if err := os.Symlink(target, path); err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("failed to create symlink")
			continue
		}
		markChanged(&result, path, r.cfg)
		delete(onDisk, path)
	}

	for path := range onDisk {
		os.Remove(path)
		markChanged(&result, path, r.cfg)
	}

	pruneEmptyDirs(r.cfg.FilmsDir)
	pruneEmptyDirs(r.cfg.ShowsDir)

	return result
}

func markChanged(result *Result, path string, cfg Config) {
	if strings.HasPrefix(path, cfg.FilmsDir) {
		result.FilmsChanged = true
	}
	if strings.HasPrefix(path, cfg.ShowsDir) {
		result.ShowsChanged = true
	}
}

func (r *Reconciler) buildDesired(ctx context.Context) map[string]string {
	desired := make(map[string]string)

	for _, film := range r.films.ListAll(ctx) {
		if film.Torrent == "" {
			continue
		}
		torrent, ok := r.torrents.GetByID(ctx, film.Torrent)
		if !ok {
			continue
		}
		file := r.largestVideoFile(torrent.Path)
		if file == "" {
			continue
		}
		ext := filepath.Ext(file)
		name := Sanitise(mediaName(film.Title, film.Year, film.TMDBID))
		linkPath := filepath.Join(r.cfg.FilmsDir, name, name+ext)
		desired[linkPath] = r.cfg.Mapping.Rewrite(file)
	}

	episodesByTorrent := make(map[string][]store.Episode)
	for _, ep := range r.shows.ListAll(ctx) {
		if ep.Torrent == "" {
			continue
		}
		episodesByTorrent[ep.Torrent] = append(episodesByTorrent[ep.Torrent], ep)
	}

	for torrentID, episodes := range episodesByTorrent {
		torrent, ok := r.torrents.GetByID(ctx, torrentID)
		if !ok {
			continue
		}
		files := r.videoFiles(torrent.Path)
		structure, hasStructure := r.catalogue.GetShowStructure(ctx, episodes[0].TMDBID)
		if !hasStructure {
			continue
		}

		for _, ep := range episodes {
			file := selectEpisodeFile(files, ep.Season, ep.Episode, structure)
			if file == "" {
				continue
			}
			ext := filepath.Ext(file)
			showDir := Sanitise(mediaName(ep.Title, ep.Year, ep.TMDBID))
			episodeBase := Sanitise(titleWithYear(ep.Title, ep.Year))
			seasonDir := fmt.Sprintf("Season %02d", ep.Season)
			fileName := fmt.Sprintf("%s S%02dE%02d%s", episodeBase, ep.Season, ep.Episode, ext)
			linkPath := filepath.Join(r.cfg.ShowsDir, showDir, seasonDir, fileName)
			desired[linkPath] = r.cfg.Mapping.Rewrite(file)
		}
	}

	return desired
}

// mediaName builds the "Title (Year) [tmdbid=ID]" folder/file stem,
// omitting the "(Year)" segment when year is the spec's unknown sentinel.
func mediaName(title string, year, tmdbID int) string {
	return fmt.Sprintf("%s [tmdbid=%d]", titleWithYear(title, year), tmdbID)
}

// titleWithYear builds the "Title (Year)" stem, omitting "(Year)" when
// year is the spec's unknown sentinel (0).
func titleWithYear(title string, year int) string {
	if year == 0 {
		return title
	}
	return fmt.Sprintf("%s (%d)", title, year)
}

func selectEpisodeFile(files []string, season, episode int, structure *catalogue.ShowStructure) string {
	for _, f := range files {
		pairs, ok := matcher.Match(filepath.Base(f), season, true, []int{episode}, structure)
		if ok && len(pairs) == 1 && pairs[0].Season == season && pairs[0].Episode == episode {
			return f
		}
	}
	return ""
}

func (r *Reconciler) videoFiles(torrentPath string) []string {
	if cached, ok := r.videoFilesCache[torrentPath]; ok {
		return cached
	}
	files := enumerateVideoFiles(torrentPath)
	r.videoFilesCache[torrentPath] = files
	return files
}

func (r *Reconciler) largestVideoFile(torrentPath string) string {
	files := r.videoFiles(torrentPath)
	best := ""
	var bestSize int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			bestSize = info.Size()
			best = f
		}
	}
	return best
}

func enumerateVideoFiles(root string) []string {
	info, err := os.Stat(root)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if _, ok := videoExtensions[strings.ToLower(filepath.Ext(root))]; ok {
			return []string{root}
		}
		return nil
	}

	var files []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

func (r *Reconciler) scanOnDisk() map[string]string {
	onDisk := make(map[string]string)
	for _, root := range []string{r.cfg.FilmsDir, r.cfg.ShowsDir} {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.Type()&os.ModeSymlink == 0 {
				return nil
			}
			target, err := os.Readlink(path)
			if err != nil {
				return nil
			}
			onDisk[path] = target
			return nil
		})
	}
	return onDisk
}

// pruneEmptyDirs removes empty directories under root, bottom-up.
func pruneEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == root {
			return nil
		}
		dirs = append(dirs, path)
		return nil
	})

	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		os.Remove(dir)
	}
}
