// Package mount enumerates the reconciliation mount: each top-level entry
// is either a loose video file or a directory walked recursively for
// video files.
package mount

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {}, ".mpg": {}, ".mpeg": {}, ".ts": {}, ".vob": {},
	".m2ts": {}, ".iso": {},
}

// Scanner walks a mount root.
type Scanner struct {
	root string
	log  zerolog.Logger
}

// NewScanner builds a Scanner rooted at root.
func NewScanner(root string, log zerolog.Logger) *Scanner {
	return &Scanner{root: root, log: log.With().Str("component", "mount").Logger()}
}

// Root returns the mount root this Scanner walks.
func (s *Scanner) Root() string {
	return s.root
}

// EntryPath returns the full path of a top-level mount entry by name.
func (s *Scanner) EntryPath(name string) string {
	return filepath.Join(s.root, name)
}

func isVideo(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Scan enumerates every top-level entry under the mount root, mapping
// entry name to its video file paths. Directories are walked recursively
// concurrently; walk errors on one entry are logged and do not abort
// the scan.
func (s *Scanner) Scan() map[string][]string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.log.Error().Err(err).Str("root", s.root).Msg("failed to read mount root")
		return nil
	}

	result := make(map[string][]string, len(entries))
	var mu sync.Mutex
	var g errgroup.Group

	for _, e := range entries {
		e := e
		g.Go(func() error {
			name := e.Name()
			path := filepath.Join(s.root, name)

			if !e.IsDir() {
				if isVideo(name) {
					mu.Lock()
					result[name] = []string{path}
					mu.Unlock()
				}
				return nil
			}

			files := s.walkDir(path)
			if len(files) > 0 {
				mu.Lock()
				result[name] = files
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (s *Scanner) walkDir(dir string) []string {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("walk error, skipping entry")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if isVideo(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("dir", dir).Msg("walk aborted")
	}
	sort.Strings(files)
	return files
}
