// Package classify decides whether a mount entry is a movie or a show.
package classify

import (
	"path/filepath"
	"regexp"
)

// Kind is the classification result.
type Kind int

const (
	Movie Kind = iota
	Show
)

func (k Kind) String() string {
	if k == Show {
		return "show"
	}
	return "movie"
}

const sampleSize = 20

var showPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)S\d{1,2}E\d{1,3}`),
	regexp.MustCompile(`(?i)\bS\d{1,2}\b`),
	regexp.MustCompile(`(?i)Season\s*\d+`),
	regexp.MustCompile(`(?i)\bE\d{2,4}\b`),
	regexp.MustCompile(`(?i)Episode\s*\d+`),
	regexp.MustCompile(`(?i)Complete\s*Series`),
	regexp.MustCompile(`(?i)\bBatch\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}x\d{2,3}\b`),
}

func matchesShowPattern(name string) bool {
	for _, p := range showPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// Classify decides movie vs. show for a mount entry, given its entry
// name and the video files discovered under it.
func Classify(entryName string, videoFiles []string) Kind {
	if matchesShowPattern(entryName) {
		return Show
	}

	sample := videoFiles
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	matched := 0
	for _, f := range sample {
		if matchesShowPattern(filepath.Base(f)) {
			matched++
		}
	}
	if len(sample) > 0 && matched*2 > len(sample) {
		return Show
	}

	if len(videoFiles) > 3 {
		return Show
	}

	return Movie
}
