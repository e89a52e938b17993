package library

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultFolder is used when a scan is requested with no scope folders.
const DefaultFolder = "primary:Music"

// Scanner turns raw content-index records into in-scope library tracks.
//
// A record is in scope iff its relative storage path starts with the canonical
// prefix of at least one scope folder. Records from legacy indexes that only
// carry an absolute path are matched against the prefixes as path-segment
// substrings. Records with no usable path field are always excluded.
type Scanner struct {
	index Index
}

// NewScanner creates a scanner over the given content index.
func NewScanner(index Index) *Scanner {
	return &Scanner{index: index}
}

// Scan queries the index and returns the tracks inside the scope folders,
// preserving index order. An empty scope means the single default folder.
// A failed or empty host query yields an empty result, never an error.
func (s *Scanner) Scan(scope []FolderRef) []Track {
	if len(scope) == 0 {
		scope = []FolderRef{ParseFolderRef(DefaultFolder)}
	}

	prefixes := make([]string, len(scope))
	for i, f := range scope {
		prefixes[i] = f.prefix()
	}

	records, err := s.index.Query()
	if err != nil {
		log.Warn().Err(err).Msg("content index query failed")
		return nil
	}

	var tracks []Track
	for _, rec := range records {
		if !inScope(rec, prefixes) {
			continue
		}
		tracks = append(tracks, Track{
			ID:      rec.ID,
			Locator: rec.Locator,
			Title:   rec.Title,
			Artist:  rec.Artist,
			Album:   rec.Album,
		})
	}
	return tracks
}

func inScope(rec RawRecord, prefixes []string) bool {
	switch {
	case rec.RelativePath != "":
		rel := strings.ToLower(rec.RelativePath)
		for _, p := range prefixes {
			if strings.HasPrefix(rel, p) {
				return true
			}
		}
	case rec.AbsolutePath != "":
		abs := strings.ToLower(rec.AbsolutePath)
		for _, p := range prefixes {
			// Legacy records have no volume-relative path, so the folder
			// prefix is matched as a path segment sequence instead.
			if p == "" || strings.Contains(abs, "/"+p) {
				return true
			}
		}
	}
	// Neither path field usable: exclude, never include on ambiguity.
	return false
}
