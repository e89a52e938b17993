// Package views derives the named track listings the playback session
// consumes: all tracks, favorites, artist/album groups and custom playlists,
// with search filtering and stable sorting.
package views

import (
	"sort"
	"strings"

	"github.com/lhardy/cadence/internal/library"
)

// Kind selects which listing is assembled.
type Kind int

const (
	KindAll Kind = iota
	KindFavorites
	KindArtist
	KindAlbum
	KindCustom
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAll:
		return "All"
	case KindFavorites:
		return "Favorites"
	case KindArtist:
		return "Artist"
	case KindAlbum:
		return "Album"
	case KindCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// SortMode controls track ordering within a listing.
type SortMode int

const (
	SortNone SortMode = iota // keep input order
	SortTitleAsc
	SortTitleDesc
)

// UnknownKey is the bucket for tracks missing an artist or album value.
// The bucket is queryable like any other group key.
const UnknownKey = "Unknown"

// Query describes one listing to assemble.
type Query struct {
	Kind     Kind
	GroupKey string   // selects the partition for artist/album kinds
	TrackIDs []string // stored track order for KindCustom
	Search   string   // case-insensitive substring on title or artist
	Sort     SortMode
}

// Assemble derives an ordered track listing from the overlaid track set.
// Search filtering is applied before sorting; sorting is stable so equal keys
// preserve prior relative order.
func Assemble(tracks []library.Track, q Query) []library.Track {
	var out []library.Track

	switch q.Kind {
	case KindAll:
		out = append(out, tracks...)
	case KindFavorites:
		for _, t := range tracks {
			if t.Favorite {
				out = append(out, t)
			}
		}
	case KindArtist:
		for _, t := range tracks {
			if groupValue(t.Artist) == q.GroupKey {
				out = append(out, t)
			}
		}
	case KindAlbum:
		for _, t := range tracks {
			if groupValue(t.Album) == q.GroupKey {
				out = append(out, t)
			}
		}
	case KindCustom:
		byID := make(map[string]library.Track, len(tracks))
		for _, t := range tracks {
			byID[t.ID] = t
		}
		for _, id := range q.TrackIDs {
			// Ids with no matching track are dropped: the track was
			// deleted or is no longer in scope.
			if t, ok := byID[id]; ok {
				out = append(out, t)
			}
		}
	}

	out = filterSearch(out, q.Search)
	sortTracks(out, q.Sort)
	return out
}

// GroupKeys returns the distinct group keys for an artist or album view,
// sorted by the given mode. Other kinds have no group keys.
func GroupKeys(tracks []library.Track, kind Kind, mode SortMode) []string {
	if kind != KindArtist && kind != KindAlbum {
		return nil
	}

	seen := make(map[string]bool)
	var keys []string
	for _, t := range tracks {
		v := t.Artist
		if kind == KindAlbum {
			v = t.Album
		}
		key := groupValue(v)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	switch mode {
	case SortTitleAsc:
		sort.SliceStable(keys, func(i, j int) bool {
			return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
		})
	case SortTitleDesc:
		sort.SliceStable(keys, func(i, j int) bool {
			return strings.ToLower(keys[i]) > strings.ToLower(keys[j])
		})
	}
	return keys
}

func groupValue(v string) string {
	if v == "" {
		return UnknownKey
	}
	return v
}

func filterSearch(tracks []library.Track, query string) []library.Track {
	if query == "" {
		return tracks
	}
	q := strings.ToLower(query)
	out := tracks[:0]
	for _, t := range tracks {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) {
			out = append(out, t)
		}
	}
	return out
}

func sortTracks(tracks []library.Track, mode SortMode) {
	switch mode {
	case SortTitleAsc:
		sort.SliceStable(tracks, func(i, j int) bool {
			return strings.ToLower(tracks[i].Title) < strings.ToLower(tracks[j].Title)
		})
	case SortTitleDesc:
		sort.SliceStable(tracks, func(i, j int) bool {
			return strings.ToLower(tracks[i].Title) > strings.ToLower(tracks[j].Title)
		})
	}
}
