package library

// Override holds user-entered metadata for a single track.
// A nil field means "no override", not "clear the value".
type Override struct {
	Title   *string
	Artist  *string
	Album   *string
	ArtPath *string
}

// ApplyOverlay merges user overrides and favorite membership onto scanned
// tracks. Override fields win field-by-field over scanned values; a lookup
// miss is equivalent to no override. The input slice is left untouched.
//
// The function is pure and idempotent: applying it twice with the same
// overrides and favorites yields the same output.
func ApplyOverlay(tracks []Track, overrides map[string]Override, favorites map[string]bool) []Track {
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		if o, ok := overrides[t.ID]; ok {
			if o.Title != nil {
				t.Title = *o.Title
			}
			if o.Artist != nil {
				t.Artist = *o.Artist
			}
			if o.Album != nil {
				t.Album = *o.Album
			}
			if o.ArtPath != nil {
				t.ArtPath = *o.ArtPath
			}
		}
		t.Favorite = favorites[t.ID]
		out[i] = t
	}
	return out
}
