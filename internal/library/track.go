package library

// Track represents a single track in the library.
//
// Identity is ID; everything else can be rewritten by the metadata overlay.
// The authoritative track list is replaced wholesale on every rescan, so a
// Track only survives a rescan as a value copy.
type Track struct {
	ID       string // opaque stable identifier
	Locator  string // URI or path used for playback
	Title    string
	Artist   string
	Album    string
	ArtPath  string // album art locator, empty if none
	Favorite bool
}

// DisplayTitle returns the title, falling back to the locator when the tag
// was empty.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Locator
}
