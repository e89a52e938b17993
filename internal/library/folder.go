package library

import (
	"strings"
)

// FolderRef is an opaque, permission-scoped handle to a directory tree.
// Its string form is "volume:Sub/Path", e.g. "primary:Music/Rock".
type FolderRef struct {
	raw string
}

// ParseFolderRef builds a FolderRef from its string identifier.
func ParseFolderRef(s string) FolderRef {
	return FolderRef{raw: s}
}

// String returns the round-trippable identifier.
func (f FolderRef) String() string {
	return f.raw
}

// Volume returns the volume part of the reference ("" if none).
func (f FolderRef) Volume() string {
	if i := strings.IndexByte(f.raw, ':'); i >= 0 {
		return f.raw[:i]
	}
	return ""
}

// Subpath returns the path part after the volume.
func (f FolderRef) Subpath() string {
	if i := strings.IndexByte(f.raw, ':'); i >= 0 {
		return f.raw[i+1:]
	}
	return f.raw
}

// prefix returns the canonical relative-path prefix used for scope matching:
// the subpath after the colon, lowercased, with a trailing slash.
// An empty subpath yields "", which matches everything on the volume.
func (f FolderRef) prefix() string {
	sub := strings.Trim(f.Subpath(), "/")
	if sub == "" {
		return ""
	}
	return strings.ToLower(sub) + "/"
}
