package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
)

// RawRecord is a single media record as reported by the content index.
//
// Two index eras exist: newer hosts report a structured RelativePath (relative
// to the volume root), older ones only a legacy AbsolutePath. Either field may
// be empty, but a usable record carries at least one of them.
type RawRecord struct {
	ID           string
	Locator      string // playback URI/path
	Title        string
	Artist       string
	Album        string
	RelativePath string
	AbsolutePath string
}

// Index is the host content index collaborator. It can only filter coarsely
// ("is music"); folder scoping is the Scanner's job.
type Index interface {
	Query() ([]RawRecord, error)
}

// audioExts are the extensions the filesystem index treats as music.
var audioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".wav":  true,
}

// FSIndex is a content index backed by a directory tree on disk.
// Records are reported newest-first by file modification time, matching the
// most-recently-added-first ordering of host media indexes.
type FSIndex struct {
	Volume string // volume name, e.g. "primary"
	Root   string // absolute path of the volume root
}

// NewFSIndex creates a filesystem-backed content index.
func NewFSIndex(volume, root string) *FSIndex {
	return &FSIndex{Volume: volume, Root: root}
}

func (x *FSIndex) Query() ([]RawRecord, error) {
	type entry struct {
		rec   RawRecord
		mtime int64
	}
	var entries []entry

	err := filepath.WalkDir(x.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		if !audioExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, relErr := filepath.Rel(x.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		info, infoErr := d.Info()
		var mtime int64
		if infoErr == nil {
			mtime = info.ModTime().UnixNano()
		}

		rec := RawRecord{
			ID:           x.Volume + ":" + rel,
			Locator:      path,
			RelativePath: rel,
		}
		rec.Title, rec.Artist, rec.Album = readTags(path)
		if rec.Title == "" {
			rec.Title = strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		}

		entries = append(entries, entry{rec: rec, mtime: mtime})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].mtime > entries[j].mtime
	})

	records := make([]RawRecord, len(entries))
	for i, e := range entries {
		records[i] = e.rec
	}
	return records, nil
}

// readTags reads title/artist/album from the file's tags.
// Missing or unreadable tags are not an error, just empty fields.
func readTags(path string) (title, artist, album string) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", ""
	}
	return m.Title(), m.Artist(), m.Album()
}
