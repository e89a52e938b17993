package store

import (
	"database/sql"

	dbutil "github.com/lhardy/cadence/internal/db"
	"github.com/lhardy/cadence/internal/library"
)

// Overrides returns all metadata overrides keyed by track id.
func (m *Manager) Overrides() (map[string]library.Override, error) {
	rows, err := m.db.Query(`SELECT track_id, title, artist, album, art_path FROM metadata_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]library.Override)
	for rows.Next() {
		var id string
		var title, artist, album, artPath sql.NullString
		if err := rows.Scan(&id, &title, &artist, &album, &artPath); err != nil {
			return nil, err
		}
		overrides[id] = library.Override{
			Title:   dbutil.NullStringPtr(title),
			Artist:  dbutil.NullStringPtr(artist),
			Album:   dbutil.NullStringPtr(album),
			ArtPath: dbutil.NullStringPtr(artPath),
		}
	}
	return overrides, rows.Err()
}

// SaveOverride upserts the override for a track. Nil fields stay NULL, so a
// partial edit never clears the other fields' scanned values.
func (m *Manager) SaveOverride(trackID string, o library.Override) error {
	_, err := m.db.Exec(`
		INSERT INTO metadata_overrides (track_id, title, artist, album, art_path)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			art_path = excluded.art_path
	`, trackID, dbutil.StrOrNull(o.Title), dbutil.StrOrNull(o.Artist),
		dbutil.StrOrNull(o.Album), dbutil.StrOrNull(o.ArtPath))
	return err
}

// DeleteOverride removes the override for a track.
func (m *Manager) DeleteOverride(trackID string) error {
	_, err := m.db.Exec(`DELETE FROM metadata_overrides WHERE track_id = ?`, trackID)
	return err
}
