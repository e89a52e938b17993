package store

import (
	"database/sql"
	"time"

	dbutil "github.com/lhardy/cadence/internal/db"
)

// Playlist is a user-created, ordered collection of track references.
type Playlist struct {
	ID        int64
	Name      string
	CoverPath string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePlaylist creates an empty playlist and returns its id.
func (m *Manager) CreatePlaylist(name, coverPath string) (int64, error) {
	now := time.Now().Unix()
	var cover any
	if coverPath != "" {
		cover = coverPath
	}
	res, err := m.db.Exec(`
		INSERT INTO playlists (name, cover_path, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, name, cover, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RenamePlaylist changes a playlist's name.
func (m *Manager) RenamePlaylist(id int64, name string) error {
	_, err := m.db.Exec(`
		UPDATE playlists SET name = ?, updated_at = ? WHERE id = ?
	`, name, time.Now().Unix(), id)
	return err
}

// DeletePlaylist removes a playlist; its track references cascade away.
func (m *Manager) DeletePlaylist(id int64) error {
	_, err := m.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	return err
}

// Playlists returns all playlists, most recently updated first.
func (m *Manager) Playlists() ([]Playlist, error) {
	rows, err := m.db.Query(`
		SELECT id, name, cover_path, created_at, updated_at
		FROM playlists
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		var cover sql.NullString
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.Name, &cover, &created, &updated); err != nil {
			return nil, err
		}
		p.CoverPath = dbutil.NullStringValue(cover)
		p.CreatedAt = time.Unix(created, 0)
		p.UpdatedAt = time.Unix(updated, 0)
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// PlaylistTrackIDs returns the playlist's track ids in stored position order.
func (m *Manager) PlaylistTrackIDs(playlistID int64) ([]string, error) {
	rows, err := m.db.Query(`
		SELECT track_id FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetPlaylistTracks replaces a playlist's track list. Duplicate ids collapse
// to their first occurrence; positions are re-numbered from zero.
func (m *Manager) SetPlaylistTracks(playlistID int64, trackIDs []string) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO playlist_tracks (playlist_id, position, track_id)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		pos := 0
		seen := make(map[string]bool, len(trackIDs))
		for _, id := range trackIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, err := stmt.Exec(playlistID, pos, id); err != nil {
				return err
			}
			pos++
		}

		_, err = tx.Exec(`UPDATE playlists SET updated_at = ? WHERE id = ?`,
			time.Now().Unix(), playlistID)
		return err
	})
}

// AppendPlaylistTracks adds tracks at the end of a playlist, skipping ids
// already present. Positions need not be gap-free, only ordered.
func (m *Manager) AppendPlaylistTracks(playlistID int64, trackIDs ...string) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		var next int
		row := tx.QueryRow(`
			SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_tracks WHERE playlist_id = ?
		`, playlistID)
		if err := row.Scan(&next); err != nil {
			return err
		}

		for _, id := range trackIDs {
			res, err := tx.Exec(`
				INSERT OR IGNORE INTO playlist_tracks (playlist_id, position, track_id)
				VALUES (?, ?, ?)
			`, playlistID, next, id)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				next++
			}
		}

		_, err := tx.Exec(`UPDATE playlists SET updated_at = ? WHERE id = ?`,
			time.Now().Unix(), playlistID)
		return err
	})
}

// RemovePlaylistTrack removes one track reference from a playlist.
func (m *Manager) RemovePlaylistTrack(playlistID int64, trackID string) error {
	_, err := m.db.Exec(`
		DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?
	`, playlistID, trackID)
	return err
}
