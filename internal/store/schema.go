package store

import (
	"database/sql"
)

const currentSchemaVersion = 3

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		-- Single-row record of where the user was. Overwritten in place.
		CREATE TABLE IF NOT EXISTS playback_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_track_id TEXT,
			last_position_ms INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS metadata_overrides (
			track_id TEXT PRIMARY KEY,
			title TEXT,
			artist TEXT,
			album TEXT,
			art_path TEXT
		);

		CREATE TABLE IF NOT EXISTS favorites (
			track_id TEXT PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			cover_path TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			UNIQUE(playlist_id, track_id)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist
			ON playlist_tracks(playlist_id, position);

		CREATE TABLE IF NOT EXISTS search_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			searched_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: add art_path column if missing
	_, _ = db.Exec(`ALTER TABLE metadata_overrides ADD COLUMN art_path TEXT`)

	// Migration: add cover_path column if missing
	_, _ = db.Exec(`ALTER TABLE playlists ADD COLUMN cover_path TEXT`)

	return nil
}
