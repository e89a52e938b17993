package store

import (
	"database/sql"
	"errors"

	dbutil "github.com/lhardy/cadence/internal/db"
)

// PlaybackRecord is the persisted "where the user was" record.
// LastTrackID is empty when nothing has ever been played.
type PlaybackRecord struct {
	LastTrackID    string
	LastPositionMs int64
}

// Playback returns the persisted playback record.
// A missing row reads as the zero record.
func (m *Manager) Playback() (PlaybackRecord, error) {
	var trackID sql.NullString
	var positionMs int64
	row := m.db.QueryRow(`SELECT last_track_id, last_position_ms FROM playback_state WHERE id = 1`)
	err := row.Scan(&trackID, &positionMs)
	if errors.Is(err, sql.ErrNoRows) {
		return PlaybackRecord{}, nil
	}
	if err != nil {
		return PlaybackRecord{}, err
	}
	return PlaybackRecord{
		LastTrackID:    dbutil.NullStringValue(trackID),
		LastPositionMs: positionMs,
	}, nil
}

// SavePosition overwrites the persisted position, leaving the track id as is.
func (m *Manager) SavePosition(positionMs int64) error {
	_, err := m.db.Exec(`
		INSERT INTO playback_state (id, last_track_id, last_position_ms)
		VALUES (1, NULL, ?)
		ON CONFLICT(id) DO UPDATE SET last_position_ms = excluded.last_position_ms
	`, positionMs)
	return err
}

// SaveTrackID overwrites the persisted track id, leaving the position as is.
// An empty id is stored as NULL.
func (m *Manager) SaveTrackID(trackID string) error {
	var id any
	if trackID != "" {
		id = trackID
	}
	_, err := m.db.Exec(`
		INSERT INTO playback_state (id, last_track_id, last_position_ms)
		VALUES (1, ?, 0)
		ON CONFLICT(id) DO UPDATE SET last_track_id = excluded.last_track_id
	`, id)
	return err
}
