package store

// IsFavorite checks if a track is favorited.
func (m *Manager) IsFavorite(trackID string) (bool, error) {
	var count int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM favorites WHERE track_id = ?`, trackID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ToggleFavorite flips a track's favorite status.
// Returns the new status (true = now favorited).
func (m *Manager) ToggleFavorite(trackID string) (bool, error) {
	isFav, err := m.IsFavorite(trackID)
	if err != nil {
		return false, err
	}

	if isFav {
		_, err = m.db.Exec(`DELETE FROM favorites WHERE track_id = ?`, trackID)
		if err != nil {
			return false, err
		}
		return false, nil
	}

	_, err = m.db.Exec(`INSERT OR IGNORE INTO favorites (track_id) VALUES (?)`, trackID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// FavoriteIDs returns all favorited track ids as a map for efficient lookup.
func (m *Manager) FavoriteIDs() (map[string]bool, error) {
	rows, err := m.db.Query(`SELECT track_id FROM favorites`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		favorites[id] = true
	}
	return favorites, rows.Err()
}
