package store

import (
	"database/sql"
	"time"

	dbutil "github.com/lhardy/cadence/internal/db"
)

// maxSearchHistory bounds the search history size.
const maxSearchHistory = 20

// SearchItem is one remembered search query.
type SearchItem struct {
	Query      string
	SearchedAt time.Time
}

// AddSearch records a search query. Queries dedup case-insensitively: an
// existing entry is moved to the front with a fresh timestamp. The history is
// trimmed to its bound, oldest entries first.
func (m *Manager) AddSearch(query string) error {
	if query == "" {
		return nil
	}
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM search_history WHERE query = ? COLLATE NOCASE
		`, query); err != nil {
			return err
		}

		if _, err := tx.Exec(`
			INSERT INTO search_history (query, searched_at) VALUES (?, ?)
		`, query, time.Now().Unix()); err != nil {
			return err
		}

		_, err := tx.Exec(`
			DELETE FROM search_history WHERE id NOT IN (
				SELECT id FROM search_history ORDER BY id DESC LIMIT ?
			)
		`, maxSearchHistory)
		return err
	})
}

// Searches returns the search history, newest first.
func (m *Manager) Searches() ([]SearchItem, error) {
	rows, err := m.db.Query(`
		SELECT query, searched_at FROM search_history ORDER BY id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SearchItem
	for rows.Next() {
		var item SearchItem
		var at int64
		if err := rows.Scan(&item.Query, &at); err != nil {
			return nil, err
		}
		item.SearchedAt = time.Unix(at, 0)
		items = append(items, item)
	}
	return items, rows.Err()
}
