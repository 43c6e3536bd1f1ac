// Package settings persists operator-tunable key/value settings.
//
// Settings flagged sensitive (API keys, tokens) are masked on list reads;
// only a direct Get returns the raw value.
package settings

import (
	"database/sql"
	"time"

	"github.com/riftwatch/riftwatch/errors"
)

// Well-known setting keys
const (
	KeyRiotAPIKey = "riot_api_key"
)

const maskedValue = "********"

// Setting is one key/value row
type Setting struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Sensitive bool   `json:"sensitive"`
	UpdatedAt string `json:"updated_at"`
}

// Store handles persistence of system settings
type Store struct {
	db *sql.DB
}

// NewStore creates a new settings store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the raw value for a key.
// Returns errors.ErrNotFound if the key does not exist.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM system_settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", errors.NewNotFoundError("setting %s", key)
		}
		return "", errors.Wrapf(err, "failed to get setting %s", key)
	}
	return value, nil
}

// Set stores a value for a key, creating or replacing it.
func (s *Store) Set(key, value string, sensitive bool) error {
	query := `
		INSERT INTO system_settings (key, value, sensitive, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			sensitive = excluded.sensitive,
			updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query, key, value, boolToInt(sensitive), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "failed to set setting %s", key)
	}
	return nil
}

// List returns all settings ordered by key, with sensitive values masked.
func (s *Store) List() ([]*Setting, error) {
	rows, err := s.db.Query("SELECT key, value, sensitive, updated_at FROM system_settings ORDER BY key")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list settings")
	}
	defer rows.Close()

	var settings []*Setting
	for rows.Next() {
		var st Setting
		var sensitive int
		if err := rows.Scan(&st.Key, &st.Value, &sensitive, &st.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan setting")
		}
		st.Sensitive = sensitive != 0
		if st.Sensitive {
			st.Value = maskedValue
		}
		settings = append(settings, &st)
	}

	return settings, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
