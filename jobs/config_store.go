package jobs

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/riftwatch/riftwatch/errors"
)

// ConfigStore persists job configurations
type ConfigStore struct {
	db *sql.DB
}

func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

const configColumns = `id, name, job_type, schedule, is_active, config, created_at, updated_at`

// GetActiveConfigs returns all configurations with is_active set, ordered by name
func (s *ConfigStore) GetActiveConfigs() ([]*JobConfiguration, error) {
	rows, err := s.db.Query(`
		SELECT `+configColumns+`
		FROM job_configurations
		WHERE is_active = 1
		ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query active job configurations")
	}
	defer rows.Close()
	return scanConfigs(rows)
}

// ListConfigs returns every stored configuration, active or not
func (s *ConfigStore) ListConfigs() ([]*JobConfiguration, error) {
	rows, err := s.db.Query(`
		SELECT ` + configColumns + `
		FROM job_configurations
		ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query job configurations")
	}
	defer rows.Close()
	return scanConfigs(rows)
}

// GetByName returns the configuration with the given unique name
func (s *ConfigStore) GetByName(name string) (*JobConfiguration, error) {
	row := s.db.QueryRow(`
		SELECT `+configColumns+`
		FROM job_configurations
		WHERE name = ?`, name)

	cfg, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("job configuration %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get job configuration %q", name)
	}
	return cfg, nil
}

// Get returns the configuration with the given ID
func (s *ConfigStore) Get(id string) (*JobConfiguration, error) {
	row := s.db.QueryRow(`
		SELECT `+configColumns+`
		FROM job_configurations
		WHERE id = ?`, id)

	cfg, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("job configuration %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get job configuration %s", id)
	}
	return cfg, nil
}

// Upsert inserts a configuration or, when one with the same name already
// exists, updates it in place. The typed config is validated before any
// write; invalid configurations never reach the database.
func (s *ConfigStore) Upsert(cfg *JobConfiguration) error {
	if cfg.Name == "" {
		return errors.NewConfigValidationError("job configuration name is required")
	}
	if !IsValidType(string(cfg.Type)) {
		return errors.NewConfigValidationError("unknown job type %q", cfg.Type)
	}
	if _, err := ParseConfig(cfg.Type, cfg.Config); err != nil {
		return err
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if len(cfg.Config) == 0 {
		cfg.Config = json.RawMessage("{}")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.Exec(`
		INSERT INTO job_configurations (id, name, job_type, schedule, is_active, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			job_type = excluded.job_type,
			schedule = excluded.schedule,
			is_active = excluded.is_active,
			config = excluded.config,
			updated_at = excluded.updated_at`,
		cfg.ID, cfg.Name, cfg.Type, cfg.Schedule, cfg.IsActive, string(cfg.Config), now, now)
	if err != nil {
		return errors.Wrapf(err, "failed to upsert job configuration %q", cfg.Name)
	}
	return nil
}

// SetActive flips the is_active flag on a configuration by name
func (s *ConfigStore) SetActive(name string, active bool) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	result, err := s.db.Exec(`
		UPDATE job_configurations
		SET is_active = ?, updated_at = ?
		WHERE name = ?`, active, now, name)
	if err != nil {
		return errors.Wrapf(err, "failed to update job configuration %q", name)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if affected == 0 {
		return errors.NewNotFoundError("job configuration %q not found", name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfig(row rowScanner) (*JobConfiguration, error) {
	var cfg JobConfiguration
	var jobType, config, createdAt, updatedAt string
	if err := row.Scan(&cfg.ID, &cfg.Name, &jobType, &cfg.Schedule, &cfg.IsActive, &config, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	cfg.Type = JobType(jobType)
	cfg.Config = json.RawMessage(config)
	cfg.CreatedAt = parseTime(createdAt)
	cfg.UpdatedAt = parseTime(updatedAt)
	return &cfg, nil
}

func scanConfigs(rows *sql.Rows) ([]*JobConfiguration, error) {
	var configs []*JobConfiguration
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan job configuration")
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate job configurations")
	}
	return configs, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
