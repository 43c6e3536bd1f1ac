// Package config holds the riftwatch process configuration, loaded via Viper
// from a TOML file plus RIFTWATCH_-prefixed environment overrides.
package config

// Config represents the core riftwatch configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Riot     RiotConfig     `mapstructure:"riot"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RiotConfig configures the rate-limited Riot API client.
// The API key can also live in system_settings (key "riot_api_key"), which
// takes precedence over the value here; the daemon resolves it at startup.
type RiotConfig struct {
	BaseURL               string `mapstructure:"base_url"`
	Region                string `mapstructure:"region"`
	APIKey                string `mapstructure:"api_key"`
	RequestsPerSecond     int    `mapstructure:"requests_per_second"`
	RequestsPerTwoMinutes int    `mapstructure:"requests_per_two_minutes"`
	TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
}

// JobsConfig configures the background job scheduler
type JobsConfig struct {
	// Profile selects the seed profile ("dev" or "prod"). Profiles differ
	// only in interval/timeout/limit values, never in job set or schema.
	Profile string `mapstructure:"profile"`

	// ExecutionRetentionDays bounds how long execution history is kept.
	// 0 disables TTL cleanup.
	ExecutionRetentionDays int `mapstructure:"execution_retention_days"`

	// CleanupIntervalHours is how often the daemon runs the retention sweep.
	CleanupIntervalHours int `mapstructure:"cleanup_interval_hours"`
}
