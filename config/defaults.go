package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "riftwatch.db")

	// Riot API defaults. Development keys allow 20 req/s and 100 req/2min;
	// the client enforces both windows.
	v.SetDefault("riot.base_url", "https://americas.api.riotgames.com")
	v.SetDefault("riot.region", "na1")
	v.SetDefault("riot.requests_per_second", 20)
	v.SetDefault("riot.requests_per_two_minutes", 100)
	v.SetDefault("riot.timeout_seconds", 10)

	// Job scheduler defaults
	v.SetDefault("jobs.profile", "dev")
	v.SetDefault("jobs.execution_retention_days", 90)
	v.SetDefault("jobs.cleanup_interval_hours", 24)
}
