// Package jobs provides the background job scheduling core: configuration,
// execution tracking, and the periodic scheduler that drives the concrete
// job types against the rate-limited Riot API.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/riftwatch/riftwatch/errors"
)

// JobType identifies a category of recurring background task
type JobType string

const (
	TypeTrackedPlayerUpdater JobType = "tracked_player_updater"
	TypeMatchFetcher         JobType = "match_fetcher"
	TypePlayerAnalyzer       JobType = "player_analyzer"
	TypeBanChecker           JobType = "ban_checker"
)

// IsValidType returns true if the string is a known JobType
func IsValidType(s string) bool {
	switch JobType(s) {
	case TypeTrackedPlayerUpdater, TypeMatchFetcher, TypePlayerAnalyzer, TypeBanChecker:
		return true
	default:
		return false
	}
}

// JobConfiguration is one stored job configuration row.
// Name is unique; re-seeding with the same name updates in place.
type JobConfiguration struct {
	ID        string
	Name      string
	Type      JobType
	Schedule  string // "interval:<seconds>" or a standard 5-field cron expression
	IsActive  bool
	Config    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// defaultTimeout applies when a config omits timeout_seconds
const defaultTimeout = 5 * time.Minute

// TypedConfig is the validated, typed view of a configuration's JSON blob.
// Exactly one concrete type exists per job type; ParseConfig resolves the
// union at load time so job logic never touches untyped maps.
type TypedConfig interface {
	// Timeout returns the wall-clock limit for one execution
	Timeout() time.Duration

	validate() error
}

type commonConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

func (c commonConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TrackedPlayerUpdaterConfig bounds one tracked-player refresh run
type TrackedPlayerUpdaterConfig struct {
	commonConfig
	MaxTrackedPlayers      int `json:"max_tracked_players"`
	MaxNewMatchesPerPlayer int `json:"max_new_matches_per_player"`
}

func (c *TrackedPlayerUpdaterConfig) validate() error {
	return requirePositive(TypeTrackedPlayerUpdater, map[string]int{
		"max_tracked_players":        c.MaxTrackedPlayers,
		"max_new_matches_per_player": c.MaxNewMatchesPerPlayer,
	})
}

// MatchFetcherConfig bounds one match backfill run
type MatchFetcherConfig struct {
	commonConfig
	DiscoveredPlayersPerRun int `json:"discovered_players_per_run"`
	MatchesPerPlayerPerRun  int `json:"matches_per_player_per_run"`
	TargetMatchesPerPlayer  int `json:"target_matches_per_player"`
}

func (c *MatchFetcherConfig) validate() error {
	return requirePositive(TypeMatchFetcher, map[string]int{
		"discovered_players_per_run": c.DiscoveredPlayersPerRun,
		"matches_per_player_per_run": c.MatchesPerPlayerPerRun,
		"target_matches_per_player":  c.TargetMatchesPerPlayer,
	})
}

// PlayerAnalyzerConfig bounds one analysis run
type PlayerAnalyzerConfig struct {
	commonConfig
	UnanalyzedPlayersPerRun int `json:"unanalyzed_players_per_run"`
	MinMatchesRequired      int `json:"min_matches_required"`
}

func (c *PlayerAnalyzerConfig) validate() error {
	return requirePositive(TypePlayerAnalyzer, map[string]int{
		"unanalyzed_players_per_run": c.UnanalyzedPlayersPerRun,
		"min_matches_required":       c.MinMatchesRequired,
	})
}

// BanCheckerConfig bounds one ban sweep run
type BanCheckerConfig struct {
	commonConfig
	BanCheckDays    int `json:"ban_check_days"`
	MaxChecksPerRun int `json:"max_checks_per_run"`
}

func (c *BanCheckerConfig) validate() error {
	return requirePositive(TypeBanChecker, map[string]int{
		"ban_check_days":     c.BanCheckDays,
		"max_checks_per_run": c.MaxChecksPerRun,
	})
}

// ParseConfig decodes and validates a configuration blob for the given job
// type. Returns an ErrConfigValidation-wrapped error on missing or
// out-of-range keys; a configuration that fails here is never scheduled.
func ParseConfig(jobType JobType, raw json.RawMessage) (TypedConfig, error) {
	var typed TypedConfig
	switch jobType {
	case TypeTrackedPlayerUpdater:
		typed = &TrackedPlayerUpdaterConfig{}
	case TypeMatchFetcher:
		typed = &MatchFetcherConfig{}
	case TypePlayerAnalyzer:
		typed = &PlayerAnalyzerConfig{}
	case TypeBanChecker:
		typed = &BanCheckerConfig{}
	default:
		return nil, errors.NewConfigValidationError("unknown job type %q", jobType)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, typed); err != nil {
			return nil, errors.Wrapf(errors.ErrConfigValidation, "%s: malformed config: %v", jobType, err)
		}
	}

	if err := typed.validate(); err != nil {
		return nil, err
	}
	return typed, nil
}

func requirePositive(jobType JobType, keys map[string]int) error {
	for key, value := range keys {
		if value <= 0 {
			return errors.NewConfigValidationError("%s requires %s > 0 (got %d)", jobType, key, value)
		}
	}
	return nil
}
