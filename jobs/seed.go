package jobs

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/riftwatch/riftwatch/errors"
)

// Seed profiles. Both install the same four jobs under the same names;
// only schedules and bounds differ, so switching profiles updates the
// existing rows in place.
const (
	ProfileDev  = "dev"
	ProfileProd = "prod"
)

type seedEntry struct {
	name     string
	jobType  JobType
	schedule string
	config   interface{}
}

func devSeed() []seedEntry {
	return []seedEntry{
		{
			name: "tracked-player-updater", jobType: TypeTrackedPlayerUpdater, schedule: "interval:600",
			config: TrackedPlayerUpdaterConfig{
				commonConfig:           commonConfig{TimeoutSeconds: 300},
				MaxTrackedPlayers:      25,
				MaxNewMatchesPerPlayer: 10,
			},
		},
		{
			name: "match-fetcher", jobType: TypeMatchFetcher, schedule: "interval:900",
			config: MatchFetcherConfig{
				commonConfig:            commonConfig{TimeoutSeconds: 600},
				DiscoveredPlayersPerRun: 10,
				MatchesPerPlayerPerRun:  5,
				TargetMatchesPerPlayer:  30,
			},
		},
		{
			name: "player-analyzer", jobType: TypePlayerAnalyzer, schedule: "interval:1200",
			config: PlayerAnalyzerConfig{
				commonConfig:            commonConfig{TimeoutSeconds: 300},
				UnanalyzedPlayersPerRun: 20,
				MinMatchesRequired:      10,
			},
		},
		{
			name: "ban-checker", jobType: TypeBanChecker, schedule: "0 4 * * *",
			config: BanCheckerConfig{
				commonConfig:    commonConfig{TimeoutSeconds: 300},
				BanCheckDays:    7,
				MaxChecksPerRun: 50,
			},
		},
	}
}

func prodSeed() []seedEntry {
	return []seedEntry{
		{
			name: "tracked-player-updater", jobType: TypeTrackedPlayerUpdater, schedule: "interval:120",
			config: TrackedPlayerUpdaterConfig{
				commonConfig:           commonConfig{TimeoutSeconds: 90},
				MaxTrackedPlayers:      10,
				MaxNewMatchesPerPlayer: 3,
			},
		},
		{
			name: "match-fetcher", jobType: TypeMatchFetcher, schedule: "interval:120",
			config: MatchFetcherConfig{
				commonConfig:            commonConfig{TimeoutSeconds: 120},
				DiscoveredPlayersPerRun: 5,
				MatchesPerPlayerPerRun:  2,
				TargetMatchesPerPlayer:  20,
			},
		},
		{
			name: "player-analyzer", jobType: TypePlayerAnalyzer, schedule: "interval:300",
			config: PlayerAnalyzerConfig{
				commonConfig:            commonConfig{TimeoutSeconds: 120},
				UnanalyzedPlayersPerRun: 10,
				MinMatchesRequired:      10,
			},
		},
		{
			name: "ban-checker", jobType: TypeBanChecker, schedule: "0 */6 * * *",
			config: BanCheckerConfig{
				commonConfig:    commonConfig{TimeoutSeconds: 180},
				BanCheckDays:    3,
				MaxChecksPerRun: 25,
			},
		},
	}
}

// Seed installs the named profile's job configurations, creating rows on
// first run and updating them in place on re-seed. Idempotent.
func Seed(configs *ConfigStore, profile string, logger *zap.SugaredLogger) error {
	var entries []seedEntry
	switch profile {
	case ProfileDev:
		entries = devSeed()
	case ProfileProd:
		entries = prodSeed()
	default:
		return errors.NewConfigValidationError("unknown seed profile %q", profile)
	}

	for _, entry := range entries {
		blob, err := json.Marshal(entry.config)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal seed config for %q", entry.name)
		}
		cfg := &JobConfiguration{
			Name:     entry.name,
			Type:     entry.jobType,
			Schedule: entry.schedule,
			IsActive: true,
			Config:   blob,
		}
		if err := configs.Upsert(cfg); err != nil {
			return err
		}
		logger.Infow("seeded job configuration",
			"job", entry.name, "profile", profile, "schedule", entry.schedule)
	}
	return nil
}
