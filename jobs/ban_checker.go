package jobs

import (
	"context"
	"time"

	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/riot"
)

// BanChecker probes whether known accounts are still reachable through the
// API. A 404 on a previously seen account means it was banned, transferred,
// or deleted. Each run checks up to MaxChecksPerRun players whose last check
// is older than BanCheckDays.
type BanChecker struct {
	*BaseJob
	cfg  BanCheckerConfig
	deps Deps
}

func NewBanChecker(base *BaseJob, cfg BanCheckerConfig, deps Deps) *BanChecker {
	return &BanChecker{BaseJob: base, cfg: cfg, deps: deps}
}

func (j *BanChecker) Execute(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.cfg.BanCheckDays)
	players, err := j.deps.Players.ListBanCheckDue(cutoff, j.cfg.MaxChecksPerRun)
	if err != nil {
		return errors.Wrap(err, "failed to list players due for ban check")
	}
	if len(players) == 0 {
		j.AddLogEntry("info", "no players due for ban check", nil)
		return nil
	}

	for i, player := range players {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.AddLogEntry("info", "checking account status", map[string]interface{}{
			"puuid":    player.PUUID,
			"progress": CalculateProgress(len(players), i),
		})

		_, err := j.deps.Riot.SummonerByPUUID(ctx, player.PUUID)
		j.IncrementMetric(MetricAPIRequestsMade, 1)

		status := riot.BanStatusActive
		switch {
		case err == nil:
		case errors.IsNotFoundError(err):
			status = riot.BanStatusMissing
			j.IncrementMetric("accounts_missing", 1)
			j.AddLogEntry("warn", "account no longer reachable", map[string]interface{}{
				"puuid": player.PUUID,
			})
		case errors.IsRetryable(err):
			return err
		default:
			j.IncrementMetric("player_errors", 1)
			j.AddLogEntry("error", "ban check failed", map[string]interface{}{
				"puuid": player.PUUID,
				"error": err.Error(),
			})
			continue
		}

		if err := j.deps.Players.SetBanStatus(player.PUUID, string(status)); err != nil {
			return err
		}
		j.IncrementMetric(MetricRecordsUpdated, 1)
	}
	return nil
}
