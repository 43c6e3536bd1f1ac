package jobs

import (
	"context"
	"time"

	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/store"
)

// TrackedPlayerUpdater refreshes the match history of explicitly tracked
// players. Each run visits up to MaxTrackedPlayers players, least recently
// seen first, and records up to MaxNewMatchesPerPlayer new match references
// for each.
type TrackedPlayerUpdater struct {
	*BaseJob
	cfg  TrackedPlayerUpdaterConfig
	deps Deps
}

func NewTrackedPlayerUpdater(base *BaseJob, cfg TrackedPlayerUpdaterConfig, deps Deps) *TrackedPlayerUpdater {
	return &TrackedPlayerUpdater{BaseJob: base, cfg: cfg, deps: deps}
}

func (j *TrackedPlayerUpdater) Execute(ctx context.Context) error {
	players, err := j.deps.Players.ListTracked(j.cfg.MaxTrackedPlayers)
	if err != nil {
		return errors.Wrap(err, "failed to list tracked players")
	}
	if len(players) == 0 {
		j.AddLogEntry("info", "no tracked players", nil)
		return nil
	}

	var failures int
	var lastErr error
	for i, player := range players {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.AddLogEntry("info", "updating tracked player", map[string]interface{}{
			"puuid":    player.PUUID,
			"progress": CalculateProgress(len(players), i),
		})

		if err := j.updatePlayer(ctx, player); err != nil {
			failures++
			lastErr = err
			j.IncrementMetric("player_errors", 1)
			j.AddLogEntry("error", "failed to update tracked player", map[string]interface{}{
				"puuid": player.PUUID,
				"error": err.Error(),
			})
		}
	}

	// tolerate per-player failures; only a fully failed run fails the job
	if failures == len(players) {
		return errors.Wrap(lastErr, "all tracked player updates failed")
	}
	return nil
}

func (j *TrackedPlayerUpdater) updatePlayer(ctx context.Context, player *store.Player) error {
	ids, err := j.deps.Riot.MatchIDsByPUUID(ctx, player.PUUID, j.cfg.MaxNewMatchesPerPlayer)
	j.IncrementMetric(MetricAPIRequestsMade, 1)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, matchID := range ids {
		created, err := j.deps.Players.InsertMatch(&store.MatchRef{
			MatchID:   matchID,
			PUUID:     player.PUUID,
			FetchedAt: now,
		})
		if err != nil {
			return err
		}
		if created {
			j.IncrementMetric(MetricRecordsCreated, 1)
		}
	}

	if err := j.deps.Players.MarkSeen(player.PUUID, time.Now().UTC()); err != nil {
		return err
	}
	j.IncrementMetric(MetricRecordsUpdated, 1)
	return nil
}
