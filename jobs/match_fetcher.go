package jobs

import (
	"context"
	"time"

	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/riot"
	"github.com/riftwatch/riftwatch/store"
)

// MatchFetcher backfills match detail for discovered players until each has
// TargetMatchesPerPlayer matches on record. Every external request a player
// costs, the ID listing included, draws from a per-player budget of
// MatchesPerPlayerPerRun calls, so one run never exceeds
// discovered_players_per_run * matches_per_player_per_run API requests.
type MatchFetcher struct {
	*BaseJob
	cfg  MatchFetcherConfig
	deps Deps
}

func NewMatchFetcher(base *BaseJob, cfg MatchFetcherConfig, deps Deps) *MatchFetcher {
	return &MatchFetcher{BaseJob: base, cfg: cfg, deps: deps}
}

func (j *MatchFetcher) Execute(ctx context.Context) error {
	players, err := j.deps.Players.ListDiscovered(j.cfg.DiscoveredPlayersPerRun)
	if err != nil {
		return errors.Wrap(err, "failed to list discovered players")
	}
	if len(players) == 0 {
		j.AddLogEntry("info", "no discovered players awaiting backfill", nil)
		return nil
	}

	for i, player := range players {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.AddLogEntry("info", "backfilling player", map[string]interface{}{
			"puuid":    player.PUUID,
			"progress": CalculateProgress(len(players), i),
		})
		if err := j.backfillPlayer(ctx, player); err != nil {
			if errors.IsRetryable(err) {
				// rate limit or outage, stop the run and let the next tick resume
				j.AddLogEntry("warn", "backfill interrupted", map[string]interface{}{
					"puuid": player.PUUID,
					"error": err.Error(),
				})
				return err
			}
			j.IncrementMetric("player_errors", 1)
			j.AddLogEntry("error", "failed to backfill player", map[string]interface{}{
				"puuid": player.PUUID,
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (j *MatchFetcher) backfillPlayer(ctx context.Context, player *store.Player) error {
	have, err := j.deps.Players.CountMatches(player.PUUID)
	if err != nil {
		return err
	}
	if have >= j.cfg.TargetMatchesPerPlayer {
		return nil
	}

	budget := j.cfg.MatchesPerPlayerPerRun

	want := j.cfg.TargetMatchesPerPlayer - have
	if want > budget-1 {
		want = budget - 1
	}
	if want < 1 {
		want = 1
	}

	ids, err := j.deps.Riot.MatchIDsByPUUID(ctx, player.PUUID, want)
	j.IncrementMetric(MetricAPIRequestsMade, 1)
	budget--
	if err != nil {
		return err
	}

	for _, matchID := range ids {
		if budget <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		match, err := j.deps.Riot.MatchByID(ctx, matchID)
		j.IncrementMetric(MetricAPIRequestsMade, 1)
		budget--
		if err != nil {
			if errors.IsNotFoundError(err) {
				continue
			}
			return err
		}
		if err := j.recordMatch(player, match); err != nil {
			return err
		}
	}
	return nil
}

func (j *MatchFetcher) recordMatch(player *store.Player, match *riot.Match) error {
	gameCreation := time.UnixMilli(match.GameCreation).UTC().Format(time.RFC3339)
	now := time.Now().UTC().Format(time.RFC3339)

	created, err := j.deps.Players.InsertMatch(&store.MatchRef{
		MatchID:      match.MatchID,
		PUUID:        player.PUUID,
		QueueID:      match.QueueID,
		GameCreation: gameCreation,
		FetchedAt:    now,
	})
	if err != nil {
		return err
	}
	if created {
		j.IncrementMetric(MetricRecordsCreated, 1)
	}

	// participants feed the discovery pipeline
	for _, puuid := range match.Participants {
		if puuid == player.PUUID {
			continue
		}
		if err := j.deps.Players.UpsertPlayer(puuid, "", player.Region, false); err != nil {
			return err
		}
		j.IncrementMetric("players_discovered", 1)
	}
	return nil
}
