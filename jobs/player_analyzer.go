package jobs

import (
	"context"

	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/store"
)

// PlayerAnalyzer scores players that have accumulated enough match history.
// Each run takes up to UnanalyzedPlayersPerRun players with at least
// MinMatchesRequired matches on record and stamps them with a smurf score.
type PlayerAnalyzer struct {
	*BaseJob
	cfg  PlayerAnalyzerConfig
	deps Deps
}

func NewPlayerAnalyzer(base *BaseJob, cfg PlayerAnalyzerConfig, deps Deps) *PlayerAnalyzer {
	return &PlayerAnalyzer{BaseJob: base, cfg: cfg, deps: deps}
}

func (j *PlayerAnalyzer) Execute(ctx context.Context) error {
	players, err := j.deps.Players.ListUnanalyzed(j.cfg.UnanalyzedPlayersPerRun, j.cfg.MinMatchesRequired)
	if err != nil {
		return errors.Wrap(err, "failed to list unanalyzed players")
	}
	if len(players) == 0 {
		j.AddLogEntry("info", "no players ready for analysis", nil)
		return nil
	}

	for i, player := range players {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.AddLogEntry("info", "analyzing player", map[string]interface{}{
			"puuid":    player.PUUID,
			"progress": CalculateProgress(len(players), i),
		})

		score, err := j.scorePlayer(ctx, player)
		if err != nil {
			if errors.IsRetryable(err) {
				return err
			}
			j.IncrementMetric("player_errors", 1)
			j.AddLogEntry("error", "failed to analyze player", map[string]interface{}{
				"puuid": player.PUUID,
				"error": err.Error(),
			})
			continue
		}

		if err := j.deps.Players.MarkAnalyzed(player.PUUID, score); err != nil {
			return err
		}
		j.IncrementMetric(MetricRecordsUpdated, 1)
	}
	return nil
}

// scorePlayer computes a smurf likelihood in [0, 1]. The heuristic weighs a
// low account level against an established match history; the full scoring
// model lives in the analytics service, this keeps the pipeline shape.
func (j *PlayerAnalyzer) scorePlayer(ctx context.Context, player *store.Player) (float64, error) {
	summoner, err := j.deps.Riot.SummonerByPUUID(ctx, player.PUUID)
	j.IncrementMetric(MetricAPIRequestsMade, 1)
	if err != nil {
		return 0, err
	}

	matches, err := j.deps.Players.CountMatches(player.PUUID)
	if err != nil {
		return 0, err
	}

	const levelCeiling = 50
	if summoner.SummonerLevel >= levelCeiling {
		return 0, nil
	}
	levelFactor := float64(levelCeiling-summoner.SummonerLevel) / levelCeiling

	historyFactor := float64(matches) / float64(matches+j.cfg.MinMatchesRequired)
	return levelFactor * historyFactor, nil
}
