package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftwatch/riftwatch/riot"
	rwtesting "github.com/riftwatch/riftwatch/internal/testing"
	"github.com/riftwatch/riftwatch/store"
)

func TestMatchFetcherStaysWithinRequestBudget(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "match-fetcher")

	api := newFakeRiot()
	// plenty of history available, the per-player budget should cap the calls
	api.matchIDs["d1"] = []string{"m1", "m2", "m3", "m4", "m5"}
	api.matchIDs["d2"] = []string{"m6", "m7", "m8", "m9", "m10"}
	for _, id := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8", "m9", "m10"} {
		api.matches[id] = &riot.Match{MatchID: id, QueueID: 420, GameCreation: 1756600000000}
	}
	deps := testDeps(db, api)
	seedPlayer(t, deps.Players, "d1", false)
	seedPlayer(t, deps.Players, "d2", false)

	fetcherCfg := MatchFetcherConfig{
		DiscoveredPlayersPerRun: 2,
		MatchesPerPlayerPerRun:  3,
		TargetMatchesPerPlayer:  10,
	}
	executions := NewExecutionStore(db)
	base := NewBaseJob(TypeMatchFetcher, cfg.ID, executions, testLogger())
	job := NewMatchFetcher(base, fetcherCfg, deps)

	exec, err := base.LogStart()
	require.NoError(t, err)
	require.NoError(t, job.Execute(context.Background()))
	require.NoError(t, base.LogCompletion(true, ""))

	bound := fetcherCfg.DiscoveredPlayersPerRun * fetcherCfg.MatchesPerPlayerPerRun
	assert.LessOrEqual(t, api.Calls(), bound)
	assert.Equal(t, api.Calls(), job.MetricsSnapshot()[MetricAPIRequestsMade])

	recorded, err := executions.GetExecution(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, recorded.Status)
	assert.LessOrEqual(t, recorded.Metrics[MetricAPIRequestsMade], bound)

	// each player got budget-1 match details recorded
	for _, puuid := range []string{"d1", "d2"} {
		count, err := deps.Players.CountMatches(puuid)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	}
}

func TestMatchFetcherSkipsPlayersAtTarget(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "match-fetcher")

	api := newFakeRiot()
	deps := testDeps(db, api)
	seedPlayer(t, deps.Players, "d1", false)
	for _, id := range []string{"m1", "m2", "m3"} {
		_, err := deps.Players.InsertMatch(&store.MatchRef{MatchID: id, PUUID: "d1"})
		require.NoError(t, err)
	}

	base := NewBaseJob(TypeMatchFetcher, cfg.ID, NewExecutionStore(db), testLogger())
	job := NewMatchFetcher(base, MatchFetcherConfig{
		DiscoveredPlayersPerRun: 5,
		MatchesPerPlayerPerRun:  3,
		TargetMatchesPerPlayer:  3,
	}, deps)

	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, 0, api.Calls())
}

func TestMatchFetcherDiscoversParticipants(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "match-fetcher")

	api := newFakeRiot()
	api.matchIDs["d1"] = []string{"m1"}
	api.matches["m1"] = &riot.Match{
		MatchID:      "m1",
		QueueID:      420,
		GameCreation: 1756600000000,
		Participants: []string{"d1", "p2", "p3"},
	}
	deps := testDeps(db, api)
	seedPlayer(t, deps.Players, "d1", false)

	base := NewBaseJob(TypeMatchFetcher, cfg.ID, NewExecutionStore(db), testLogger())
	job := NewMatchFetcher(base, MatchFetcherConfig{
		DiscoveredPlayersPerRun: 5,
		MatchesPerPlayerPerRun:  2,
		TargetMatchesPerPlayer:  10,
	}, deps)

	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, 2, job.MetricsSnapshot()["players_discovered"])

	discovered, err := deps.Players.ListDiscovered(10)
	require.NoError(t, err)
	assert.Len(t, discovered, 3) // d1 plus the two participants
}

func TestMatchFetcherSkipsMissingMatches(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "match-fetcher")

	api := newFakeRiot()
	api.matchIDs["d1"] = []string{"gone1", "gone2"}
	deps := testDeps(db, api)
	seedPlayer(t, deps.Players, "d1", false)

	base := NewBaseJob(TypeMatchFetcher, cfg.ID, NewExecutionStore(db), testLogger())
	job := NewMatchFetcher(base, MatchFetcherConfig{
		DiscoveredPlayersPerRun: 5,
		MatchesPerPlayerPerRun:  5,
		TargetMatchesPerPlayer:  10,
	}, deps)

	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, 0, job.MetricsSnapshot()[MetricRecordsCreated])
}
