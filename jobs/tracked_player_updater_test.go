package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftwatch/riftwatch/errors"
	rwtesting "github.com/riftwatch/riftwatch/internal/testing"
)

func TestTrackedPlayerUpdaterRecordsNewMatches(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "tracked-player-updater")

	api := newFakeRiot()
	api.matchIDs["t1"] = []string{"m1", "m2", "m3"}
	api.matchIDs["t2"] = []string{"m4"}
	deps := testDeps(db, api)
	seedPlayer(t, deps.Players, "t1", true)
	seedPlayer(t, deps.Players, "t2", true)

	base := NewBaseJob(TypeTrackedPlayerUpdater, cfg.ID, NewExecutionStore(db), testLogger())
	job := NewTrackedPlayerUpdater(base, TrackedPlayerUpdaterConfig{
		MaxTrackedPlayers:      10,
		MaxNewMatchesPerPlayer: 2,
	}, deps)

	require.NoError(t, job.Execute(context.Background()))

	metrics := job.MetricsSnapshot()
	assert.Equal(t, 2, metrics[MetricAPIRequestsMade])
	assert.Equal(t, 3, metrics[MetricRecordsCreated]) // m1, m2 for t1; m4 for t2
	assert.Equal(t, 2, metrics[MetricRecordsUpdated])

	count, err := deps.Players.CountMatches("t1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTrackedPlayerUpdaterIsIdempotentAcrossRuns(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "tracked-player-updater")

	api := newFakeRiot()
	api.matchIDs["t1"] = []string{"m1", "m2"}
	deps := testDeps(db, api)
	seedPlayer(t, deps.Players, "t1", true)

	runOnce := func() Metrics {
		base := NewBaseJob(TypeTrackedPlayerUpdater, cfg.ID, NewExecutionStore(db), testLogger())
		job := NewTrackedPlayerUpdater(base, TrackedPlayerUpdaterConfig{
			MaxTrackedPlayers:      10,
			MaxNewMatchesPerPlayer: 5,
		}, deps)
		require.NoError(t, job.Execute(context.Background()))
		return job.MetricsSnapshot()
	}

	first := runOnce()
	assert.Equal(t, 2, first[MetricRecordsCreated])

	second := runOnce()
	assert.Equal(t, 0, second[MetricRecordsCreated])
	assert.Equal(t, 1, second[MetricRecordsUpdated])
}

func TestTrackedPlayerUpdaterFailsWhenAllPlayersFail(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "tracked-player-updater")

	api := newFakeRiot()
	api.err = errors.Wrap(errors.ErrServiceUnavailable, "riot api returned 503")
	deps := testDeps(db, api)
	seedPlayer(t, deps.Players, "t1", true)

	base := NewBaseJob(TypeTrackedPlayerUpdater, cfg.ID, NewExecutionStore(db), testLogger())
	job := NewTrackedPlayerUpdater(base, TrackedPlayerUpdaterConfig{
		MaxTrackedPlayers:      10,
		MaxNewMatchesPerPlayer: 5,
	}, deps)

	err := job.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, 1, job.MetricsSnapshot()["player_errors"])
}

func TestTrackedPlayerUpdaterHonorsCancellation(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	cfg := seedConfigRow(t, NewConfigStore(db), "tracked-player-updater")

	deps := testDeps(db, newFakeRiot())
	seedPlayer(t, deps.Players, "t1", true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	base := NewBaseJob(TypeTrackedPlayerUpdater, cfg.ID, NewExecutionStore(db), testLogger())
	job := NewTrackedPlayerUpdater(base, TrackedPlayerUpdaterConfig{
		MaxTrackedPlayers:      10,
		MaxNewMatchesPerPlayer: 5,
	}, deps)

	assert.ErrorIs(t, job.Execute(ctx), context.Canceled)
}
