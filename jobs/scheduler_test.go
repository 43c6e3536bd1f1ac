package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftwatch/riftwatch/errors"
	rwtesting "github.com/riftwatch/riftwatch/internal/testing"
	"github.com/riftwatch/riftwatch/riot"
)

func TestParseSchedule(t *testing.T) {
	sched, err := ParseSchedule("interval:30")
	require.NoError(t, err)
	next := sched.Next(time.Unix(1000, 0))
	assert.Equal(t, time.Unix(1030, 0), next)

	_, err = ParseSchedule("*/5 * * * *")
	require.NoError(t, err)

	for _, bad := range []string{"interval:0", "interval:-5", "interval:soon", "every day", ""} {
		_, err := ParseSchedule(bad)
		require.Error(t, err, "schedule %q", bad)
		assert.True(t, errors.IsConfigValidationError(err), "schedule %q", bad)
	}
}

func newTestScheduler(t *testing.T, api riot.Client) (*Scheduler, *ConfigStore, *ExecutionStore) {
	t.Helper()
	db := rwtesting.CreateTestDB(t)
	deps := testDeps(db, api)
	s := NewScheduler(db, BuiltinRegistry(), deps, SchedulerOptions{}, testLogger())
	return s, NewConfigStore(db), NewExecutionStore(db)
}

func banCheckerConfig(t *testing.T, configs *ConfigStore, timeoutSeconds int, active bool) *JobConfiguration {
	t.Helper()
	blob, err := json.Marshal(BanCheckerConfig{
		commonConfig:    commonConfig{TimeoutSeconds: timeoutSeconds},
		BanCheckDays:    7,
		MaxChecksPerRun: 10,
	})
	require.NoError(t, err)
	cfg := &JobConfiguration{
		Name:     "ban-checker",
		Type:     TypeBanChecker,
		Schedule: "interval:300",
		IsActive: active,
		Config:   blob,
	}
	require.NoError(t, configs.Upsert(cfg))
	return cfg
}

func TestSchedulerSkipsOverlappingRun(t *testing.T) {
	api := newFakeRiot()
	api.block = make(chan struct{})
	api.summoners["p1"] = &riot.Summoner{PUUID: "p1"}

	s, configs, executions := newTestScheduler(t, api)
	cfg := banCheckerConfig(t, configs, 30, true)
	seedPlayer(t, s.deps.Players, "p1", false)

	go s.runJob("ban-checker")
	waitFor(t, 2*time.Second, func() bool { return len(s.InFlight()) == 1 })

	// second trigger while the first is still executing
	s.runJob("ban-checker")

	execs, total, err := executions.ListExecutions(cfg.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "the overlapping trigger must not create an execution")

	close(api.block)
	waitFor(t, 2*time.Second, func() bool {
		got, err := executions.GetExecution(execs[0].ID)
		return err == nil && got.Status == StatusSuccess
	})
	assert.Empty(t, s.InFlight())
}

func TestSchedulerTimesOutSlowJob(t *testing.T) {
	api := newFakeRiot()
	api.block = make(chan struct{})
	t.Cleanup(func() { close(api.block) })

	s, configs, executions := newTestScheduler(t, api)
	cfg := banCheckerConfig(t, configs, 1, true)
	seedPlayer(t, s.deps.Players, "p1", false)

	start := time.Now()
	s.runJob("ban-checker")
	assert.Less(t, time.Since(start), 5*time.Second)

	execs, _, err := executions.ListExecutions(cfg.ID, StatusFailed, 10, 0)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	require.NotNil(t, execs[0].ErrorMessage)
	assert.Equal(t, "execution timed out", *execs[0].ErrorMessage)
	// the partial metrics gathered before the deadline survive
	assert.Equal(t, 1, execs[0].Metrics[MetricAPIRequestsMade])
}

func TestSchedulerSkipsDeactivatedJob(t *testing.T) {
	api := newFakeRiot()
	s, configs, executions := newTestScheduler(t, api)
	cfg := banCheckerConfig(t, configs, 30, false)

	s.runJob("ban-checker")

	_, total, err := executions.ListExecutions(cfg.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, api.Calls())
}

func TestSchedulerReReadsConfigEachTrigger(t *testing.T) {
	api := newFakeRiot()
	s, configs, executions := newTestScheduler(t, api)
	cfg := banCheckerConfig(t, configs, 30, true)

	s.runJob("ban-checker")
	_, total, err := executions.ListExecutions(cfg.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// deactivate between triggers, no restart
	require.NoError(t, configs.SetActive("ban-checker", false))
	s.runJob("ban-checker")
	_, total, err = executions.ListExecutions(cfg.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSchedulerStartRecoversAndRegistersDefault(t *testing.T) {
	api := newFakeRiot()
	s, configs, executions := newTestScheduler(t, api)
	cfg := banCheckerConfig(t, configs, 30, false)

	orphan, err := executions.CreatePending(cfg.ID, TypeBanChecker)
	require.NoError(t, err)
	require.NoError(t, executions.MarkRunning(orphan))

	require.NoError(t, s.Start())

	got, err := executions.GetExecution(orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "interrupted by restart", *got.ErrorMessage)

	assert.Same(t, s, Default())
	s.Shutdown(true)
	assert.Nil(t, Default())
}

func TestSchedulerStartExcludesInvalidConfigs(t *testing.T) {
	api := newFakeRiot()
	s, configs, _ := newTestScheduler(t, api)

	cfg := banCheckerConfig(t, configs, 30, true)
	// corrupt the stored schedule behind the store's validation
	_, err := s.configs.db.Exec(`UPDATE job_configurations SET schedule = 'whenever' WHERE id = ?`, cfg.ID)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Shutdown(true)
	assert.Empty(t, s.cron.Entries())
}
