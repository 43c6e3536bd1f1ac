package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftwatch/riftwatch/errors"
	rwtesting "github.com/riftwatch/riftwatch/internal/testing"
)

func validBanCheckerConfig() json.RawMessage {
	return json.RawMessage(`{"timeout_seconds": 60, "ban_check_days": 7, "max_checks_per_run": 10}`)
}

func TestConfigStoreUpsertAndGet(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	store := NewConfigStore(db)

	cfg := &JobConfiguration{
		Name:     "ban-checker",
		Type:     TypeBanChecker,
		Schedule: "interval:300",
		IsActive: true,
		Config:   validBanCheckerConfig(),
	}
	require.NoError(t, store.Upsert(cfg))
	assert.NotEmpty(t, cfg.ID)

	got, err := store.GetByName("ban-checker")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, got.ID)
	assert.Equal(t, TypeBanChecker, got.Type)
	assert.Equal(t, "interval:300", got.Schedule)
	assert.True(t, got.IsActive)
}

func TestConfigStoreUpsertIsIdempotent(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	store := NewConfigStore(db)

	first := &JobConfiguration{
		Name:     "ban-checker",
		Type:     TypeBanChecker,
		Schedule: "interval:300",
		IsActive: true,
		Config:   validBanCheckerConfig(),
	}
	require.NoError(t, store.Upsert(first))

	// second upsert under the same name updates in place
	second := &JobConfiguration{
		Name:     "ban-checker",
		Type:     TypeBanChecker,
		Schedule: "interval:600",
		IsActive: false,
		Config:   validBanCheckerConfig(),
	}
	require.NoError(t, store.Upsert(second))

	all, err := store.ListConfigs()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, "interval:600", all[0].Schedule)
	assert.False(t, all[0].IsActive)
}

func TestConfigStoreRejectsInvalidConfig(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	store := NewConfigStore(db)

	err := store.Upsert(&JobConfiguration{
		Name:     "broken",
		Type:     TypeBanChecker,
		Schedule: "interval:300",
		Config:   json.RawMessage(`{"ban_check_days": 7}`),
	})
	require.Error(t, err)
	assert.True(t, errors.IsConfigValidationError(err))

	_, err = store.GetByName("broken")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestConfigStoreRejectsUnknownType(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	store := NewConfigStore(db)

	err := store.Upsert(&JobConfiguration{
		Name:     "mystery",
		Type:     JobType("mystery"),
		Schedule: "interval:300",
	})
	require.Error(t, err)
	assert.True(t, errors.IsConfigValidationError(err))
}

func TestConfigStoreGetActiveConfigs(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	store := NewConfigStore(db)

	require.NoError(t, store.Upsert(&JobConfiguration{
		Name: "active-job", Type: TypeBanChecker, Schedule: "interval:300",
		IsActive: true, Config: validBanCheckerConfig(),
	}))
	require.NoError(t, store.Upsert(&JobConfiguration{
		Name: "paused-job", Type: TypeBanChecker, Schedule: "interval:300",
		IsActive: false, Config: validBanCheckerConfig(),
	}))

	active, err := store.GetActiveConfigs()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active-job", active[0].Name)
}

func TestConfigStoreSetActive(t *testing.T) {
	db := rwtesting.CreateTestDB(t)
	store := NewConfigStore(db)

	require.NoError(t, store.Upsert(&JobConfiguration{
		Name: "toggle-me", Type: TypeBanChecker, Schedule: "interval:300",
		IsActive: true, Config: validBanCheckerConfig(),
	}))

	require.NoError(t, store.SetActive("toggle-me", false))
	got, err := store.GetByName("toggle-me")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = store.SetActive("no-such-job", true)
	assert.True(t, errors.IsNotFoundError(err))
}
