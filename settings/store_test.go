package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftwatch/riftwatch/errors"
	rwtest "github.com/riftwatch/riftwatch/internal/testing"
)

func TestSetAndGet(t *testing.T) {
	store := NewStore(rwtest.CreateTestDB(t))

	require.NoError(t, store.Set(KeyRiotAPIKey, "RGAPI-secret", true))

	value, err := store.Get(KeyRiotAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "RGAPI-secret", value)
}

func TestGetMissingKey(t *testing.T) {
	store := NewStore(rwtest.CreateTestDB(t))

	_, err := store.Get("does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSetReplacesExisting(t *testing.T) {
	store := NewStore(rwtest.CreateTestDB(t))

	require.NoError(t, store.Set("ban_check_enabled", "true", false))
	require.NoError(t, store.Set("ban_check_enabled", "false", false))

	value, err := store.Get("ban_check_enabled")
	require.NoError(t, err)
	assert.Equal(t, "false", value)

	settings, err := store.List()
	require.NoError(t, err)
	require.Len(t, settings, 1)
}

func TestListMasksSensitiveValues(t *testing.T) {
	store := NewStore(rwtest.CreateTestDB(t))

	require.NoError(t, store.Set(KeyRiotAPIKey, "RGAPI-secret", true))
	require.NoError(t, store.Set("region", "na1", false))

	settings, err := store.List()
	require.NoError(t, err)
	require.Len(t, settings, 2)

	byKey := map[string]*Setting{}
	for _, st := range settings {
		byKey[st.Key] = st
	}

	assert.Equal(t, "********", byKey[KeyRiotAPIKey].Value)
	assert.True(t, byKey[KeyRiotAPIKey].Sensitive)
	assert.Equal(t, "na1", byKey["region"].Value)
}
