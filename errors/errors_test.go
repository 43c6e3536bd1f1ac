package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	err := NewConfigValidationError("match_fetcher missing %s", "discovered_players_per_run")

	assert.True(t, Is(err, ErrConfigValidation))
	assert.True(t, IsConfigValidationError(err))
	assert.Contains(t, err.Error(), "discovered_players_per_run")

	wrapped := Wrap(err, "loading job config")
	assert.True(t, IsConfigValidationError(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(New("boom")))
	assert.False(t, IsRetryable(ErrConfigValidation))

	assert.True(t, IsRetryable(Wrap(ErrRateLimited, "riot api")))
	assert.True(t, IsRetryable(Wrap(ErrServiceUnavailable, "riot api")))
}

func TestNotFound(t *testing.T) {
	err := NewNotFoundError("player %s", "abc")
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsNotFoundError(New("player abc")))
}

func TestHintsAndDetails(t *testing.T) {
	err := New("timeout")
	err = WithHint(err, "increase timeout_seconds in the job config")
	err = WithDetail(err, "job type: match_fetcher")

	assert.Equal(t, []string{"increase timeout_seconds in the job config"}, GetAllHints(err))
	assert.Equal(t, []string{"job type: match_fetcher"}, GetAllDetails(err))
}
