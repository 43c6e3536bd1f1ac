package jobs

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/riot"
	"github.com/riftwatch/riftwatch/store"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeRiot is an in-memory riot.Client that counts every call
type fakeRiot struct {
	mu        sync.Mutex
	calls     int
	summoners map[string]*riot.Summoner
	matchIDs  map[string][]string
	matches   map[string]*riot.Match
	err       error

	// when set, SummonerByPUUID stalls until the channel closes or the
	// context expires
	block chan struct{}
}

func newFakeRiot() *fakeRiot {
	return &fakeRiot{
		summoners: make(map[string]*riot.Summoner),
		matchIDs:  make(map[string][]string),
		matches:   make(map[string]*riot.Match),
	}
}

func (f *fakeRiot) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRiot) record() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRiot) SummonerByPUUID(ctx context.Context, puuid string) (*riot.Summoner, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summoners[puuid]
	if !ok {
		return nil, errors.NewNotFoundError("summoner %s not found", puuid)
	}
	return s, nil
}

func (f *fakeRiot) MatchIDsByPUUID(_ context.Context, puuid string, count int) ([]string, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.matchIDs[puuid]
	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}

func (f *fakeRiot) MatchByID(_ context.Context, matchID string) (*riot.Match, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return nil, errors.NewNotFoundError("match %s not found", matchID)
	}
	return m, nil
}

func testDeps(db *sql.DB, api riot.Client) Deps {
	return Deps{
		Players: store.NewPlayers(db),
		Riot:    api,
		Logger:  testLogger(),
	}
}

func seedPlayer(t *testing.T, players *store.Players, puuid string, tracked bool) {
	t.Helper()
	require.NoError(t, players.UpsertPlayer(puuid, "player-"+puuid, "na1", tracked))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
