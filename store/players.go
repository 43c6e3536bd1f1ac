// Package store is the storage layer the background jobs read and write
// through. It is deliberately thin: the web backend owns the full player and
// match model, the jobs only need bounded queries and status updates.
package store

import (
	"database/sql"
	"time"

	"github.com/riftwatch/riftwatch/errors"
)

// Player is the job-facing view of a player row
type Player struct {
	PUUID        string
	SummonerName string
	Region       string
	IsTracked    bool
	AnalyzedAt   *string
	SmurfScore   *float64
	BanStatus    *string
	BanCheckedAt *string
	LastSeenAt   *string
	CreatedAt    string
	UpdatedAt    string
}

// MatchRef is one (match, player) association row
type MatchRef struct {
	MatchID      string
	PUUID        string
	QueueID      int
	GameCreation string
	FetchedAt    string
}

// Players handles persistence of players and their match references
type Players struct {
	db *sql.DB
}

// NewPlayers creates a new player store
func NewPlayers(db *sql.DB) *Players {
	return &Players{db: db}
}

const playerColumns = `puuid, summoner_name, region, is_tracked, analyzed_at,
       smurf_score, ban_status, ban_checked_at, last_seen_at, created_at, updated_at`

// UpsertPlayer records a player, creating the row if it is new.
// Used by jobs that discover players through match participant lists.
func (s *Players) UpsertPlayer(puuid, summonerName, region string, tracked bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO players (puuid, summoner_name, region, is_tracked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(puuid) DO UPDATE SET
			summoner_name = excluded.summoner_name,
			updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query, puuid, summonerName, region, boolToInt(tracked), now, now)
	if err != nil {
		return errors.Wrapf(err, "failed to upsert player %s", puuid)
	}
	return nil
}

// ListTracked returns up to limit tracked players, least recently seen first.
func (s *Players) ListTracked(limit int) ([]*Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE is_tracked = 1
		ORDER BY last_seen_at ASC NULLS FIRST
		LIMIT ?
	`
	return s.queryPlayers(query, limit)
}

// ListDiscovered returns up to limit untracked players, oldest first.
// These are candidates for match backfill.
func (s *Players) ListDiscovered(limit int) ([]*Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE is_tracked = 0
		ORDER BY created_at ASC
		LIMIT ?
	`
	return s.queryPlayers(query, limit)
}

// ListUnanalyzed returns up to limit players that have never been analyzed
// and have at least minMatches stored matches.
func (s *Players) ListUnanalyzed(limit, minMatches int) ([]*Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE analyzed_at IS NULL
		  AND (SELECT COUNT(*) FROM matches WHERE matches.puuid = players.puuid) >= ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return s.queryPlayers(query, minMatches, limit)
}

// ListBanCheckDue returns up to limit players whose ban status is stale by
// more than the cutoff, never-checked players first.
func (s *Players) ListBanCheckDue(cutoff time.Time, limit int) ([]*Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE ban_checked_at IS NULL OR ban_checked_at < ?
		ORDER BY ban_checked_at ASC NULLS FIRST
		LIMIT ?
	`
	return s.queryPlayers(query, cutoff.UTC().Format(time.RFC3339), limit)
}

// MarkSeen updates a tracked player's last_seen_at watermark.
func (s *Players) MarkSeen(puuid string, at time.Time) error {
	return s.update(puuid, "last_seen_at = ?", at.UTC().Format(time.RFC3339))
}

// MarkAnalyzed records an analysis result for a player.
func (s *Players) MarkAnalyzed(puuid string, smurfScore float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.Exec(`
		UPDATE players
		SET analyzed_at = ?, smurf_score = ?, updated_at = ?
		WHERE puuid = ?
	`, now, smurfScore, now, puuid)
	if err != nil {
		return errors.Wrapf(err, "failed to mark player %s analyzed", puuid)
	}
	return requireRow(result, puuid)
}

// SetBanStatus records the result of a ban check.
func (s *Players) SetBanStatus(puuid, status string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.Exec(`
		UPDATE players
		SET ban_status = ?, ban_checked_at = ?, updated_at = ?
		WHERE puuid = ?
	`, status, now, now, puuid)
	if err != nil {
		return errors.Wrapf(err, "failed to set ban status for %s", puuid)
	}
	return requireRow(result, puuid)
}

// CountMatches returns how many matches are stored for a player.
func (s *Players) CountMatches(puuid string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM matches WHERE puuid = ?", puuid).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count matches for %s", puuid)
	}
	return count, nil
}

// InsertMatch stores a (match, player) reference. Returns true when the row
// is new; duplicates are ignored so repeated fetches stay idempotent.
func (s *Players) InsertMatch(ref *MatchRef) (bool, error) {
	result, err := s.db.Exec(`
		INSERT OR IGNORE INTO matches (match_id, puuid, queue_id, game_creation, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`, ref.MatchID, ref.PUUID, ref.QueueID, ref.GameCreation, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, errors.Wrapf(err, "failed to insert match %s", ref.MatchID)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to check rows affected")
	}
	return rows > 0, nil
}

func (s *Players) update(puuid, setClause string, args ...interface{}) error {
	now := time.Now().UTC().Format(time.RFC3339)
	args = append(args, now, puuid)
	result, err := s.db.Exec("UPDATE players SET "+setClause+", updated_at = ? WHERE puuid = ?", args...)
	if err != nil {
		return errors.Wrapf(err, "failed to update player %s", puuid)
	}
	return requireRow(result, puuid)
}

func (s *Players) queryPlayers(query string, args ...interface{}) ([]*Player, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query players")
	}
	defer rows.Close()

	var players []*Player
	for rows.Next() {
		var p Player
		var summonerName, analyzedAt, banStatus, banCheckedAt, lastSeenAt sql.NullString
		var smurfScore sql.NullFloat64
		var isTracked int

		err := rows.Scan(
			&p.PUUID,
			&summonerName,
			&p.Region,
			&isTracked,
			&analyzedAt,
			&smurfScore,
			&banStatus,
			&banCheckedAt,
			&lastSeenAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan player")
		}

		p.IsTracked = isTracked != 0
		if summonerName.Valid {
			p.SummonerName = summonerName.String
		}
		if analyzedAt.Valid {
			p.AnalyzedAt = &analyzedAt.String
		}
		if smurfScore.Valid {
			p.SmurfScore = &smurfScore.Float64
		}
		if banStatus.Valid {
			p.BanStatus = &banStatus.String
		}
		if banCheckedAt.Valid {
			p.BanCheckedAt = &banCheckedAt.String
		}
		if lastSeenAt.Valid {
			p.LastSeenAt = &lastSeenAt.String
		}

		players = append(players, &p)
	}

	return players, rows.Err()
}

func requireRow(result sql.Result, puuid string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if rows == 0 {
		return errors.NewNotFoundError("player %s", puuid)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
