// Package riot provides the rate-limited Riot API client used by background jobs.
package riot

// Summoner is the subset of the summoner-v4 response the jobs need.
type Summoner struct {
	PUUID         string `json:"puuid"`
	Name          string `json:"name"`
	SummonerLevel int    `json:"summonerLevel"`
	RevisionDate  int64  `json:"revisionDate"`
}

// Match is the subset of the match-v5 response the jobs need.
type Match struct {
	MatchID      string   `json:"matchId"`
	QueueID      int      `json:"queueId"`
	GameCreation int64    `json:"gameCreation"`
	Participants []string `json:"participants"` // PUUIDs
}

// BanStatus describes whether an account is still reachable through the API.
type BanStatus string

const (
	BanStatusActive  BanStatus = "active"  // account answered normally
	BanStatusMissing BanStatus = "missing" // 404: banned, transferred, or deleted
)
