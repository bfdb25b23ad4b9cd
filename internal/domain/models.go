package domain

import (
	"time"
)

// MatchRow is one locally stored outcome for the audited identity. The raw
// store may hold several rows for the same match id (duplicate ingestion);
// reconciliation deduplicates, first-seen wins.
type MatchRow struct {
	MatchID string    `json:"match_id"`
	Win     bool      `json:"win"`
	EndType string    `json:"end_type"` // "normal", "remake", ...
	QueueID int       `json:"queue_id"`
	EndedAt time.Time `json:"ended_at"`
}

// RankSnapshot is the most recent locally recorded point-in-time rank state
// for an identity and queue.
type RankSnapshot struct {
	Puuid        string    `json:"puuid"`
	QueueID      int       `json:"queue_id"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Tier         string    `json:"tier"`
	Division     string    `json:"division"`
	LeaguePoints int       `json:"league_points"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Champion is one entry of the derived id -> descriptor lookup table built
// from the reference source.
type Champion struct {
	Key  int64  `json:"key"`
	ID   string `json:"id"`
	Name string `json:"name"`
}
