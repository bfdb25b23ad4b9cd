package reconcile

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Report is the structured diff between the local replica and the remote
// snapshot for one identity. Owned by a single reconciliation run, never
// persisted.
type Report struct {
	RunID       string    `json:"run_id"`
	Identity    string    `json:"identity"`
	QueueID     int       `json:"queue_id"`
	SeasonStart time.Time `json:"season_start"`
	GeneratedAt time.Time `json:"generated_at"`

	RemoteCount   int `json:"remote_count"`
	LocalRawCount int `json:"local_raw_count"`
	LocalCount    int `json:"local_count"` // after dedup

	DBWins    int `json:"db_wins"`
	DBLosses  int `json:"db_losses"`
	DBRemakes int `json:"db_remakes"`

	// exact counts; the id lists are samples bounded by ReportSampleLimit
	ExtraCount   int      `json:"extra_count"`
	MissingCount int      `json:"missing_count"`
	ExtraInDB    []string `json:"extra_in_db"`
	MissingInDB  []string `json:"missing_in_db"`

	Rank *RankSection `json:"rank"`
}

// RankSection is present only when a rank snapshot exists locally.
type RankSection struct {
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Tier         string    `json:"tier"`
	Division     string    `json:"division"`
	LeaguePoints int       `json:"league_points"`
	FetchedAt    time.Time `json:"fetched_at"`

	// zero means consistent, non-zero means drift
	GamesDelta  int `json:"games_delta"`
	WinsDelta   int `json:"wins_delta"`
	LossesDelta int `json:"losses_delta"`
}

// Consistent reports whether nothing drifted: sets match and, when a rank
// snapshot exists, all deltas are zero.
func (r *Report) Consistent() bool {
	if r.ExtraCount != 0 || r.MissingCount != 0 {
		return false
	}
	if r.Rank != nil && (r.Rank.GamesDelta != 0 || r.Rank.WinsDelta != 0 || r.Rank.LossesDelta != 0) {
		return false
	}
	return true
}

// Render writes the report as structured text, the CLI's output format.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "reconciliation report (run %s)\n", r.RunID)
	fmt.Fprintf(w, "identity:       %s\n", r.Identity)
	fmt.Fprintf(w, "queue:          %d\n", r.QueueID)
	fmt.Fprintf(w, "season start:   %s\n", r.SeasonStart.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "generated at:   %s\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "remote matches: %d\n", r.RemoteCount)
	fmt.Fprintf(w, "local rows:     %d (%d after dedup)\n", r.LocalRawCount, r.LocalCount)
	fmt.Fprintf(w, "db wins:        %d\n", r.DBWins)
	fmt.Fprintf(w, "db losses:      %d\n", r.DBLosses)
	fmt.Fprintf(w, "db remakes:     %d\n", r.DBRemakes)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "extra in db:    %d%s\n", r.ExtraCount, sample(r.ExtraInDB))
	fmt.Fprintf(w, "missing in db:  %d%s\n", r.MissingCount, sample(r.MissingInDB))
	fmt.Fprintln(w)

	if r.Rank == nil {
		fmt.Fprintln(w, "rank snapshot:  none stored")
	} else {
		fmt.Fprintf(w, "rank snapshot:  %s %s, %d LP (%dW/%dL, fetched %s)\n",
			r.Rank.Tier, r.Rank.Division, r.Rank.LeaguePoints,
			r.Rank.Wins, r.Rank.Losses, r.Rank.FetchedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "games delta:    %+d\n", r.Rank.GamesDelta)
		fmt.Fprintf(w, "wins delta:     %+d\n", r.Rank.WinsDelta)
		fmt.Fprintf(w, "losses delta:   %+d\n", r.Rank.LossesDelta)
	}
	fmt.Fprintln(w)

	if r.Consistent() {
		fmt.Fprintln(w, "status:         consistent")
	} else {
		fmt.Fprintln(w, "status:         DRIFT DETECTED")
	}
}

func sample(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return "  [" + strings.Join(ids, ", ") + "]"
}
