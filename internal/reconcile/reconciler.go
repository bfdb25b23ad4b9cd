// Package reconcile computes the drift between the locally replicated match
// history and the authoritative remote listing. Detect-only: it reports
// drift, re-ingestion is someone else's job.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"league-auditor/internal/constants"
	"league-auditor/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type HistoryFetcher interface {
	AllMatchIDs(ctx context.Context, identity string, queue int, since time.Time) ([]string, error)
}

type LocalStore interface {
	MatchRows(ctx context.Context, identity string, queue int, since time.Time) ([]domain.MatchRow, error)
	LatestRank(ctx context.Context, identity string, queue int) (*domain.RankSnapshot, error)
}

type Reconciler struct {
	history HistoryFetcher
	store   LocalStore
	queue   int
	logger  zerolog.Logger
}

func New(history HistoryFetcher, store LocalStore, queue int, logger zerolog.Logger) *Reconciler {
	return &Reconciler{history: history, store: store, queue: queue, logger: logger}
}

// Reconcile audits one identity within the season window starting at since.
// Terminal remote-fetch and local-store errors propagate: a report built on
// an incomplete snapshot would be misleading.
func (r *Reconciler) Reconcile(ctx context.Context, identity string, since time.Time) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ReconcileTimeout)
	defer cancel()

	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	logger := r.logger.With().Str("run_id", runID).Str("puuid", identity).Logger()

	logger.Info().Time("season_start", since).Int("queue", r.queue).Msg("reconciliation started")

	remoteIDs, err := r.history.AllMatchIDs(ctx, identity, r.queue, since)
	if err != nil {
		return nil, fmt.Errorf("failed to build remote snapshot: %w", err)
	}

	rawRows, err := r.store.MatchRows(ctx, identity, r.queue, since)
	if err != nil {
		return nil, err
	}

	rank, err := r.store.LatestRank(ctx, identity, r.queue)
	if err != nil {
		return nil, err
	}

	report := r.compute(identity, since, remoteIDs, rawRows, rank)
	report.RunID = runID

	logger.Info().
		Int("remote", report.RemoteCount).
		Int("local", report.LocalCount).
		Int("extra", report.ExtraCount).
		Int("missing", report.MissingCount).
		Bool("consistent", report.Consistent()).
		Msg("reconciliation finished")

	return report, nil
}

// compute is the pure set-difference and delta core; it touches no I/O.
func (r *Reconciler) compute(identity string, since time.Time, remoteIDs []string, rawRows []domain.MatchRow, rank *domain.RankSnapshot) *Report {
	// the remote guarantees uniqueness across pages, but do not rely on it
	remoteSet := make(map[string]struct{}, len(remoteIDs))
	remoteOrdered := make([]string, 0, len(remoteIDs))
	for _, id := range remoteIDs {
		if _, seen := remoteSet[id]; seen {
			continue
		}
		remoteSet[id] = struct{}{}
		remoteOrdered = append(remoteOrdered, id)
	}

	// duplicate ingestion happens; first-seen row wins
	localSet := make(map[string]struct{}, len(rawRows))
	localRows := make([]domain.MatchRow, 0, len(rawRows))
	for _, row := range rawRows {
		if _, seen := localSet[row.MatchID]; seen {
			continue
		}
		localSet[row.MatchID] = struct{}{}
		localRows = append(localRows, row)
	}

	report := &Report{
		Identity:      identity,
		QueueID:       r.queue,
		SeasonStart:   since,
		GeneratedAt:   time.Now(),
		RemoteCount:   len(remoteOrdered),
		LocalRawCount: len(rawRows),
		LocalCount:    len(localRows),
		ExtraInDB:     []string{},
		MissingInDB:   []string{},
	}

	for _, row := range localRows {
		if row.Win {
			report.DBWins++
		}
		if strings.EqualFold(row.EndType, "remake") {
			report.DBRemakes++
		}
	}
	report.DBLosses = report.LocalCount - report.DBWins

	for _, row := range localRows {
		if _, ok := remoteSet[row.MatchID]; !ok {
			report.ExtraCount++
			if len(report.ExtraInDB) < constants.ReportSampleLimit {
				report.ExtraInDB = append(report.ExtraInDB, row.MatchID)
			}
		}
	}
	for _, id := range remoteOrdered {
		if _, ok := localSet[id]; !ok {
			report.MissingCount++
			if len(report.MissingInDB) < constants.ReportSampleLimit {
				report.MissingInDB = append(report.MissingInDB, id)
			}
		}
	}

	if rank != nil {
		report.Rank = &RankSection{
			Wins:         rank.Wins,
			Losses:       rank.Losses,
			Tier:         rank.Tier,
			Division:     rank.Division,
			LeaguePoints: rank.LeaguePoints,
			FetchedAt:    rank.FetchedAt,
			GamesDelta:   report.LocalCount - (rank.Wins + rank.Losses),
			WinsDelta:    report.DBWins - rank.Wins,
			LossesDelta:  report.DBLosses - rank.Losses,
		}
	}

	return report
}
