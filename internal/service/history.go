package service

import (
	"context"
	"fmt"
	"time"

	"league-auditor/internal/constants"

	"github.com/rs/zerolog"
)

// matchLister is the slice of api.RiotClient this service needs.
type matchLister interface {
	ListMatchIDs(ctx context.Context, puuid string, queue, start, count int, startTime int64) ([]string, bool, error)
}

// HistoryService walks the remote match-id listing page by page and returns
// the authoritative snapshot for one identity within a season window.
type HistoryService struct {
	riot   matchLister
	logger zerolog.Logger
}

func NewHistoryService(riot matchLister, logger zerolog.Logger) *HistoryService {
	return &HistoryService{riot: riot, logger: logger}
}

// AllMatchIDs pages through the remote listing eagerly, preserving remote
// order. Pagination is sequential on purpose: each page waits for the prior
// response so the remote's rate limits see steady pressure. Any terminal
// fetch error aborts the whole run; reconciliation must not proceed on a
// partial snapshot.
func (s *HistoryService) AllMatchIDs(ctx context.Context, identity string, queue int, since time.Time) ([]string, error) {
	startTime := since.Unix()
	ids := make([]string, 0, constants.HistoryPageSize)

	for page := 0; page < constants.MaxHistoryPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("match listing canceled at page %d: %w", page, err)
		}

		batch, found, err := s.riot.ListMatchIDs(ctx, identity, queue, page*constants.HistoryPageSize, constants.HistoryPageSize, startTime)
		if err != nil {
			return nil, fmt.Errorf("failed to list match ids (page %d): %w", page, err)
		}
		if !found {
			if page == 0 {
				s.logger.Warn().Str("puuid", identity).Msg("identity unknown to remote service")
			}
			break
		}

		ids = append(ids, batch...)

		// a short page is the last page
		if len(batch) < constants.HistoryPageSize {
			break
		}
	}

	s.logger.Info().Str("puuid", identity).Int("matches", len(ids)).Msg("remote snapshot assembled")
	return ids, nil
}
