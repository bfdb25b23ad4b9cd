// Package store reads the locally replicated match history through its
// PostgREST-style endpoint. Read-only: reconciliation never writes back.
package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"league-auditor/internal/config"
	"league-auditor/internal/constants"
	"league-auditor/internal/domain"
	"league-auditor/internal/fetch"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type getter interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

type Client struct {
	fetch   getter
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, f *fetch.Client, logger zerolog.Logger) *Client {
	return &Client{
		fetch:   f,
		baseURL: cfg.LocalStoreURL,
		apiKey:  cfg.LocalStoreKey,
		logger:  logger,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"apikey":        c.apiKey,
		"Authorization": "Bearer " + c.apiKey,
	}
}

// MatchRows returns the raw stored rows for one identity and queue whose end
// timestamp is at or after since. Duplicate match ids are returned as stored;
// deduplication is the reconciler's job.
func (c *Client) MatchRows(ctx context.Context, identity string, queue int, since time.Time) ([]domain.MatchRow, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.LocalStoreTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("select", "match_id,win,end_type,queue_id,ended_at")
	q.Set("puuid", "eq."+identity)
	q.Set("queue_id", fmt.Sprintf("eq.%d", queue))
	q.Set("ended_at", "gte."+since.UTC().Format(time.RFC3339))
	q.Set("order", "ended_at.desc")
	u := fmt.Sprintf("%s/rest/v1/matches?%s", c.baseURL, q.Encode())

	body, err := c.fetch.Get(ctx, u, c.headers())
	if err != nil {
		return nil, fmt.Errorf("local store match query failed: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("local store match table absent")
	}

	var rows []domain.MatchRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("local store returned malformed match rows: %w", err)
	}

	c.logger.Debug().Str("puuid", identity).Int("rows", len(rows)).Msg("local match rows loaded")
	return rows, nil
}

// LatestRank returns the most recent rank snapshot for the identity and
// queue, nil when none is stored.
func (c *Client) LatestRank(ctx context.Context, identity string, queue int) (*domain.RankSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.LocalStoreTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("select", "puuid,queue_id,wins,losses,tier,division,league_points,fetched_at")
	q.Set("puuid", "eq."+identity)
	q.Set("queue_id", fmt.Sprintf("eq.%d", queue))
	q.Set("order", "fetched_at.desc")
	q.Set("limit", "1")
	u := fmt.Sprintf("%s/rest/v1/rank_snapshots?%s", c.baseURL, q.Encode())

	body, err := c.fetch.Get(ctx, u, c.headers())
	if err != nil {
		return nil, fmt.Errorf("local store rank query failed: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("local store rank table absent")
	}

	var rows []domain.RankSnapshot
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("local store returned malformed rank snapshot: %w", err)
	}
	if len(rows) == 0 {
		c.logger.Debug().Str("puuid", identity).Msg("no rank snapshot stored")
		return nil, nil
	}
	return &rows[0], nil
}
