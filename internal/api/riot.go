package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"league-auditor/internal/config"
	"league-auditor/internal/domain"
	"league-auditor/internal/fetch"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// getter is the slice of fetch.Client this package needs; tests substitute
// a stub. A (nil, nil) return means absent upstream.
type getter interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// RiotClient wraps the authoritative match-history service and the public
// reference-data host.
type RiotClient struct {
	fetch   getter
	apiKey  string
	baseURL string
	logger  zerolog.Logger
}

func NewRiotClient(cfg *config.Config, f *fetch.Client, logger zerolog.Logger) *RiotClient {
	return &RiotClient{
		fetch:   f,
		apiKey:  cfg.RiotAPIKey,
		baseURL: fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotRegion),
		logger:  logger,
	}
}

func (c *RiotClient) authHeaders() map[string]string {
	return map[string]string{"X-Riot-Token": c.apiKey}
}

// ListMatchIDs fetches one page of the match-id listing for puuid. The bool
// reports whether the identity exists upstream; a short or empty page is the
// caller's termination signal.
func (c *RiotClient) ListMatchIDs(ctx context.Context, puuid string, queue, start, count int, startTime int64) ([]string, bool, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?queue=%d&start=%d&count=%d&startTime=%d",
		c.baseURL, url.PathEscape(puuid), queue, start, count, startTime)

	body, err := c.fetch.Get(ctx, u, c.authHeaders())
	if err != nil {
		return nil, false, err
	}
	if body == nil {
		return nil, false, nil
	}

	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, false, &fetch.Error{Kind: fetch.KindBadRequest, Attempts: 1, Err: fmt.Errorf("malformed match-id listing: %w", err)}
	}
	return ids, true, nil
}

const ddragonBase = "https://ddragon.leagueoflegends.com"

// Versions returns the reference source's version list, newest first.
func (c *RiotClient) Versions(ctx context.Context) ([]string, error) {
	body, err := c.fetch.Get(ctx, ddragonBase+"/api/versions.json", nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("version list absent upstream")
	}

	var versions []string
	if err := json.Unmarshal(body, &versions); err != nil {
		return nil, fmt.Errorf("malformed version list: %w", err)
	}
	return versions, nil
}

type championFile struct {
	Data map[string]championEntry `json:"data"`
}

type championEntry struct {
	Key  string `json:"key"` // numeric as string
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Champions builds the id -> descriptor table for one game version. Keys are
// coerced to numeric; on a duplicate numeric key the last-seen entry wins.
func (c *RiotClient) Champions(ctx context.Context, version string) (map[int64]domain.Champion, error) {
	u := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", ddragonBase, url.PathEscape(version))

	body, err := c.fetch.Get(ctx, u, nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("champion table absent upstream for version %s", version)
	}

	var file championFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("malformed champion table: %w", err)
	}

	table := make(map[int64]domain.Champion, len(file.Data))
	for _, entry := range file.Data {
		key, err := strconv.ParseInt(entry.Key, 10, 64)
		if err != nil {
			c.logger.Warn().Str("champion", entry.ID).Str("key", entry.Key).Msg("skipping champion with non-numeric key")
			continue
		}
		table[key] = domain.Champion{Key: key, ID: entry.ID, Name: entry.Name}
	}
	return table, nil
}
