package refdata

import (
	"context"
	"sync"
	"time"

	"league-auditor/internal/config"
	"league-auditor/internal/constants"
	"league-auditor/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Source supplies the raw reference datasets; *api.RiotClient implements it.
type Source interface {
	Versions(ctx context.Context) ([]string, error)
	Champions(ctx context.Context, version string) (map[int64]domain.Champion, error)
}

// Clock exists so tests can control TTL expiry deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type versionEntry struct {
	value       string
	refreshedAt time.Time
}

type championEntry struct {
	table       map[int64]domain.Champion
	refreshedAt time.Time
}

// Cache holds the slowly-changing reference datasets with per-dataset TTLs.
// Refresh failures degrade to the stale value, then the configured fallback,
// then absent; they never surface as errors. Entries are replaced as a unit
// so readers never see a value paired with a stale timestamp.
type Cache struct {
	src             Source
	clock           Clock
	logger          zerolog.Logger
	fallbackVersion string
	versionTTL      time.Duration
	championTTL     time.Duration
	refreshTimeout  time.Duration

	group singleflight.Group

	mu        sync.RWMutex
	version   *versionEntry
	champions *championEntry
}

func NewCache(cfg *config.Config, src Source, logger zerolog.Logger) *Cache {
	return newCache(src, systemClock{}, cfg.FallbackGameVersion, logger)
}

func newCache(src Source, clock Clock, fallbackVersion string, logger zerolog.Logger) *Cache {
	return &Cache{
		src:             src,
		clock:           clock,
		logger:          logger,
		fallbackVersion: fallbackVersion,
		versionTTL:      constants.VersionTTL,
		championTTL:     constants.ChampionTTL,
		refreshTimeout:  constants.RefDataTimeout,
	}
}

// Version returns the current game version tag. Empty string means the
// reference source is unreachable, nothing is cached and no fallback is
// configured.
func (c *Cache) Version(ctx context.Context) string {
	c.mu.RLock()
	cached := c.version
	c.mu.RUnlock()

	now := c.clock.Now()
	if cached != nil && now.Sub(cached.refreshedAt) < c.versionTTL {
		return cached.value
	}

	v, err, _ := c.group.Do("version", func() (any, error) {
		// a concurrent flight may have refreshed while we waited
		c.mu.RLock()
		fresh := c.version
		c.mu.RUnlock()
		if fresh != nil && c.clock.Now().Sub(fresh.refreshedAt) < c.versionTTL {
			return fresh.value, nil
		}

		refreshCtx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()

		versions, err := c.src.Versions(refreshCtx)
		if err != nil || len(versions) == 0 {
			c.logger.Warn().Err(err).Msg("game version refresh failed, degrading")
			if fresh != nil {
				return fresh.value, nil
			}
			return c.fallbackVersion, nil
		}

		entry := &versionEntry{value: versions[0], refreshedAt: c.clock.Now()}
		c.mu.Lock()
		c.version = entry
		c.mu.Unlock()

		c.logger.Debug().Str("version", entry.value).Msg("game version refreshed")
		return entry.value, nil
	})
	if err != nil {
		// the flight never returns an error, but degrade anyway
		return c.fallbackVersion
	}
	return v.(string)
}

// Champions returns the id -> descriptor table, nil when nothing is
// available. The returned map is shared; callers must not mutate it.
func (c *Cache) Champions(ctx context.Context) map[int64]domain.Champion {
	c.mu.RLock()
	cached := c.champions
	c.mu.RUnlock()

	now := c.clock.Now()
	if cached != nil && now.Sub(cached.refreshedAt) < c.championTTL {
		return cached.table
	}

	v, _, _ := c.group.Do("champions", func() (any, error) {
		c.mu.RLock()
		fresh := c.champions
		c.mu.RUnlock()
		if fresh != nil && c.clock.Now().Sub(fresh.refreshedAt) < c.championTTL {
			return fresh.table, nil
		}

		refreshCtx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()

		table, err := c.src.Champions(refreshCtx, c.Version(ctx))
		if err != nil {
			c.logger.Warn().Err(err).Msg("champion table refresh failed, degrading")
			if fresh != nil {
				return fresh.table, nil
			}
			return map[int64]domain.Champion(nil), nil
		}

		entry := &championEntry{table: table, refreshedAt: c.clock.Now()}
		c.mu.Lock()
		c.champions = entry
		c.mu.Unlock()

		c.logger.Debug().Int("champions", len(table)).Msg("champion table refreshed")
		return table, nil
	})
	return v.(map[int64]domain.Champion)
}

// Champion looks one descriptor up by numeric key.
func (c *Cache) Champion(ctx context.Context, key int64) (domain.Champion, bool) {
	table := c.Champions(ctx)
	champ, ok := table[key]
	return champ, ok
}
