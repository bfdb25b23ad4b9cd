package config

import (
	"fmt"
	"os"
	"time"

	"league-auditor/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// DefaultSeasonStart is used when no season start is configured or passed
// on the command line.
const DefaultSeasonStart = "2025-01-09T12:00:00Z"

type Config struct {
	RiotAPIKey    string
	RiotRegion    string // routing value, e.g. "europe", "americas", "asia"
	LocalStoreURL string
	LocalStoreKey string
	ServerPort    string
	LogLevel      string
	SeasonStart   time.Time
	QueueID       int

	// static fallback when the reference source is unreachable and
	// nothing is cached yet
	FallbackGameVersion string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey:          getEnv("RIOT_API_KEY", ""),
		RiotRegion:          getEnv("RIOT_REGION", "europe"),
		LocalStoreURL:       getEnv("LOCAL_STORE_URL", ""),
		LocalStoreKey:       getEnv("LOCAL_STORE_KEY", ""),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		QueueID:             constants.QueueRankedSolo,
		FallbackGameVersion: getEnv("FALLBACK_GAME_VERSION", "15.1.1"),
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}
	if cfg.LocalStoreURL == "" {
		return nil, fmt.Errorf("LOCAL_STORE_URL is required")
	}
	if cfg.LocalStoreKey == "" {
		return nil, fmt.Errorf("LOCAL_STORE_KEY is required")
	}

	seasonStart := getEnv("SEASON_START", DefaultSeasonStart)
	start, err := time.Parse(time.RFC3339, seasonStart)
	if err != nil {
		return nil, fmt.Errorf("invalid SEASON_START %q: %w", seasonStart, err)
	}
	cfg.SeasonStart = start

	logger.Info().
		Str("region", cfg.RiotRegion).
		Str("local_store", cfg.LocalStoreURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Time("season_start", cfg.SeasonStart).
		Int("queue_id", cfg.QueueID).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
