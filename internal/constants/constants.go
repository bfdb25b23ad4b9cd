package constants

import "time"

const (
	// Match listing pages are fixed at 100 ids; 80 pages bounds a
	// misbehaving remote at 8000 matches per run.
	HistoryPageSize = 100
	MaxHistoryPages = 80

	QueueRankedSolo = 420
)

const (
	ExternalAPITimeout = 10 * time.Second
	RefDataTimeout     = 800 * time.Millisecond
	LocalStoreTimeout  = 10 * time.Second
	ReconcileTimeout   = 2 * time.Minute
)

const (
	MaxFetchRetries = 3
	FetchRetryDelay = 2 * time.Second

	// requests per second towards the remote service, shared across callers
	FetchRateLimit = 15
	FetchRateBurst = 20
)

const (
	VersionTTL  = 12 * time.Hour
	ChampionTTL = 24 * time.Hour
)

const (
	// report sample bound for extra/missing match id lists
	ReportSampleLimit = 20

	// diagnostic body kept on terminal 4xx errors
	ErrorBodyLimit = 200
)

const (
	ShutdownTimeout = 5 * time.Second
)
