package fx

import (
	"league-auditor/internal/api"
	"league-auditor/internal/config"
	"league-auditor/internal/constants"
	"league-auditor/internal/fetch"
	"league-auditor/internal/logger"
	"league-auditor/internal/reconcile"
	"league-auditor/internal/refdata"
	"league-auditor/internal/server"
	"league-auditor/internal/service"
	"league-auditor/internal/store"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideFetchClient(logger zerolog.Logger) *fetch.Client {
	return fetch.New(fetch.Config{
		Timeout:    constants.ExternalAPITimeout,
		MaxRetries: constants.MaxFetchRetries,
		RetryDelay: constants.FetchRetryDelay,
		RateLimit:  constants.FetchRateLimit,
		RateBurst:  constants.FetchRateBurst,
	}, logger)
}

func ProvideHistoryService(riot *api.RiotClient, logger zerolog.Logger) *service.HistoryService {
	return service.NewHistoryService(riot, logger)
}

func ProvideRefDataCache(cfg *config.Config, riot *api.RiotClient, logger zerolog.Logger) *refdata.Cache {
	return refdata.NewCache(cfg, riot, logger)
}

func ProvideReconciler(cfg *config.Config, history *service.HistoryService, localStore *store.Client, logger zerolog.Logger) *reconcile.Reconciler {
	return reconcile.New(history, localStore, cfg.QueueID, logger)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(ProvideFetchClient),
	// remote + local collaborators
	fx.Provide(api.NewRiotClient),
	fx.Provide(store.NewClient),
	// core
	fx.Provide(ProvideHistoryService),
	fx.Provide(ProvideRefDataCache),
	fx.Provide(ProvideReconciler),
	// server
	fx.Provide(server.NewAuditServer),
)
