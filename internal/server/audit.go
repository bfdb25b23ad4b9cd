package server

import (
	"net/http"
	"time"

	"league-auditor/internal/config"
	"league-auditor/internal/fetch"
	"league-auditor/internal/reconcile"
	"league-auditor/internal/refdata"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// AuditServer exposes the reconciler and the reference-data cache over plain
// JSON endpoints for dashboards and manual poking.
type AuditServer struct {
	reconciler *reconcile.Reconciler
	refdata    *refdata.Cache
	fetch      *fetch.Client
	cfg        *config.Config
	logger     zerolog.Logger
}

func NewAuditServer(reconciler *reconcile.Reconciler, cache *refdata.Cache, f *fetch.Client, cfg *config.Config, logger zerolog.Logger) *AuditServer {
	return &AuditServer{
		reconciler: reconciler,
		refdata:    cache,
		fetch:      f,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *AuditServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/reference/version", s.handleVersion)
	mux.HandleFunc("GET /v1/reference/champions", s.handleChampions)
	mux.HandleFunc("GET /v1/reconcile/{identity}", s.handleReconcile)
	return mux
}

func (s *AuditServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"remote_rate_limit": s.fetch.GetRateLimitInfo(),
	})
}

func (s *AuditServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": s.refdata.Version(r.Context()),
	})
}

func (s *AuditServer) handleChampions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.refdata.Champions(r.Context()))
}

func (s *AuditServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	since := s.cfg.SeasonStart
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since parameter, want RFC 3339")
			return
		}
		since = parsed
	}

	report, err := s.reconciler.Reconcile(r.Context(), identity, since)
	if err != nil {
		// request-scoped logger carries the request id set by the middleware
		zerolog.Ctx(r.Context()).Error().Err(err).Str("puuid", identity).Msg("reconciliation failed")
		switch fetch.KindOf(err) {
		case fetch.KindRateLimited:
			s.writeError(w, http.StatusTooManyRequests, "remote service rate limit exhausted")
		case fetch.KindUnavailable:
			s.writeError(w, http.StatusBadGateway, "remote service unavailable")
		default:
			s.writeError(w, http.StatusInternalServerError, "reconciliation failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *AuditServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func (s *AuditServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
