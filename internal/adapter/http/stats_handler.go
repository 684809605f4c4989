package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/app/conversation"
	"presto-bot/internal/app/session"
)

// StatsHandler exposes the small operational surface: liveness and the
// engine's counters, including the deliberately ignored events.
type StatsHandler struct {
	stats  *conversation.Stats
	store  *session.Store
	logger logger.Logger
}

func NewStatsHandler(stats *conversation.Stats, store *session.Store, lgr logger.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, store: store, logger: lgr}
}

func (h *StatsHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	return r
}

func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	body := h.stats.Snapshot()
	body["active_sessions"] = int64(h.store.Len())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("stats_encode_failed", "Failed to encode stats response", "", nil, err)
	}
}
