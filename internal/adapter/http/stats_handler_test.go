package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/app/conversation"
	"presto-bot/internal/app/session"
	"presto-bot/internal/domain"
)

func TestHealth(t *testing.T) {
	h := NewStatsHandler(&conversation.Stats{}, session.NewStore(10), logger.New("test"))
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
}

func TestStats(t *testing.T) {
	stats := &conversation.Stats{}
	stats.OrdersSubmitted.Add(3)
	stats.EventsIgnored.Add(7)

	store := session.NewStore(10)
	store.Update(1, func(s *domain.Session) { s.Step = domain.StepReady })
	store.Update(2, func(s *domain.Session) { s.Step = domain.StepRegistering })

	h := NewStatsHandler(stats, store, logger.New("test"))
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, int64(3), body["orders_submitted"])
	assert.Equal(t, int64(7), body["events_ignored"])
	assert.Equal(t, int64(2), body["active_sessions"])
}
