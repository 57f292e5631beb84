package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dotk/api/internal/models"
)

func TestPublicTendersHidesDrafts(t *testing.T) {
	a := newTestAPI(t)
	seedTender(t, a, "DOTK/2026/20", models.TenderStatusActive)
	seedTender(t, a, "DOTK/2026/21", models.TenderStatusDraft)

	w := a.request(t, http.MethodGet, "/api/public/tenders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tenders []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tenders))
	require.Len(t, tenders, 1)
	require.Equal(t, "DOTK/2026/20", tenders[0]["tenderNumber"])
}

func TestPublicTendersCollapseExtended(t *testing.T) {
	a := newTestAPI(t)

	tender := seedTender(t, a, "DOTK/2026/22", models.TenderStatusExtended)
	extended := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	tender.ExtendedDate = &extended
	value := int64(123456700)
	tender.EstimatedValue = &value
	require.NoError(t, a.tenders.Update(context.Background(), &tender))

	w := a.request(t, http.MethodGet, "/api/public/tenders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tenders []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tenders))
	require.Len(t, tenders, 1)

	// Extension is an internal distinction; the public row shows an
	// active tender closing on the extended date.
	require.Equal(t, "active", tenders[0]["status"])
	require.Equal(t, "2026-10-15", tenders[0]["closingDate"])
	require.Equal(t, "₹12.35 Lakh", tenders[0]["estimatedValue"])
}

func TestPublicTendersValueNotSpecified(t *testing.T) {
	a := newTestAPI(t)
	seedTender(t, a, "DOTK/2026/23", models.TenderStatusClosed)

	w := a.request(t, http.MethodGet, "/api/public/tenders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tenders []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tenders))
	require.Equal(t, "Not specified", tenders[0]["estimatedValue"])
}

func TestPublicEvents(t *testing.T) {
	a := newTestAPI(t)
	seedEvent(t, a, "Winter Carnival", false)
	seedEvent(t, a, "Spring Fair", true)

	w := a.request(t, http.MethodGet, "/api/public/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode(t, w)["events"], 2)
}

func TestHomepageEventsFiltered(t *testing.T) {
	a := newTestAPI(t)
	seedEvent(t, a, "Winter Carnival", false)
	highlight := seedEvent(t, a, "Spring Fair", true)

	w := a.request(t, http.MethodGet, "/api/public/events/homepage", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	events := decode(t, w)["events"].([]any)
	require.Len(t, events, 1)
	require.Equal(t, highlight.Title, events[0].(map[string]any)["title"])
}

func TestHealthEndpoint(t *testing.T) {
	a := newTestAPI(t)

	// No postgres or redis wired in tests; the endpoint still answers.
	w := a.request(t, http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode(t, w)["status"])
}
