package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/adapters/store"
	"github.com/mikey/bec-analyzer/internal/core"
	"github.com/mikey/bec-analyzer/internal/demo"
)

func trainedHolder(t *testing.T) *core.Holder {
	t.Helper()
	scorer, err := core.NewScorer("cyrenity.com", []string{"ceo@cyrenity.com"}, core.DefaultWeights(), zap.NewNop())
	require.NoError(t, err)
	_, err = demo.Train(scorer, "cyrenity.com", time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return core.NewHolder(scorer)
}

func testServer(t *testing.T, holder *core.Holder, rebuild RebuildFunc) (*Server, *store.MemoryStore) {
	t.Helper()
	verdicts := store.NewMemoryStore(zap.NewNop(), time.Hour, time.Hour)
	t.Cleanup(verdicts.Stop)

	metrics := NewMetrics(prometheus.NewRegistry())
	return New(holder, verdicts, rebuild, metrics, zap.NewNop(), "127.0.0.1:0"), verdicts
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, verdicts := testServer(t, trainedHolder(t), nil)

	payload := map[string]any{
		"from_addr":       "attacker@evil.com",
		"to_addr":         "bbrown@cyrenity.com",
		"subject":         "Urgent wire transfer",
		"body":            "I need this handled immediately and kept confidential. Wire the funds today.",
		"timestamp":       time.Date(2024, 7, 2, 3, 15, 0, 0, time.UTC),
		"timezone_offset": 480,
		"amount":          60000.0,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var verdict core.Verdict
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&verdict))
	assert.Greater(t, verdict.OverallRiskScore, 0.5)
	assert.NotEmpty(t, verdict.Recommendation)
	require.NotNil(t, verdict.TrustFindings.Payment)

	// The verdict lands in the audit store with a generated id.
	records, err := verdicts.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, "attacker@evil.com", records[0].From)
}

func TestAnalyzeEndpointRejectsBadJSON(t *testing.T) {
	srv, _ := testServer(t, trainedHolder(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpointNotReady(t *testing.T) {
	scorer, err := core.NewScorer("cyrenity.com", nil, core.DefaultWeights(), zap.NewNop())
	require.NoError(t, err)
	srv, _ := testServer(t, core.NewHolder(scorer), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"from_addr":"a@b.com","to_addr":"c@d.com","body":"hello there"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatsAndHealthEndpoints(t *testing.T) {
	srv, _ := testServer(t, trainedHolder(t), nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats core.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.True(t, stats.IsTrained)
	assert.Greater(t, stats.GraphNodes, 0)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestGraphEndpoint(t *testing.T) {
	srv, _ := testServer(t, trainedHolder(t), nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var nodes []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&nodes))
	assert.NotEmpty(t, nodes)
}

func TestRetrainEndpointSwapsSnapshot(t *testing.T) {
	holder := trainedHolder(t)
	original := holder.Current()

	replacement, err := core.NewScorer("cyrenity.com", nil, core.DefaultWeights(), zap.NewNop())
	require.NoError(t, err)
	_, err = demo.Train(replacement, "cyrenity.com", time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	srv, _ := testServer(t, holder, func() (*core.Scorer, error) {
		return replacement, nil
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/retrain", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Same(t, replacement, holder.Current())
	assert.NotSame(t, original, holder.Current())
}

func TestRetrainEndpointWithoutRebuildHook(t *testing.T) {
	srv, _ := testServer(t, trainedHolder(t), nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/retrain", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHistoryEndpointLimit(t *testing.T) {
	srv, verdicts := testServer(t, trainedHolder(t), nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, verdicts.Save(ctx, &core.VerdictRecord{
			ID:         string(rune('a' + i)),
			AnalyzedAt: time.Now(),
		}))
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var records []core.VerdictRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	assert.Len(t, records, 2)
}
