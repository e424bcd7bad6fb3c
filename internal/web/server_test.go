package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votermatch/internal/config"
	"github.com/votermatch/internal/match"
	"github.com/votermatch/internal/store/memstore"
	"github.com/votermatch/internal/turnout"
	"github.com/votermatch/internal/web/handlers"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: time.Second,
		MaxBatchSize:    10,
		ManualOverride:  true,
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	store := memstore.New(nil)
	store.Add(match.VoterRecord{
		VoterID: "NY-1", FirstName: "James", LastName: "Carter",
		DateOfBirth: time.Date(1984, 3, 10, 0, 0, 0, 0, time.UTC),
		City:        "New York", State: "NY", Zip: "10001",
		VoteHistory: turnout.ParseHistory("YYYYYY"),
	})
	engine, err := match.NewEngine(match.EngineConfig{
		Store: store,
		Clock: func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return NewServer(cfg, engine, nil)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMatchEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())
	age := 40

	rec := do(t, s.Handler(), http.MethodPost, "/api/match", handlers.MatchRequest{
		State: "NY",
		People: []match.PersonEntry{
			{ID: "p1", FirstName: "Jim", LastName: "Carter", City: "Queens", Age: &age},
			{ID: "p2"},
			{ID: "p3", FirstName: "Nobody", LastName: "Known"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []map[string]any              `json:"results"`
		Errors  []handlers.EntryErrorResponse `json:"errors"`
		Stats   match.BatchStats              `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "confirmed", resp.Results[0]["status"])
	assert.Equal(t, "superVoter", resp.Results[0]["segment"])
	assert.Equal(t, 1.0, resp.Results[0]["voteScore"])
	assert.Equal(t, "unmatched", resp.Results[1]["status"])
	assert.NotContains(t, rec.Body.String(), "NY-1", "voter ids never leave the engine")

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "p2", resp.Errors[0].PersonEntryID)
	assert.Equal(t, 3, resp.Stats.Total)
}

func TestMatchEndpointRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{"},
		{"empty batch", handlers.MatchRequest{State: "NY"}},
		{"bad state", handlers.MatchRequest{State: "New York", People: []match.PersonEntry{{ID: "p1", LastName: "Carter"}}}},
		{"too large", handlers.MatchRequest{State: "NY", People: make([]match.PersonEntry, 11)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodPost, "/api/match", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestOverrideEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/people/p1/result", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/match", handlers.MatchRequest{
		State: "NY", People: []match.PersonEntry{{ID: "p1", FirstName: "Jim", LastName: "Carter"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/people/p1/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/people/p1/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result match.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, match.StatusUnmatched, result.Status())
	assert.True(t, result.UserRejected)

	rec = do(t, h, http.MethodPost, "/api/people/p1/confirm", match.SafeRecord{FirstName: "James", LastName: "Carter", State: "NY"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, match.StatusConfirmed, result.Status())

	rec = do(t, h, http.MethodDelete, "/api/people/p1/result", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/people/p1/result", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverridesDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.ManualOverride = false
	s := newTestServer(t, cfg)

	rec := do(t, s.Handler(), http.MethodPost, "/api/people/p1/reject", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// unavailableEngine fails every call the way a lost database would
type unavailableEngine struct{}

func (unavailableEngine) Match(context.Context, []match.PersonEntry, string) (*match.Batch, error) {
	return nil, fmt.Errorf("%w: connection refused", match.ErrMatchingUnavailable)
}
func (unavailableEngine) ConfirmMatch(context.Context, string, match.SafeRecord) (match.MatchResult, error) {
	return match.MatchResult{}, match.ErrMatchingUnavailable
}
func (unavailableEngine) RejectMatch(context.Context, string) (match.MatchResult, error) {
	return match.MatchResult{}, match.ErrMatchingUnavailable
}
func (unavailableEngine) Result(context.Context, string) (match.MatchResult, error) {
	return match.MatchResult{}, match.ErrMatchingUnavailable
}
func (unavailableEngine) Forget(context.Context, string) error { return match.ErrMatchingUnavailable }
func (unavailableEngine) Degraded() bool                       { return true }

func TestMatchingUnavailable(t *testing.T) {
	s := NewServer(testConfig(), unavailableEngine{}, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/match", handlers.MatchRequest{
		State: "NY", People: []match.PersonEntry{{ID: "p1", LastName: "Carter"}},
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "matching_unavailable", body.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded":true`)
}

func TestStartStopsOnCancel(t *testing.T) {
	s := newTestServer(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
