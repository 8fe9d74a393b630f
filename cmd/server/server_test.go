package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscore/github-score-api/internal/database"
	"github.com/devscore/github-score-api/internal/github"
	"github.com/devscore/github-score-api/internal/monitoring"
	"github.com/devscore/github-score-api/internal/service"
	"github.com/devscore/github-score-api/internal/types"
)

type stubFetcher struct {
	data *github.RawUserData
	err  error
}

func (s *stubFetcher) FetchUser(_ context.Context, username string) (*github.RawUserData, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.data != nil {
		return s.data, nil
	}
	return &github.RawUserData{
		Username: username,
		User:     json.RawMessage(`{"login":"` + username + `"}`),
	}, nil
}

func newTestRouter(t *testing.T, fetcher *stubFetcher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	metrics := monitoring.NewMetrics()
	svc := service.NewScoreService(repo, fetcher, metrics)
	return newRouter(svc, metrics, nil)
}

func postScore(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/score", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "metrics")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "request_count")
}

func TestScoreEndpointReturnsFullPayload(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	fetcher := &stubFetcher{data: &github.RawUserData{
		Username: "octocat",
		User:     json.RawMessage(`{"login":"octocat"}`),
		Repositories: []json.RawMessage{
			json.RawMessage(`{"name":"hello","full_name":"octocat/hello","stargazers_count":42,"forks_count":7,"updated_at":"` + now + `","owner":{"login":"octocat"},"language":"Go"}`),
		},
		Events: []json.RawMessage{
			json.RawMessage(`{"type":"PushEvent","created_at":"` + now + `","repo":{"name":"octocat/hello"}}`),
		},
	}}
	router := newTestRouter(t, fetcher)

	w := postScore(router, `{"username":"octocat"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.Score.FinalScore, 0.0)
	assert.LessOrEqual(t, resp.Score.FinalScore, 1.0)
	assert.NotEmpty(t, resp.Rating)
	assert.Equal(t, 1, resp.Stats.TotalRepositories)
	assert.Equal(t, 42, resp.Stats.TotalStars)
	assert.Len(t, resp.Activity.ActivityTrend, 7)
	assert.InDelta(t, 100.0, resp.Languages.Languages["Go"], 1e-9)
}

func TestScoreEndpointValidation(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{}`},
		{"blank username", `{"username":"   "}`},
		{"malformed json", `{"username"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postScore(router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestScoreEndpointUpstreamFailure(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{err: errors.New("upstream unavailable")})

	w := postScore(router, `{"username":"ghost"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestScoreEndpointServesFromCache(t *testing.T) {
	fetcher := &stubFetcher{}
	router := newTestRouter(t, fetcher)

	first := postScore(router, `{"username":"octocat"}`)
	require.Equal(t, http.StatusOK, first.Code)

	// Second request must be satisfied from the score cache even though the
	// fetcher would now fail.
	fetcher.err = errors.New("upstream unavailable")
	second := postScore(router, `{"username":"octocat"}`)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}
