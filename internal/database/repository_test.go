package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestUserCacheRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	stored := &CachedUser{
		Username:     "octocat",
		UserData:     json.RawMessage(`{"login":"octocat"}`),
		Repositories: json.RawMessage(`[{"name":"hello-world","stargazers_count":3}]`),
		Events:       json.RawMessage(`[{"type":"PushEvent"}]`),
		PullRequests: json.RawMessage(`[]`),
		LastUpdated:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveUser(stored))

	got, err := repo.GetCachedUser("octocat")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stored.Username, got.Username)
	assert.JSONEq(t, string(stored.UserData), string(got.UserData))
	assert.JSONEq(t, string(stored.Repositories), string(got.Repositories))
	assert.JSONEq(t, string(stored.Events), string(got.Events))
	assert.JSONEq(t, string(stored.PullRequests), string(got.PullRequests))
	assert.True(t, stored.LastUpdated.Equal(got.LastUpdated))
}

func TestScoreCacheRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	stored := &CachedScore{
		Username:    "octocat",
		Score:       json.RawMessage(`{"final_score":0.42}`),
		Rating:      "Good Developer",
		Stats:       json.RawMessage(`{"total_repositories":8}`),
		Activity:    json.RawMessage(`{"commits_last_month":12}`),
		Languages:   json.RawMessage(`{"languages":{"Go":100}}`),
		LastUpdated: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveScore(stored))

	got, err := repo.GetCachedScore("octocat")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stored.Rating, got.Rating)
	assert.JSONEq(t, string(stored.Score), string(got.Score))
	assert.JSONEq(t, string(stored.Stats), string(got.Stats))
	assert.JSONEq(t, string(stored.Activity), string(got.Activity))
	assert.JSONEq(t, string(stored.Languages), string(got.Languages))
}

func TestGetMissingUserReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	user, err := repo.GetCachedUser("nobody")
	require.NoError(t, err)
	assert.Nil(t, user)

	score, err := repo.GetCachedScore("nobody")
	require.NoError(t, err)
	assert.Nil(t, score)
}

func TestExpiredRecordTreatedAsAbsent(t *testing.T) {
	repo := newTestRepo(t)

	stale := time.Now().Add(-25 * time.Hour)
	require.NoError(t, repo.SaveUser(&CachedUser{
		Username:     "sleeper",
		UserData:     json.RawMessage(`{}`),
		Repositories: json.RawMessage(`[]`),
		Events:       json.RawMessage(`[]`),
		PullRequests: json.RawMessage(`[]`),
		LastUpdated:  stale,
	}))
	require.NoError(t, repo.SaveScore(&CachedScore{
		Username:    "sleeper",
		Score:       json.RawMessage(`{}`),
		Rating:      "Beginner",
		Stats:       json.RawMessage(`{}`),
		Activity:    json.RawMessage(`{}`),
		Languages:   json.RawMessage(`{}`),
		LastUpdated: stale,
	}))

	user, err := repo.GetCachedUser("sleeper")
	require.NoError(t, err)
	assert.Nil(t, user, "expired user row must read as absent")

	score, err := repo.GetCachedScore("sleeper")
	require.NoError(t, err)
	assert.Nil(t, score, "expired score row must read as absent")

	// The rows still exist physically; expiry never deletes.
	var count int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM cached_users WHERE username = ?`, "sleeper").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	repo := newTestRepo(t)

	first := &CachedUser{
		Username:     "octocat",
		UserData:     json.RawMessage(`{"v":1}`),
		Repositories: json.RawMessage(`[]`),
		Events:       json.RawMessage(`[]`),
		PullRequests: json.RawMessage(`[]`),
		LastUpdated:  time.Now(),
	}
	require.NoError(t, repo.SaveUser(first))

	second := *first
	second.UserData = json.RawMessage(`{"v":2}`)
	require.NoError(t, repo.SaveUser(&second))

	got, err := repo.GetCachedUser("octocat")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"v":2}`, string(got.UserData))

	var count int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM cached_users`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCorruptBlobSurfacesError(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.db.Exec(`
		INSERT INTO cached_scores (username, score, rating, stats, activity, languages, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, "broken", "{not json", "Beginner", "{}", "{}", "{}", time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)

	got, err := repo.GetCachedScore("broken")
	require.Error(t, err, "a present-but-unparseable record is an integrity error, not a miss")
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Nil(t, got)
}

func TestCorruptTimestampSurfacesError(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.db.Exec(`
		INSERT INTO cached_users (username, user_data, repositories, events, pull_requests, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`, "broken", "{}", "[]", "[]", "[]", "yesterday-ish")
	require.NoError(t, err)

	got, err := repo.GetCachedUser("broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Nil(t, got)
}
