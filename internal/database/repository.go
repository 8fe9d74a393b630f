package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCorrupt marks a cache record that exists but cannot be decoded. Callers
// must surface these instead of treating them as misses; a row asserted to
// exist but failing to parse is a data-integrity problem.
var ErrCorrupt = errors.New("corrupt cache record")

// Repository handles cache reads and writes. Reads are freshness-gated:
// expired rows are reported as absent. Writes are full replace-on-conflict
// upserts keyed by username.
type Repository struct {
	db *DB
}

// NewRepository creates a repository over the cache database.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetCachedUser returns the raw snapshot for username, or nil when there is
// no row or the row is older than the freshness window. A row that exists
// but cannot be decoded is a data-integrity problem and is returned as an
// error, not as a miss.
func (r *Repository) GetCachedUser(username string) (*CachedUser, error) {
	var cached CachedUser
	var userData, repos, events, pulls, lastUpdated string

	err := r.db.QueryRow(`
		SELECT username, user_data, repositories, events, pull_requests, last_updated
		FROM cached_users
		WHERE username = ?
	`, username).Scan(&cached.Username, &userData, &repos, &events, &pulls, &lastUpdated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached user: %w", err)
	}

	ts, err := parseLastUpdated("cached_users", username, lastUpdated)
	if err != nil {
		return nil, err
	}
	if isExpired(ts) {
		return nil, nil
	}
	cached.LastUpdated = ts

	for _, blob := range []struct {
		column string
		text   string
		dst    *json.RawMessage
	}{
		{"user_data", userData, &cached.UserData},
		{"repositories", repos, &cached.Repositories},
		{"events", events, &cached.Events},
		{"pull_requests", pulls, &cached.PullRequests},
	} {
		if !json.Valid([]byte(blob.text)) {
			return nil, fmt.Errorf("%w: cached_users.%s for %q", ErrCorrupt, blob.column, username)
		}
		*blob.dst = json.RawMessage(blob.text)
	}

	return &cached, nil
}

// SaveUser upserts the raw snapshot for its username.
func (r *Repository) SaveUser(user *CachedUser) error {
	_, err := r.db.Exec(`
		INSERT INTO cached_users (username, user_data, repositories, events, pull_requests, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			user_data = excluded.user_data,
			repositories = excluded.repositories,
			events = excluded.events,
			pull_requests = excluded.pull_requests,
			last_updated = excluded.last_updated
	`, user.Username, string(user.UserData), string(user.Repositories),
		string(user.Events), string(user.PullRequests),
		user.LastUpdated.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to save cached user %q: %w", user.Username, err)
	}
	return nil
}

// GetCachedScore returns the score snapshot for username with the same
// freshness and integrity semantics as GetCachedUser.
func (r *Repository) GetCachedScore(username string) (*CachedScore, error) {
	var cached CachedScore
	var score, stats, activity, languages, lastUpdated string

	err := r.db.QueryRow(`
		SELECT username, score, rating, stats, activity, languages, last_updated
		FROM cached_scores
		WHERE username = ?
	`, username).Scan(&cached.Username, &score, &cached.Rating, &stats, &activity, &languages, &lastUpdated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached score: %w", err)
	}

	ts, err := parseLastUpdated("cached_scores", username, lastUpdated)
	if err != nil {
		return nil, err
	}
	if isExpired(ts) {
		return nil, nil
	}
	cached.LastUpdated = ts

	for _, blob := range []struct {
		column string
		text   string
		dst    *json.RawMessage
	}{
		{"score", score, &cached.Score},
		{"stats", stats, &cached.Stats},
		{"activity", activity, &cached.Activity},
		{"languages", languages, &cached.Languages},
	} {
		if !json.Valid([]byte(blob.text)) {
			return nil, fmt.Errorf("%w: cached_scores.%s for %q", ErrCorrupt, blob.column, username)
		}
		*blob.dst = json.RawMessage(blob.text)
	}

	return &cached, nil
}

// SaveScore upserts the score snapshot for its username.
func (r *Repository) SaveScore(score *CachedScore) error {
	_, err := r.db.Exec(`
		INSERT INTO cached_scores (username, score, rating, stats, activity, languages, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			score = excluded.score,
			rating = excluded.rating,
			stats = excluded.stats,
			activity = excluded.activity,
			languages = excluded.languages,
			last_updated = excluded.last_updated
	`, score.Username, string(score.Score), score.Rating, string(score.Stats),
		string(score.Activity), string(score.Languages),
		score.LastUpdated.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to save cached score %q: %w", score.Username, err)
	}
	return nil
}

func parseLastUpdated(table, username, raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s.last_updated for %q: %v", ErrCorrupt, table, username, err)
	}
	return ts, nil
}

func isExpired(ts time.Time) bool {
	return !ts.After(time.Now().Add(-FreshnessWindow))
}
