package database

import (
	"encoding/json"
	"time"
)

// FreshnessWindow is how long a cached record counts as present. An older
// record is treated exactly like an absent one; it is never returned and
// never implicitly deleted.
const FreshnessWindow = 24 * time.Hour

// CachedUser is a raw snapshot of everything fetched from GitHub for one
// username. The collections are stored as the upstream JSON, untouched.
type CachedUser struct {
	Username     string          `json:"username" db:"username"`
	UserData     json.RawMessage `json:"user_data" db:"user_data"`
	Repositories json.RawMessage `json:"repositories" db:"repositories"`
	Events       json.RawMessage `json:"events" db:"events"`
	PullRequests json.RawMessage `json:"pull_requests" db:"pull_requests"`
	LastUpdated  time.Time       `json:"last_updated" db:"last_updated"`
}

// CachedScore is a computed score snapshot. Its lifecycle is independent of
// CachedUser: a stale score over a fresh raw snapshot is recomputed without
// refetching.
type CachedScore struct {
	Username    string          `json:"username" db:"username"`
	Score       json.RawMessage `json:"score" db:"score"`
	Rating      string          `json:"rating" db:"rating"`
	Stats       json.RawMessage `json:"stats" db:"stats"`
	Activity    json.RawMessage `json:"activity" db:"activity"`
	Languages   json.RawMessage `json:"languages" db:"languages"`
	LastUpdated time.Time       `json:"last_updated" db:"last_updated"`
}
