package github

import (
	"encoding/json"
	"log/slog"

	"github.com/devscore/github-score-api/internal/scoring"
)

// Project converts raw upstream records into the typed scoring input.
// Records that fail to decode are dropped and logged; partial upstream data
// is expected, not an error.
func Project(login string, repos, events, pulls []json.RawMessage) *scoring.GitHubUser {
	user := &scoring.GitHubUser{Login: login}
	dropped := 0

	for _, raw := range repos {
		var repo scoring.Repository
		if err := json.Unmarshal(raw, &repo); err != nil {
			dropped++
			continue
		}
		user.Repositories = append(user.Repositories, repo)
	}

	for _, raw := range events {
		var event scoring.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			dropped++
			continue
		}
		user.Events = append(user.Events, event)
	}

	for _, raw := range pulls {
		var pr scoring.PullRequest
		if err := json.Unmarshal(raw, &pr); err != nil {
			dropped++
			continue
		}
		user.PullRequests = append(user.PullRequests, pr)
	}

	if dropped > 0 {
		slog.Warn("Dropped unparseable upstream records", "username", login, "dropped", dropped)
	}
	return user
}
