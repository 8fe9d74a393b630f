package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/devscore/github-score-api/internal/github"
	"github.com/devscore/github-score-api/internal/types"
)

// repoStats is the slice of repository fields the payload builders need.
type repoStats struct {
	StargazersCount int     `json:"stargazers_count"`
	ForksCount      int     `json:"forks_count"`
	Language        *string `json:"language"`
}

// eventStats is the slice of event fields the payload builders need.
type eventStats struct {
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

// buildStats aggregates repository and event totals for the response.
func buildStats(raw *github.RawUserData) types.UserStats {
	stats := types.UserStats{
		TotalRepositories:  len(raw.Repositories),
		TotalContributions: len(raw.Events),
	}
	for _, record := range raw.Repositories {
		var repo repoStats
		if err := json.Unmarshal(record, &repo); err != nil {
			continue
		}
		stats.TotalStars += repo.StargazersCount
		stats.TotalForks += repo.ForksCount
	}
	return stats
}

// buildActivity counts events by type and assembles a 7-day trend, newest
// day first. The upstream events feed only covers recent activity, so the
// whole feed stands in for the last month.
func buildActivity(now time.Time, events []json.RawMessage) types.ActivityData {
	parsed := make([]eventStats, 0, len(events))
	for _, record := range events {
		var event eventStats
		if err := json.Unmarshal(record, &event); err != nil {
			continue
		}
		parsed = append(parsed, event)
	}

	activity := types.ActivityData{
		ActivityTrend: make([]types.ActivityPoint, 0, 7),
	}
	for _, event := range parsed {
		switch event.Type {
		case "PushEvent":
			activity.CommitsLastMonth++
		case "PullRequestEvent":
			activity.PullRequestsLastMonth++
		case "IssuesEvent":
			activity.IssuesLastMonth++
		}
	}

	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, -i).UTC().Format("2006-01-02")
		point := types.ActivityPoint{Date: day}
		for _, event := range parsed {
			if !strings.HasPrefix(event.CreatedAt, day) {
				continue
			}
			switch event.Type {
			case "PushEvent":
				point.Commits++
			case "PullRequestEvent":
				point.PullRequests++
			case "IssuesEvent":
				point.Issues++
			}
		}
		activity.ActivityTrend = append(activity.ActivityTrend, point)
	}
	return activity
}

// buildLanguages produces a percentage histogram over repository primary
// languages; repositories with no detected language are excluded.
func buildLanguages(repos []json.RawMessage) types.LanguageDistribution {
	counts := make(map[string]float64)
	var total float64
	for _, record := range repos {
		var repo repoStats
		if err := json.Unmarshal(record, &repo); err != nil || repo.Language == nil {
			continue
		}
		counts[*repo.Language]++
		total++
	}
	if total > 0 {
		for lang, count := range counts {
			counts[lang] = count / total * 100.0
		}
	}
	return types.LanguageDistribution{Languages: counts}
}
