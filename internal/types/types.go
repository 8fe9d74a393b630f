package types

import "github.com/devscore/github-score-api/internal/scoring"

// ScoreRequest is the body of POST /api/score.
type ScoreRequest struct {
	Username string `json:"username" binding:"required"`
}

// ScoreResponse is the full payload returned for a scored user.
type ScoreResponse struct {
	Score     scoring.DetailedScores `json:"score"`
	Rating    string                 `json:"rating"`
	Stats     UserStats              `json:"stats"`
	Activity  ActivityData           `json:"activity"`
	Languages LanguageDistribution   `json:"languages"`
}

// UserStats summarizes the raw collections.
type UserStats struct {
	TotalRepositories  int `json:"total_repositories"`
	TotalStars         int `json:"total_stars"`
	TotalForks         int `json:"total_forks"`
	TotalContributions int `json:"total_contributions"`
}

// ActivityData holds recent activity counts and the 7-day trend.
type ActivityData struct {
	CommitsLastMonth      int             `json:"commits_last_month"`
	PullRequestsLastMonth int             `json:"pull_requests_last_month"`
	IssuesLastMonth       int             `json:"issues_last_month"`
	ActivityTrend         []ActivityPoint `json:"activity_trend"`
}

// ActivityPoint is one day of the activity trend.
type ActivityPoint struct {
	Date         string `json:"date"`
	Commits      int    `json:"commits"`
	PullRequests int    `json:"pull_requests"`
	Issues       int    `json:"issues"`
}

// LanguageDistribution maps language name to its percentage of the user's
// repositories.
type LanguageDistribution struct {
	Languages map[string]float64 `json:"languages"`
}
