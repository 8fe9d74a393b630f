package scoring

import "time"

// GitHubUser is the typed projection of a user's public GitHub activity.
// All collections may be empty; the scorer degrades to zero-credit factors
// rather than failing on missing data.
type GitHubUser struct {
	Login        string        `json:"login"`
	Repositories []Repository  `json:"repositories"`
	Events       []Event       `json:"events"`
	PullRequests []PullRequest `json:"pull_requests"`
}

// Repository mirrors the fields of the GitHub repos API that scoring needs.
type Repository struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	UpdatedAt       time.Time `json:"updated_at"`
	Owner           Owner     `json:"owner"`
	Description     *string   `json:"description"`
}

// Owner identifies the account a repository belongs to.
type Owner struct {
	Login string `json:"login"`
}

// Event is a single entry from the GitHub events API. Types the scorer does
// not recognize contribute to no factor.
type Event struct {
	Type      string        `json:"type"`
	CreatedAt time.Time     `json:"created_at"`
	Repo      *EventRepo    `json:"repo"`
	Payload   *EventPayload `json:"payload"`
}

// EventRepo names the repository an event touched.
type EventRepo struct {
	Name string `json:"name"`
}

// EventPayload carries the action of issue-style events ("opened", "closed").
type EventPayload struct {
	Action *string `json:"action"`
}

// PullRequest carries the only PR field scoring cares about: a non-nil
// MergedAt means the PR was merged.
type PullRequest struct {
	MergedAt *time.Time `json:"merged_at"`
}

// ScoreComponents holds the four weighted sub-scores, each in [0,1].
type ScoreComponents struct {
	ContributionWeight  float64 `json:"contribution_weight"`
	RepoSignificance    float64 `json:"repo_significance"`
	CodeQuality         float64 `json:"code_quality"`
	CommunityEngagement float64 `json:"community_engagement"`
}

// DetailedScores is the full scoring result: the aggregate, the four
// sub-scores, and the per-factor breakdown keyed by sub-scorer name.
type DetailedScores struct {
	FinalScore         float64                       `json:"final_score"`
	ComponentScores    ScoreComponents               `json:"component_scores"`
	DetailedComponents map[string]map[string]float64 `json:"detailed_components"`
}
