package scoring

import "time"

// Component names used as keys in DetailedScores.DetailedComponents.
const (
	ComponentContribution = "contribution_weight"
	ComponentRepo         = "repo_significance"
	ComponentQuality      = "code_quality"
	ComponentCommunity    = "community_engagement"
)

// Weight tables. Each level sums to 1.0 by construction; they are never
// mutated after package init so the scorer stays deterministic.
var (
	componentWeights = map[string]float64{
		ComponentContribution: 0.35,
		ComponentRepo:         0.30,
		ComponentQuality:      0.20,
		ComponentCommunity:    0.15,
	}
	contributionWeights = map[string]float64{
		"commit_frequency": 0.35,
		"commit_recency":   0.25,
		"issue_resolution": 0.20,
		"pr_acceptance":    0.20,
	}
	repoWeights = map[string]float64{
		"stars":            0.30,
		"forks":            0.25,
		"repo_activity":    0.25,
		"ecosystem_impact": 0.20,
	}
	qualityWeights = map[string]float64{
		"code_review_participation": 0.30,
		"documentation":             0.30,
		"commit_quality":            0.40,
	}
	communityWeights = map[string]float64{
		"discussions":       0.30,
		"project_diversity": 0.40,
		"maintainer_roles":  0.30,
	}
)

// Factor iteration orders. Summing in a fixed order keeps repeated runs
// bit-identical; ranging over the maps would not.
var (
	contributionOrder = []string{"commit_frequency", "commit_recency", "issue_resolution", "pr_acceptance"}
	repoOrder         = []string{"stars", "forks", "repo_activity", "ecosystem_impact"}
	qualityOrder      = []string{"code_review_participation", "documentation", "commit_quality"}
	communityOrder    = []string{"discussions", "project_diversity", "maintainer_roles"}
)

// commitQualityDefault is a placeholder signal: no commit-content inspection
// is performed, so every user gets the same fixed factor value.
const commitQualityDefault = 0.7

// Scorer computes developer quality scores from a GitHubUser snapshot. It is
// stateless apart from the clock, which tests pin for reproducible output.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer using the wall clock.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// NewScorerAt creates a scorer with a fixed notion of "now".
func NewScorerAt(now time.Time) *Scorer {
	return &Scorer{now: func() time.Time { return now }}
}

// CalculateScore runs the four sub-scorers and combines them with the
// top-level weights. Pure and side-effect free; identical input yields
// identical output.
func (s *Scorer) CalculateScore(user *GitHubUser) (*DetailedScores, error) {
	now := s.now()

	contribScore, contribFactors := s.scoreContribution(now, user)
	repoScore, repoFactors := s.scoreRepoSignificance(now, user)
	qualityScore, qualityFactors := s.scoreCodeQuality(user)
	communityScore, communityFactors := s.scoreCommunityEngagement(user)

	components := ScoreComponents{
		ContributionWeight:  contribScore,
		RepoSignificance:    repoScore,
		CodeQuality:         qualityScore,
		CommunityEngagement: communityScore,
	}

	final := componentWeights[ComponentContribution]*contribScore +
		componentWeights[ComponentRepo]*repoScore +
		componentWeights[ComponentQuality]*qualityScore +
		componentWeights[ComponentCommunity]*communityScore

	return &DetailedScores{
		FinalScore:      clamp01(final),
		ComponentScores: components,
		DetailedComponents: map[string]map[string]float64{
			ComponentContribution: contribFactors,
			ComponentRepo:         repoFactors,
			ComponentQuality:      qualityFactors,
			ComponentCommunity:    communityFactors,
		},
	}, nil
}

// weightedSum combines clamped factors in a fixed key order.
func weightedSum(factors, weights map[string]float64, order []string) float64 {
	sum := 0.0
	for _, key := range order {
		sum += weights[key] * factors[key]
	}
	return clamp01(sum)
}

func (s *Scorer) scoreContribution(now time.Time, user *GitHubUser) (float64, map[string]float64) {
	windowStart := now.Add(-activityWindow)

	var recentPushes []time.Time
	var issueEvents, closedIssues int
	for _, e := range user.Events {
		switch e.Type {
		case "PushEvent":
			if e.CreatedAt.After(windowStart) {
				recentPushes = append(recentPushes, e.CreatedAt)
			}
		case "IssuesEvent":
			issueEvents++
			if e.Payload != nil && e.Payload.Action != nil && *e.Payload.Action == "closed" {
				closedIssues++
			}
		}
	}

	merged := 0
	for _, pr := range user.PullRequests {
		if pr.MergedAt != nil {
			merged++
		}
	}

	factors := map[string]float64{
		"commit_frequency": CappedCount(float64(len(recentPushes)), 100),
		"commit_recency":   RecencyDecay(now, recentPushes, activityWindow),
		"issue_resolution": Ratio(float64(closedIssues), float64(issueEvents)),
		"pr_acceptance":    Ratio(float64(merged), float64(len(user.PullRequests))),
	}
	return weightedSum(factors, contributionWeights, contributionOrder), factors
}

func (s *Scorer) scoreRepoSignificance(now time.Time, user *GitHubUser) (float64, map[string]float64) {
	if len(user.Repositories) == 0 {
		return 0, map[string]float64{}
	}

	var totalStars, totalForks, active int
	windowStart := now.Add(-activityWindow)
	for _, repo := range user.Repositories {
		totalStars += repo.StargazersCount
		totalForks += repo.ForksCount
		if repo.UpdatedAt.After(windowStart) {
			active++
		}
	}

	stars := LogMagnitude(float64(totalStars), starsReference)
	forks := LogMagnitude(float64(totalForks), forksReference)

	factors := map[string]float64{
		"stars":            stars,
		"forks":            forks,
		"repo_activity":    Ratio(float64(active), float64(len(user.Repositories))),
		"ecosystem_impact": clamp01((stars + forks) / 2),
	}
	return weightedSum(factors, repoWeights, repoOrder), factors
}

func (s *Scorer) scoreCodeQuality(user *GitHubUser) (float64, map[string]float64) {
	reviews := 0
	for _, e := range user.Events {
		if e.Type == "PullRequestReviewEvent" {
			reviews++
		}
	}

	documented := 0
	for _, repo := range user.Repositories {
		if repo.Description != nil && len(*repo.Description) > 50 {
			documented++
		}
	}

	factors := map[string]float64{
		"code_review_participation": CappedCount(float64(reviews), 50),
		"documentation":             Ratio(float64(documented), float64(len(user.Repositories))),
		"commit_quality":            commitQualityDefault,
	}
	return weightedSum(factors, qualityWeights, qualityOrder), factors
}

func (s *Scorer) scoreCommunityEngagement(user *GitHubUser) (float64, map[string]float64) {
	discussions := 0
	touched := make(map[string]struct{})
	for _, e := range user.Events {
		if e.Type == "IssueCommentEvent" || e.Type == "CommitCommentEvent" {
			discussions++
		}
		if e.Repo != nil {
			touched[e.Repo.Name] = struct{}{}
		}
	}

	owned := 0
	for _, repo := range user.Repositories {
		if repo.Owner.Login == user.Login {
			owned++
		}
	}

	factors := map[string]float64{
		"discussions":       CappedCount(float64(discussions), 50),
		"project_diversity": CappedCount(float64(len(touched)), 10),
		"maintainer_roles":  CappedCount(float64(owned), 5),
	}
	return weightedSum(factors, communityWeights, communityOrder), factors
}
