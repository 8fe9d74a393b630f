package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/devscore/github-score-api/internal/resilience"
)

const defaultBaseURL = "https://api.github.com"

// maxPRRepos bounds how many repositories we query for the user's pull
// requests; PR listing is one request per repo.
const maxPRRepos = 10

// RawUserData is everything fetched for one username, kept as the upstream
// JSON records so the snapshot can be cached verbatim.
type RawUserData struct {
	Username     string
	User         json.RawMessage
	Repositories []json.RawMessage
	Events       []json.RawMessage
	PullRequests []json.RawMessage
}

// Client fetches public user activity from the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewClient creates a client. An empty token means unauthenticated requests,
// which GitHub rate-limits aggressively; the local limiter keeps us from
// burning that budget in bursts.
func NewClient(token string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		retry:      resilience.DefaultRetryConfig(),
	}
}

// NewClientWithBaseURL creates a client pointed at a non-default API root.
// Used by tests.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// FetchUser fetches the profile, all repositories (paginated), the latest
// events, and the pull requests authored in the user's first repositories.
func (c *Client) FetchUser(ctx context.Context, username string) (*RawUserData, error) {
	user, err := c.getJSON(ctx, fmt.Sprintf("/users/%s", username))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %q: %w", username, err)
	}

	repos, err := c.fetchAllRepos(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repositories for %q: %w", username, err)
	}

	events, err := c.getJSONArray(ctx, fmt.Sprintf("/users/%s/events?per_page=100", username))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for %q: %w", username, err)
	}

	pulls := c.fetchPullRequests(ctx, username, repos)

	slog.Info("Fetched GitHub data",
		"username", username,
		"repositories", len(repos),
		"events", len(events),
		"pull_requests", len(pulls))

	return &RawUserData{
		Username:     username,
		User:         user,
		Repositories: repos,
		Events:       events,
		PullRequests: pulls,
	}, nil
}

// fetchAllRepos pages through /users/{u}/repos until an empty page.
func (c *Client) fetchAllRepos(ctx context.Context, username string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for page := 1; ; page++ {
		repos, err := c.getJSONArray(ctx, fmt.Sprintf("/users/%s/repos?per_page=100&page=%d", username, page))
		if err != nil {
			return nil, err
		}
		if len(repos) == 0 {
			break
		}
		all = append(all, repos...)
	}
	return all, nil
}

// fetchPullRequests lists PRs authored by the user in their first repos.
// Per-repo failures are logged and skipped; PR data is an enrichment, not a
// required input.
func (c *Client) fetchPullRequests(ctx context.Context, username string, repos []json.RawMessage) []json.RawMessage {
	var pulls []json.RawMessage
	for i, raw := range repos {
		if i >= maxPRRepos {
			break
		}
		var repo struct {
			FullName string `json:"full_name"`
		}
		if err := json.Unmarshal(raw, &repo); err != nil || repo.FullName == "" {
			continue
		}

		prs, err := c.getJSONArray(ctx, fmt.Sprintf("/repos/%s/pulls?state=all&creator=%s", repo.FullName, username))
		if err != nil {
			slog.Warn("Skipping pull requests for repository", "repo", repo.FullName, "error", err)
			continue
		}
		pulls = append(pulls, prs...)
	}
	return pulls
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON response from %s", path)
	}
	return json.RawMessage(body), nil
}

func (c *Client) getJSONArray(ctx context.Context, path string) ([]json.RawMessage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "github-score-api/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Transient upstream failures (timeouts, 429, 5xx) are retried with
	// backoff; anything else comes back on the first attempt.
	resp, err := resilience.RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// GitHub error bodies carry a human-readable message.
		var ghErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &ghErr) == nil && ghErr.Message != "" {
			return nil, fmt.Errorf("github API error: status %d: %s", resp.StatusCode, ghErr.Message)
		}
		return nil, fmt.Errorf("github API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
