package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchUserPaginatesRepos(t *testing.T) {
	var repoPages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/octocat":
			fmt.Fprint(w, `{"login":"octocat"}`)
		case r.URL.Path == "/users/octocat/repos":
			repoPages++
			page := r.URL.Query().Get("page")
			if page == "1" {
				fmt.Fprint(w, `[{"full_name":"octocat/a"},{"full_name":"octocat/b"}]`)
			} else {
				fmt.Fprint(w, `[]`)
			}
		case r.URL.Path == "/users/octocat/events":
			fmt.Fprint(w, `[{"type":"PushEvent","created_at":"2025-01-01T00:00:00Z"}]`)
		case r.URL.Path == "/repos/octocat/a/pulls":
			fmt.Fprint(w, `[{"merged_at":"2025-01-02T00:00:00Z"},{"merged_at":null}]`)
		case r.URL.Path == "/repos/octocat/b/pulls":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	data, err := client.FetchUser(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, 2, repoPages, "should stop after the first empty page")
	assert.Len(t, data.Repositories, 2)
	assert.Len(t, data.Events, 1)
	// Repo b's PR listing 404s; its failure is skipped, not fatal.
	assert.Len(t, data.PullRequests, 2)
	assert.JSONEq(t, `{"login":"octocat"}`, string(data.User))
}

func TestFetchUserSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	_, err := client.FetchUser(context.Background(), "octocat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API rate limit exceeded")
}

func TestFetchUserSendsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path == "/users/octocat" {
			fmt.Fprint(w, `{"login":"octocat"}`)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("secret-token", srv.URL)
	_, err := client.FetchUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestProjectDropsUnparseableRecords(t *testing.T) {
	repos := []json.RawMessage{
		json.RawMessage(`{"name":"good","stargazers_count":10,"updated_at":"2025-01-01T00:00:00Z","owner":{"login":"dev"}}`),
		json.RawMessage(`{"name":"bad","stargazers_count":"not-a-number"}`),
	}
	events := []json.RawMessage{
		json.RawMessage(`{"type":"PushEvent","created_at":"2025-01-01T00:00:00Z"}`),
		json.RawMessage(`{"type":"PushEvent","created_at":"not-a-timestamp"}`),
	}
	pulls := []json.RawMessage{
		json.RawMessage(`{"merged_at":"2025-01-01T00:00:00Z"}`),
		json.RawMessage(`{"merged_at":12345}`),
	}

	user := Project("dev", repos, events, pulls)

	assert.Equal(t, "dev", user.Login)
	require.Len(t, user.Repositories, 1)
	assert.Equal(t, "good", user.Repositories[0].Name)
	assert.Len(t, user.Events, 1)
	assert.Len(t, user.PullRequests, 1)
	assert.NotNil(t, user.PullRequests[0].MergedAt)
}
