package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/devscore/github-score-api/internal/database"
	apperrors "github.com/devscore/github-score-api/internal/errors"
	"github.com/devscore/github-score-api/internal/github"
	"github.com/devscore/github-score-api/internal/monitoring"
	"github.com/devscore/github-score-api/internal/scoring"
	"github.com/devscore/github-score-api/internal/types"
)

// Fetcher fetches raw user activity from the upstream API.
type Fetcher interface {
	FetchUser(ctx context.Context, username string) (*github.RawUserData, error)
}

// ScoreService orchestrates the scoring flow: score cache, then raw-snapshot
// cache, then upstream fetch. Scoring itself is pure; the caches are the
// only shared state and the storage engine serializes conflicting writes.
type ScoreService struct {
	repo    *database.Repository
	fetcher Fetcher
	scorer  *scoring.Scorer
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewScoreService creates a score service.
func NewScoreService(repo *database.Repository, fetcher Fetcher, metrics *monitoring.Metrics) *ScoreService {
	return &ScoreService{
		repo:    repo,
		fetcher: fetcher,
		scorer:  scoring.NewScorer(),
		metrics: metrics,
		now:     time.Now,
	}
}

// ScoreUser returns the full score payload for a username. Cache write
// failures degrade to returning the computed result uncached; cache read
// failures other than corruption are treated as misses.
func (s *ScoreService) ScoreUser(ctx context.Context, username string) (*types.ScoreResponse, error) {
	if cached, err := s.repo.GetCachedScore(username); err != nil {
		if errors.Is(err, database.ErrCorrupt) {
			return nil, apperrors.NewDataIntegrityError("cached score is corrupt", err)
		}
		slog.Warn("Score cache read failed", "username", username, "error", err)
	} else if cached != nil {
		slog.Info("Serving cached score", "username", username, "last_updated", cached.LastUpdated)
		s.metrics.IncrementScoreCacheHit()
		return decodeCachedScore(cached)
	}

	raw, err := s.loadSnapshot(ctx, username)
	if err != nil {
		return nil, err
	}

	user := github.Project(username, raw.Repositories, raw.Events, raw.PullRequests)
	scores, err := s.scorer.CalculateScore(user)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to calculate score", err)
	}
	rating := scoring.RateScore(scores.FinalScore)

	now := s.now()
	response := &types.ScoreResponse{
		Score:     *scores,
		Rating:    rating,
		Stats:     buildStats(raw),
		Activity:  buildActivity(now, raw.Events),
		Languages: buildLanguages(raw.Repositories),
	}

	s.cacheScore(username, response, now)

	slog.Info("Score calculated", "username", username, "final_score", scores.FinalScore, "rating", rating)
	return response, nil
}

// loadSnapshot returns the raw collections for username, reusing a fresh
// cached snapshot when one exists and fetching upstream otherwise.
func (s *ScoreService) loadSnapshot(ctx context.Context, username string) (*github.RawUserData, error) {
	cached, err := s.repo.GetCachedUser(username)
	if err != nil {
		if errors.Is(err, database.ErrCorrupt) {
			return nil, apperrors.NewDataIntegrityError("cached user snapshot is corrupt", err)
		}
		slog.Warn("User cache read failed", "username", username, "error", err)
	}

	if cached != nil {
		slog.Info("Reusing cached snapshot", "username", username, "last_updated", cached.LastUpdated)
		s.metrics.IncrementRawCacheHit()
		return decodeCachedUser(cached)
	}

	s.metrics.IncrementCacheMiss()
	s.metrics.IncrementGitHubCalls()
	raw, err := s.fetcher.FetchUser(ctx, username)
	if err != nil {
		return nil, apperrors.NewExternalAPIError("GitHub", err)
	}

	s.cacheSnapshot(raw)
	return raw, nil
}

// cacheSnapshot persists the raw snapshot; failure is logged, never fatal.
func (s *ScoreService) cacheSnapshot(raw *github.RawUserData) {
	record := &database.CachedUser{
		Username:     raw.Username,
		UserData:     raw.User,
		Repositories: marshalRecords(raw.Repositories),
		Events:       marshalRecords(raw.Events),
		PullRequests: marshalRecords(raw.PullRequests),
		LastUpdated:  s.now(),
	}
	if err := s.repo.SaveUser(record); err != nil {
		slog.Error("Failed to cache user snapshot", "username", raw.Username, "error", err)
	}
}

// cacheScore persists the computed payload; failure is logged, never fatal.
func (s *ScoreService) cacheScore(username string, response *types.ScoreResponse, now time.Time) {
	record := &database.CachedScore{
		Username:    username,
		Score:       mustMarshal(response.Score),
		Rating:      response.Rating,
		Stats:       mustMarshal(response.Stats),
		Activity:    mustMarshal(response.Activity),
		Languages:   mustMarshal(response.Languages),
		LastUpdated: now,
	}
	if err := s.repo.SaveScore(record); err != nil {
		slog.Error("Failed to cache score", "username", username, "error", err)
	}
}

// decodeCachedScore rebuilds the response from a cached score record.
// Decode failures are integrity errors, not recompute triggers.
func decodeCachedScore(cached *database.CachedScore) (*types.ScoreResponse, error) {
	response := &types.ScoreResponse{Rating: cached.Rating}

	for _, blob := range []struct {
		name string
		raw  json.RawMessage
		dst  any
	}{
		{"score", cached.Score, &response.Score},
		{"stats", cached.Stats, &response.Stats},
		{"activity", cached.Activity, &response.Activity},
		{"languages", cached.Languages, &response.Languages},
	} {
		if err := json.Unmarshal(blob.raw, blob.dst); err != nil {
			return nil, apperrors.NewDataIntegrityError(
				fmt.Sprintf("failed to decode cached %s for %q", blob.name, cached.Username), err)
		}
	}
	return response, nil
}

// decodeCachedUser unpacks a cached snapshot back into per-record form.
func decodeCachedUser(cached *database.CachedUser) (*github.RawUserData, error) {
	raw := &github.RawUserData{Username: cached.Username, User: cached.UserData}

	for _, blob := range []struct {
		name string
		src  json.RawMessage
		dst  *[]json.RawMessage
	}{
		{"repositories", cached.Repositories, &raw.Repositories},
		{"events", cached.Events, &raw.Events},
		{"pull_requests", cached.PullRequests, &raw.PullRequests},
	} {
		if err := json.Unmarshal(blob.src, blob.dst); err != nil {
			return nil, apperrors.NewDataIntegrityError(
				fmt.Sprintf("failed to decode cached %s for %q", blob.name, cached.Username), err)
		}
	}
	return raw, nil
}

func marshalRecords(records []json.RawMessage) json.RawMessage {
	if records == nil {
		return json.RawMessage("[]")
	}
	data, err := json.Marshal(records)
	if err != nil {
		return json.RawMessage("[]")
	}
	return data
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Response types contain only marshalable fields.
		return json.RawMessage("{}")
	}
	return data
}
