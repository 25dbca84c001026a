package dashboard_test

import (
	"context"
	"io"
	"testing"

	"log/slog"

	"github.com/reelboard/reelboard/lib/api"
	"github.com/reelboard/reelboard/lib/dashboard"
	"github.com/reelboard/reelboard/models"
)

type fakeAPI struct {
	genresFn          func(ctx context.Context) ([]string, error)
	userStatsFn       func(ctx context.Context, token string) (models.UserStatsResult, error)
	ratingsFn         func(ctx context.Context, token string) ([]models.RatingEntry, error)
	rateFn            func(ctx context.Context, token string, movieID int64, rating int) (models.ProfileStats, error)
	deleteRatingFn    func(ctx context.Context, token string, movieID int64) error
	watchlistFn       func(ctx context.Context, token string) ([]models.WatchlistEntry, error)
	addWatchlistFn    func(ctx context.Context, token string, movieID int64) error
	removeWatchlistFn func(ctx context.Context, token string, movieID int64) error
	recommendFn       func(ctx context.Context, q api.RecommendQuery) ([]models.MovieRecommendation, error)
}

func (f *fakeAPI) Genres(ctx context.Context) ([]string, error) {
	if f.genresFn != nil {
		return f.genresFn(ctx)
	}
	return nil, nil
}

func (f *fakeAPI) UserStats(ctx context.Context, token string) (models.UserStatsResult, error) {
	if f.userStatsFn != nil {
		return f.userStatsFn(ctx, token)
	}
	return models.UserStatsResult{}, nil
}

func (f *fakeAPI) Ratings(ctx context.Context, token string) ([]models.RatingEntry, error) {
	if f.ratingsFn != nil {
		return f.ratingsFn(ctx, token)
	}
	return nil, nil
}

func (f *fakeAPI) Rate(ctx context.Context, token string, movieID int64, rating int) (models.ProfileStats, error) {
	if f.rateFn != nil {
		return f.rateFn(ctx, token, movieID, rating)
	}
	return models.ProfileStats{}, nil
}

func (f *fakeAPI) DeleteRating(ctx context.Context, token string, movieID int64) error {
	if f.deleteRatingFn != nil {
		return f.deleteRatingFn(ctx, token, movieID)
	}
	return nil
}

func (f *fakeAPI) Watchlist(ctx context.Context, token string) ([]models.WatchlistEntry, error) {
	if f.watchlistFn != nil {
		return f.watchlistFn(ctx, token)
	}
	return nil, nil
}

func (f *fakeAPI) AddToWatchlist(ctx context.Context, token string, movieID int64) error {
	if f.addWatchlistFn != nil {
		return f.addWatchlistFn(ctx, token, movieID)
	}
	return nil
}

func (f *fakeAPI) RemoveFromWatchlist(ctx context.Context, token string, movieID int64) error {
	if f.removeWatchlistFn != nil {
		return f.removeWatchlistFn(ctx, token, movieID)
	}
	return nil
}

func (f *fakeAPI) Recommend(ctx context.Context, q api.RecommendQuery) ([]models.MovieRecommendation, error) {
	if f.recommendFn != nil {
		return f.recommendFn(ctx, q)
	}
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession() *models.Session {
	return &models.Session{
		Token: "test-token",
		User:  models.UserProfile{UserID: 1, Username: "tester"},
	}
}

func testController(t *testing.T, remote dashboard.RemoteAPI) *dashboard.Controller {
	t.Helper()
	ctrl, err := dashboard.New(remote, testSession(), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ctrl
}
