package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reelboard/reelboard/lib/api"
	"github.com/reelboard/reelboard/lib/dashboard"
	"github.com/reelboard/reelboard/models"
)

type recommendCall struct {
	query   api.RecommendQuery
	ctx     context.Context
	release chan []models.MovieRecommendation
}

// blockingRecommender parks every Recommend call until the test releases it,
// ignoring context cancellation so stale responses can still arrive.
func blockingRecommender() (*fakeAPI, chan *recommendCall) {
	calls := make(chan *recommendCall, 4)
	remote := &fakeAPI{
		recommendFn: func(ctx context.Context, q api.RecommendQuery) ([]models.MovieRecommendation, error) {
			c := &recommendCall{query: q, ctx: ctx, release: make(chan []models.MovieRecommendation)}
			calls <- c
			return <-c.release, nil
		},
	}
	return remote, calls
}

func newRecommendFixture(remote dashboard.RemoteAPI) *dashboard.RecommendationController {
	stats := dashboard.NewProfileStatsStore(remote, testSession(), testLogger())
	filter := dashboard.NewFilterState()
	return dashboard.NewRecommendationController(remote, stats, filter, testLogger())
}

func TestRequest_DefaultQueryReachesServiceUnfiltered(t *testing.T) {
	var got api.RecommendQuery
	remote := &fakeAPI{
		recommendFn: func(_ context.Context, q api.RecommendQuery) ([]models.MovieRecommendation, error) {
			got = q
			return []models.MovieRecommendation{{MovieID: 11, Title: "Star Wars"}}, nil
		},
	}
	ctrl := newRecommendFixture(remote)

	if err := ctrl.Request(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.UserMean != models.DefaultMeanRating {
		t.Fatalf("expected user_mean %v, got %v", models.DefaultMeanRating, got.UserMean)
	}
	if got.Genres == nil || len(got.Genres) != 0 {
		t.Fatalf("expected empty genre list, got %v", got.Genres)
	}
	if got.MinRating != 3.5 || got.Era != "any" || got.Limit != 20 {
		t.Fatalf("unexpected query: %+v", got)
	}

	phase, list, _ := ctrl.Snapshot()
	if phase != dashboard.PhaseReady || len(list) != 1 {
		t.Fatalf("expected ready with 1 result, got %s with %d", phase, len(list))
	}
}

func TestRequest_UsesCurrentStatsAndFilter(t *testing.T) {
	mean := 4.25
	var got api.RecommendQuery
	remote := &fakeAPI{
		userStatsFn: func(_ context.Context, _ string) (models.UserStatsResult, error) {
			return models.UserStatsResult{MeanRating: &mean, TotalRatings: 8}, nil
		},
		recommendFn: func(_ context.Context, q api.RecommendQuery) ([]models.MovieRecommendation, error) {
			got = q
			return nil, nil
		},
	}
	stats := dashboard.NewProfileStatsStore(remote, testSession(), testLogger())
	filter := dashboard.NewFilterState()
	ctrl := dashboard.NewRecommendationController(remote, stats, filter, testLogger())

	if err := stats.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filter.ToggleGenre("Drama")
	filter.ToggleGenre("Crime")
	if err := filter.SetMinRating(4.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := filter.SetEra(models.EraModern); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ctrl.Request(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.UserMean != 4.25 || got.MinRating != 4.0 || got.Era != "modern" {
		t.Fatalf("unexpected query: %+v", got)
	}
	if len(got.Genres) != 2 || got.Genres[0] != "Crime" || got.Genres[1] != "Drama" {
		t.Fatalf("unexpected genres: %v", got.Genres)
	}
}

func TestRequest_LoadingIsDistinctFromFailed(t *testing.T) {
	remote, calls := blockingRecommender()
	ctrl := newRecommendFixture(remote)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Request(context.Background())
	}()

	call := <-calls
	phase, _, err := ctrl.Snapshot()
	if phase != dashboard.PhaseLoading || err != nil {
		t.Fatalf("expected loading with no error, got %s %v", phase, err)
	}

	call.release <- []models.MovieRecommendation{{MovieID: 11}}
	<-done

	phase, list, _ := ctrl.Snapshot()
	if phase != dashboard.PhaseReady || len(list) != 1 {
		t.Fatalf("expected ready, got %s with %d results", phase, len(list))
	}
}

func TestRequest_NewerRequestWins(t *testing.T) {
	remote, calls := blockingRecommender()
	ctrl := newRecommendFixture(remote)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = ctrl.Request(context.Background()) }()
	first := <-calls
	go func() { defer wg.Done(); _ = ctrl.Request(context.Background()) }()
	second := <-calls

	// The first request's context is canceled as soon as the second is
	// issued.
	if first.ctx.Err() == nil {
		t.Fatal("expected first request context canceled")
	}

	second.release <- []models.MovieRecommendation{{MovieID: 2, Title: "second"}}
	// The stale response arrives after the newer one resolved.
	first.release <- []models.MovieRecommendation{{MovieID: 1, Title: "first"}}
	wg.Wait()

	phase, list, _ := ctrl.Snapshot()
	if phase != dashboard.PhaseReady {
		t.Fatalf("expected ready, got %s", phase)
	}
	if len(list) != 1 || list[0].Title != "second" {
		t.Fatalf("expected the newer request's list, got %+v", list)
	}
}

func TestRequest_FailureKeepsPriorList(t *testing.T) {
	fail := false
	remote := &fakeAPI{
		recommendFn: func(_ context.Context, _ api.RecommendQuery) ([]models.MovieRecommendation, error) {
			if fail {
				return nil, errors.New("boom")
			}
			return []models.MovieRecommendation{{MovieID: 11, Title: "Star Wars"}}, nil
		},
	}
	ctrl := newRecommendFixture(remote)

	if err := ctrl.Request(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fail = true
	if err := ctrl.Request(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	phase, list, err := ctrl.Snapshot()
	if phase != dashboard.PhaseFailed || err == nil {
		t.Fatalf("expected failed with error, got %s %v", phase, err)
	}
	if len(list) != 1 || list[0].Title != "Star Wars" {
		t.Fatalf("failure cleared the prior list: %+v", list)
	}
}

func TestRequest_ListReplacedWholesale(t *testing.T) {
	lists := [][]models.MovieRecommendation{
		{{MovieID: 1}, {MovieID: 2}},
		{{MovieID: 3}},
	}
	call := 0
	remote := &fakeAPI{
		recommendFn: func(_ context.Context, _ api.RecommendQuery) ([]models.MovieRecommendation, error) {
			list := lists[call]
			call++
			return list, nil
		},
	}
	ctrl := newRecommendFixture(remote)

	if err := ctrl.Request(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctrl.Request(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, list, _ := ctrl.Snapshot()
	if len(list) != 1 || list[0].MovieID != 3 {
		t.Fatalf("expected wholesale replacement, got %+v", list)
	}
}
