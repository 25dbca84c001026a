// Package dashboard is the state controller behind the movie dashboard: it
// holds the session-derived stores, reconciles them with the remote service
// across independent asynchronous calls, and drives the filter-to-
// recommendation request cycle.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"log/slog"

	"github.com/reelboard/reelboard/models"
)

// Controller owns every dashboard store. It is constructed only after the
// session gate has admitted a session; nothing here ever runs without a
// token.
type Controller struct {
	session *models.Session
	api     RemoteAPI
	logger  *slog.Logger

	Stats           *ProfileStatsStore
	Ratings         *RatingStore
	Watchlist       *WatchlistStore
	Filter          *FilterState
	Recommendations *RecommendationController
	Modal           *RatingModalController

	mu     sync.RWMutex
	genres []string
}

// New wires the stores together. A nil session or empty token is refused so
// no authenticated call can ever be issued without credentials.
func New(remote RemoteAPI, session *models.Session, logger *slog.Logger) (*Controller, error) {
	if session == nil || session.Token == "" {
		return nil, errors.New("dashboard requires an authenticated session")
	}

	stats := NewProfileStatsStore(remote, session, logger)
	ratings := NewRatingStore(remote, session, stats, logger)
	filter := NewFilterState()

	return &Controller{
		session:         session,
		api:             remote,
		logger:          logger,
		Stats:           stats,
		Ratings:         ratings,
		Watchlist:       NewWatchlistStore(remote, session, logger),
		Filter:          filter,
		Recommendations: NewRecommendationController(remote, stats, filter, logger),
		Modal:           NewRatingModalController(ratings),
	}, nil
}

// Session returns the session the controller was built with.
func (c *Controller) Session() *models.Session {
	return c.session
}

// Start fires the startup refreshes (genre catalog, profile stats, rating
// map, watchlist) concurrently. They write to disjoint state and their
// completion order is unspecified. No single failure is fatal: each one is
// logged and the joined error is returned for the host to surface.
func (c *Controller) Start(ctx context.Context) error {
	refreshes := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"genres", c.refreshGenres},
		{"stats", c.Stats.Refresh},
		{"ratings", c.Ratings.Refresh},
		{"watchlist", c.Watchlist.Refresh},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(refreshes))
	for i, r := range refreshes {
		wg.Add(1)
		go func(i int, name string, fn func(context.Context) error) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				c.logger.Warn("startup refresh failed",
					slog.String("refresh", name),
					slog.Any("error", err))
				errs[i] = err
			}
		}(i, r.name, r.fn)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (c *Controller) refreshGenres(ctx context.Context) error {
	genres, err := c.api.Genres(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.genres = genres
	c.mu.Unlock()
	return nil
}

// Genres returns the genre catalog fetched at startup.
func (c *Controller) Genres() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genres
}
