package dashboard

import (
	"context"
	"sort"
	"sync"

	"log/slog"

	"github.com/reelboard/reelboard/models"
)

// WatchlistStore holds the set of bookmarked movies. Adds are optimistic: a
// stub entry built from the movie at hand appears immediately and is rolled
// back on failure; on success a full refresh makes the denormalized display
// fields authoritative.
type WatchlistStore struct {
	mu      sync.RWMutex
	api     RemoteAPI
	session *models.Session
	logger  *slog.Logger
	entries map[int64]models.WatchlistEntry
	pending map[int64]bool
}

func NewWatchlistStore(remote RemoteAPI, session *models.Session, logger *slog.Logger) *WatchlistStore {
	return &WatchlistStore{
		api:     remote,
		session: session,
		logger:  logger,
		entries: make(map[int64]models.WatchlistEntry),
		pending: make(map[int64]bool),
	}
}

// Refresh replaces the set from the service.
func (s *WatchlistStore) Refresh(ctx context.Context) error {
	list, err := s.api.Watchlist(ctx, s.session.Token)
	if err != nil {
		s.logger.Warn("watchlist refresh failed", slog.Any("error", err))
		return err
	}

	fresh := make(map[int64]models.WatchlistEntry, len(list))
	for _, e := range list {
		fresh[e.MovieID] = e
	}

	s.mu.Lock()
	s.entries = fresh
	s.mu.Unlock()
	return nil
}

// Contains reports whether a movie is bookmarked.
func (s *WatchlistStore) Contains(movieID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[movieID]
	return ok
}

// IsPending reports whether a mutation for this movie is awaiting
// confirmation.
func (s *WatchlistStore) IsPending(movieID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[movieID]
}

// Entries returns a snapshot of the watchlist, ordered by movie id for
// stable display.
func (s *WatchlistStore) Entries() []models.WatchlistEntry {
	s.mu.RLock()
	out := make([]models.WatchlistEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].MovieID < out[j].MovieID })
	return out
}

// Add bookmarks a movie. Already-bookmarked movies are a no-op.
func (s *WatchlistStore) Add(ctx context.Context, movie models.MovieRecommendation) error {
	s.mu.Lock()
	if _, ok := s.entries[movie.MovieID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.entries[movie.MovieID] = models.WatchlistEntry{
		MovieID:     movie.MovieID,
		Title:       movie.Title,
		ReleaseYear: movie.ReleaseYear,
		Genres:      movie.Genres,
		PosterPath:  movie.PosterPath,
	}
	s.pending[movie.MovieID] = true
	s.mu.Unlock()

	err := s.api.AddToWatchlist(ctx, s.session.Token, movie.MovieID)

	s.mu.Lock()
	delete(s.pending, movie.MovieID)
	if err != nil {
		delete(s.entries, movie.MovieID)
		s.mu.Unlock()
		s.logger.Warn("watchlist add rolled back",
			slog.Int64("movie_id", movie.MovieID),
			slog.Any("error", err))
		return err
	}
	s.mu.Unlock()

	// The stub entry stands in until the authoritative record arrives.
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("watchlist refresh after add failed", slog.Any("error", err))
	}
	return nil
}

// Remove deletes a bookmark, optimistically.
func (s *WatchlistStore) Remove(ctx context.Context, movieID int64) error {
	s.mu.Lock()
	prev, had := s.entries[movieID]
	if !had {
		s.mu.Unlock()
		return nil
	}
	delete(s.entries, movieID)
	s.pending[movieID] = true
	s.mu.Unlock()

	err := s.api.RemoveFromWatchlist(ctx, s.session.Token, movieID)

	s.mu.Lock()
	delete(s.pending, movieID)
	if err != nil {
		s.entries[movieID] = prev
		s.mu.Unlock()
		s.logger.Warn("watchlist remove rolled back",
			slog.Int64("movie_id", movieID),
			slog.Any("error", err))
		return err
	}
	s.mu.Unlock()
	return nil
}
