package dashboard

import (
	"context"
	"fmt"
	"sync"

	"log/slog"

	"github.com/reelboard/reelboard/models"
)

// RatingStore holds the user's rating per movie. Mutations are applied
// optimistically: the local value changes before the call, is confirmed on
// success and rolled back to the prior value on failure. Entries awaiting
// confirmation are flagged pending.
type RatingStore struct {
	mu      sync.RWMutex
	api     RemoteAPI
	session *models.Session
	stats   *ProfileStatsStore
	logger  *slog.Logger
	ratings map[int64]int
	pending map[int64]bool
}

func NewRatingStore(remote RemoteAPI, session *models.Session, stats *ProfileStatsStore, logger *slog.Logger) *RatingStore {
	return &RatingStore{
		api:     remote,
		session: session,
		stats:   stats,
		logger:  logger,
		ratings: make(map[int64]int),
		pending: make(map[int64]bool),
	}
}

// Refresh replaces the whole mapping from the service. Pending flags for
// in-flight mutations are left alone.
func (s *RatingStore) Refresh(ctx context.Context) error {
	entries, err := s.api.Ratings(ctx, s.session.Token)
	if err != nil {
		s.logger.Warn("ratings refresh failed", slog.Any("error", err))
		return err
	}

	fresh := make(map[int64]int, len(entries))
	for _, e := range entries {
		fresh[e.MovieID] = e.Rating
	}

	s.mu.Lock()
	s.ratings = fresh
	s.mu.Unlock()
	return nil
}

// Get returns the user's rating for a movie, if any.
func (s *RatingStore) Get(movieID int64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[movieID]
	return r, ok
}

// IsPending reports whether a mutation for this movie is awaiting
// confirmation.
func (s *RatingStore) IsPending(movieID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[movieID]
}

// Count returns the number of rated movies currently held.
func (s *RatingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}

// Rate records a rating in [1,5]. The value is set locally first, then the
// service is called; on success the returned stats are forwarded to the
// ProfileStatsStore, on failure the prior value is restored.
func (s *RatingStore) Rate(ctx context.Context, movieID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	s.mu.Lock()
	prev, had := s.ratings[movieID]
	s.ratings[movieID] = rating
	s.pending[movieID] = true
	s.mu.Unlock()

	stats, err := s.api.Rate(ctx, s.session.Token, movieID, rating)

	s.mu.Lock()
	delete(s.pending, movieID)
	if err != nil {
		if had {
			s.ratings[movieID] = prev
		} else {
			delete(s.ratings, movieID)
		}
		s.mu.Unlock()
		s.logger.Warn("rating rolled back",
			slog.Int64("movie_id", movieID),
			slog.Int("rating", rating),
			slog.Any("error", err))
		return err
	}
	s.mu.Unlock()

	s.stats.ApplyMutationResult(stats)
	return nil
}

// Unrate deletes the user's rating for a movie, optimistically. The stats
// store is refreshed afterwards since the delete response carries no stats;
// a failed refresh only logs.
func (s *RatingStore) Unrate(ctx context.Context, movieID int64) error {
	s.mu.Lock()
	prev, had := s.ratings[movieID]
	if !had {
		s.mu.Unlock()
		return nil
	}
	delete(s.ratings, movieID)
	s.pending[movieID] = true
	s.mu.Unlock()

	err := s.api.DeleteRating(ctx, s.session.Token, movieID)

	s.mu.Lock()
	delete(s.pending, movieID)
	if err != nil {
		s.ratings[movieID] = prev
		s.mu.Unlock()
		s.logger.Warn("rating delete rolled back",
			slog.Int64("movie_id", movieID),
			slog.Any("error", err))
		return err
	}
	s.mu.Unlock()

	if err := s.stats.Refresh(ctx); err != nil {
		s.logger.Warn("stats refresh after unrate failed", slog.Any("error", err))
	}
	return nil
}
