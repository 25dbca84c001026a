package dashboard

import (
	"context"
	"sync"

	"log/slog"

	"github.com/reelboard/reelboard/models"
)

// ProfileStatsStore holds the user's aggregate rating statistics. It is
// refreshed from the service and updated directly from rating-mutation
// responses, so the stats shown after a rate action always reflect that
// action even if a background refresh is still pending.
type ProfileStatsStore struct {
	mu      sync.RWMutex
	api     RemoteAPI
	session *models.Session
	logger  *slog.Logger
	stats   models.ProfileStats
}

func NewProfileStatsStore(remote RemoteAPI, session *models.Session, logger *slog.Logger) *ProfileStatsStore {
	return &ProfileStatsStore{
		api:     remote,
		session: session,
		logger:  logger,
		stats:   models.ProfileStats{MeanRating: models.DefaultMeanRating},
	}
}

// Refresh replaces the stats from the service. A failure leaves the prior
// state untouched and is reported upward; there is no retry.
func (s *ProfileStatsStore) Refresh(ctx context.Context) error {
	result, err := s.api.UserStats(ctx, s.session.Token)
	if err != nil {
		s.logger.Warn("stats refresh failed", slog.Any("error", err))
		return err
	}

	mean := models.DefaultMeanRating
	if result.MeanRating != nil && result.TotalRatings > 0 {
		mean = *result.MeanRating
	}

	s.mu.Lock()
	s.stats = models.ProfileStats{MeanRating: mean, RatingCount: result.TotalRatings}
	s.mu.Unlock()
	return nil
}

// ApplyMutationResult replaces the stats wholesale from a rating-mutation
// response, without a round trip.
func (s *ProfileStatsStore) ApplyMutationResult(stats models.ProfileStats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// Stats returns the current snapshot.
func (s *ProfileStatsStore) Stats() models.ProfileStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
