package dashboard

import (
	"context"

	"github.com/reelboard/reelboard/lib/api"
	"github.com/reelboard/reelboard/models"
)

// RemoteAPI is the slice of the service client the dashboard uses.
// *api.Client satisfies it.
type RemoteAPI interface {
	Genres(ctx context.Context) ([]string, error)
	UserStats(ctx context.Context, token string) (models.UserStatsResult, error)
	Ratings(ctx context.Context, token string) ([]models.RatingEntry, error)
	Rate(ctx context.Context, token string, movieID int64, rating int) (models.ProfileStats, error)
	DeleteRating(ctx context.Context, token string, movieID int64) error
	Watchlist(ctx context.Context, token string) ([]models.WatchlistEntry, error)
	AddToWatchlist(ctx context.Context, token string, movieID int64) error
	RemoveFromWatchlist(ctx context.Context, token string, movieID int64) error
	Recommend(ctx context.Context, q api.RecommendQuery) ([]models.MovieRecommendation, error)
}

var _ RemoteAPI = (*api.Client)(nil)
