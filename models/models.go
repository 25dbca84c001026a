package models

import (
	"gorm.io/gorm"
)

// DefaultMeanRating is assumed for a user with no ratings yet.
const DefaultMeanRating = 3.5

// UserProfile holds the account fields returned by the login and /api/me
// endpoints.
type UserProfile struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
}

// Session is the authenticated identity constructed once at startup and
// passed by reference to every component that issues bearer calls.
type Session struct {
	Token string
	User  UserProfile
}

// SessionRecord is the persisted form of a Session. The client keeps at most
// one row; it is written at login, cleared at logout and read once at startup.
type SessionRecord struct {
	gorm.Model
	Token       string
	ProfileJSON string
}

// ProfileStats holds the user's aggregate rating statistics.
type ProfileStats struct {
	MeanRating  float64
	RatingCount int
}

// UserStatsResult is the decoded /api/user/stats payload. MeanRating is nil
// when the user has no ratings; callers substitute DefaultMeanRating.
type UserStatsResult struct {
	MeanRating   *float64
	TotalRatings int
}

// RatingEntry maps one movie to the user's rating for it.
type RatingEntry struct {
	MovieID int64 `json:"movie_id"`
	Rating  int   `json:"rating"`
}

// WatchlistEntry is a bookmarked movie with the denormalized display fields
// the service joins in.
type WatchlistEntry struct {
	MovieID     int64  `json:"movie_id"`
	Title       string `json:"title"`
	ReleaseYear int    `json:"release_year"`
	Genres      string `json:"genres"`
	PosterPath  string `json:"poster_url"`
}

// MovieRecommendation is one entry in a recommendation response.
// PredictedRating is present on recommendation results only, never on
// watchlist entries.
type MovieRecommendation struct {
	MovieID         int64    `json:"movie_id"`
	Title           string   `json:"title"`
	ReleaseYear     int      `json:"release_year"`
	Genres          string   `json:"genres"`
	PosterPath      string   `json:"poster_url,omitempty"`
	PredictedRating *float64 `json:"predicted_rating,omitempty"`
}

// Era is a coarse release-year bucket used as a recommendation filter.
type Era string

const (
	EraAny     Era = "any"
	EraClassic Era = "classic"
	EraRetro   Era = "retro"
	EraModern  Era = "modern"
	EraRecent  Era = "recent"
)

// Valid reports whether e is one of the known era buckets.
func (e Era) Valid() bool {
	switch e {
	case EraAny, EraClassic, EraRetro, EraModern, EraRecent:
		return true
	}
	return false
}
