package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"log/slog"

	"github.com/reelboard/reelboard/models"
)

// DefaultPosterBaseURL is the image host prefix poster paths are resolved
// against.
const DefaultPosterBaseURL = "https://image.tmdb.org/t/p/w500"

// PosterPlaceholder is returned when a movie has no poster path, so the UI
// never renders a broken reference.
const PosterPlaceholder = "/static/poster-placeholder.png"

// Client issues calls to the recommendation service. It holds no state
// beyond its configuration and is safe to share by reference; retries and
// response caching, if wanted, belong to the caller.
type Client struct {
	baseURL       string
	posterBaseURL string
	httpClient    *http.Client
	logger        *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		posterBaseURL: DefaultPosterBaseURL,
		httpClient:    &http.Client{},
		logger:        logger,
	}
}

// SetHTTPClient swaps the underlying http.Client, e.g. to add a transport or
// a timeout.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// RecommendQuery is the body of POST /api/recommend. Genres always marshals
// as a JSON array, never null, so the service sees exactly the fields the
// filter produced.
type RecommendQuery struct {
	UserMean  float64  `json:"user_mean"`
	Genres    []string `json:"genres"`
	MinRating float64  `json:"min_rating"`
	Era       string   `json:"era"`
	Limit     int      `json:"limit"`
}

// roundTrip performs one request and returns the status and raw body. Any
// transport-level failure comes back as a KindNetwork RemoteError.
func (c *Client) roundTrip(ctx context.Context, method, path string, body any, token string) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &RemoteError{Kind: KindNetwork, cause: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", slog.Any("error", err))
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &RemoteError{Kind: KindNetwork, cause: err}
	}

	return resp.StatusCode, raw, nil
}

// do performs a request and decodes a 2xx body into out. Non-2xx statuses
// are mapped onto the RemoteError taxonomy; the service's "error" field, if
// present, becomes the detail.
func (c *Client) do(ctx context.Context, method, path string, body any, token string, out any) error {
	status, raw, err := c.roundTrip(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &envelope)

		remoteErr := &RemoteError{Status: status, Detail: envelope.Error}
		switch {
		case status == http.StatusUnauthorized:
			remoteErr.Kind = KindUnauthorized
		case status >= 500:
			remoteErr.Kind = KindServer
		default:
			remoteErr.Kind = KindClient
		}
		c.logger.Debug("remote call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("kind", string(remoteErr.Kind)))
		return remoteErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a session. Denied logins (4xx with field
// messages) return *LoginDenied; other failures follow the usual taxonomy.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Session, error) {
	body := map[string]string{"username": username, "password": password}

	status, raw, err := c.roundTrip(ctx, http.MethodPost, "/api/login", body, "")
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		if status >= 500 {
			return nil, &RemoteError{Kind: KindServer, Status: status}
		}
		denied := &LoginDenied{}
		if err := json.Unmarshal(raw, denied); err != nil {
			return nil, &RemoteError{Kind: KindClient, Status: status}
		}
		return nil, denied
	}

	var result struct {
		Token string             `json:"token"`
		User  models.UserProfile `json:"user"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login response missing token")
	}

	return &models.Session{Token: result.Token, User: result.User}, nil
}

// CurrentUser fetches the profile behind the token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*models.UserProfile, error) {
	var result struct {
		User models.UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, token, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// Genres fetches the genre catalog. No auth required.
func (c *Client) Genres(ctx context.Context) ([]string, error) {
	var result struct {
		Genres []string `json:"genres"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/genres", nil, "", &result); err != nil {
		return nil, err
	}
	return result.Genres, nil
}

// UserStats fetches the user's aggregate rating statistics.
func (c *Client) UserStats(ctx context.Context, token string) (models.UserStatsResult, error) {
	var result struct {
		RatingStats struct {
			UserMean     *float64 `json:"user_mean"`
			TotalRatings int      `json:"total_ratings"`
		} `json:"rating_stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/stats", nil, token, &result); err != nil {
		return models.UserStatsResult{}, err
	}
	return models.UserStatsResult{
		MeanRating:   result.RatingStats.UserMean,
		TotalRatings: result.RatingStats.TotalRatings,
	}, nil
}

// Ratings fetches all of the user's rating entries.
func (c *Client) Ratings(ctx context.Context, token string) ([]models.RatingEntry, error) {
	var result struct {
		Ratings []models.RatingEntry `json:"ratings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ratings", nil, token, &result); err != nil {
		return nil, err
	}
	return result.Ratings, nil
}

// Rate upserts the user's rating for a movie and returns the service's
// recomputed stats.
func (c *Client) Rate(ctx context.Context, token string, movieID int64, rating int) (models.ProfileStats, error) {
	body := map[string]any{"movie_id": movieID, "rating": rating}
	var result struct {
		UserStats struct {
			UserMean    float64 `json:"user_mean"`
			RatingCount int     `json:"rating_count"`
		} `json:"user_stats"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ratings", body, token, &result); err != nil {
		return models.ProfileStats{}, err
	}
	return models.ProfileStats{
		MeanRating:  result.UserStats.UserMean,
		RatingCount: result.UserStats.RatingCount,
	}, nil
}

// DeleteRating removes the user's rating for a movie.
func (c *Client) DeleteRating(ctx context.Context, token string, movieID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/ratings/%d", movieID), nil, token, nil)
}

// Watchlist fetches the user's watchlist with denormalized display fields.
func (c *Client) Watchlist(ctx context.Context, token string) ([]models.WatchlistEntry, error) {
	var result struct {
		Watchlist []models.WatchlistEntry `json:"watchlist"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, token, &result); err != nil {
		return nil, err
	}
	return result.Watchlist, nil
}

// AddToWatchlist bookmarks a movie.
func (c *Client) AddToWatchlist(ctx context.Context, token string, movieID int64) error {
	body := map[string]any{"movie_id": movieID}
	return c.do(ctx, http.MethodPost, "/api/watchlist", body, token, nil)
}

// RemoveFromWatchlist removes a bookmark.
func (c *Client) RemoveFromWatchlist(ctx context.Context, token string, movieID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/watchlist/%d", movieID), nil, token, nil)
}

// Recommend requests a fresh recommendation list. The endpoint is anonymous;
// personalization rides on the user_mean in the query.
func (c *Client) Recommend(ctx context.Context, q RecommendQuery) ([]models.MovieRecommendation, error) {
	if q.Genres == nil {
		q.Genres = []string{}
	}
	var result struct {
		Recommendations []models.MovieRecommendation `json:"recommendations"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/recommend", q, "", &result); err != nil {
		return nil, err
	}
	return result.Recommendations, nil
}

// PosterURL resolves a server-provided poster path against the image host.
// An empty path yields the placeholder, never a broken reference.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return PosterPlaceholder
	}
	return fmt.Sprintf("%s%s", c.posterBaseURL, posterPath)
}
