// Package devserver is an in-process stand-in for the remote recommendation
// service. It implements the same HTTP surface the client consumes, backed
// by SQLite, so development and integration tests never need the real
// deployment.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Server struct {
	db       *gorm.DB
	logger   *slog.Logger
	secret   []byte
	validate *validator.Validate
	router   *chi.Mux
}

func New(db *gorm.DB, secret string, logger *slog.Logger) *Server {
	s := &Server{
		db:       db,
		logger:   logger,
		secret:   []byte(secret),
		validate: validator.New(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/genres", s.handleGenres)
	r.Post("/api/recommend", s.handleRecommend)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/register", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/me", s.handleMe)
		r.Get("/api/user/stats", s.handleUserStats)
		r.Get("/api/ratings", s.handleListRatings)
		r.Post("/api/ratings", s.handleRate)
		r.Delete("/api/ratings/{movieID}", s.handleDeleteRating)
		r.Get("/api/watchlist", s.handleListWatchlist)
		r.Post("/api/watchlist", s.handleAddWatchlist)
		r.Delete("/api/watchlist/{movieID}", s.handleRemoveWatchlist)
	})

	s.router = r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]string{"error": message}, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		writeJSON(w, map[string]string{"status": "degraded"}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	fieldErrs := map[string]string{}
	if req.Username == "" {
		fieldErrs["error_username"] = "Username is required"
	}
	if req.Password == "" {
		fieldErrs["error_password"] = "Password is required"
	}
	if len(fieldErrs) > 0 {
		fieldErrs["error"] = "Username and password are required"
		writeJSON(w, fieldErrs, http.StatusBadRequest)
		return
	}

	var user User
	if err := s.db.WithContext(r.Context()).Where("username = ?", req.Username).First(&user).Error; err != nil {
		writeJSON(w, map[string]string{"error": "Invalid Credentials"}, http.StatusUnauthorized)
		return
	}

	if !checkPassword(req.Password, user.PasswordHash) {
		writeJSON(w, map[string]string{
			"error":          "Invalid Credentials",
			"error_password": "Invalid Password",
		}, http.StatusUnauthorized)
		return
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error("token generation failed", slog.Any("error", err))
		writeError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    s.profilePayload(&user),
	}, http.StatusOK)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, registerMessage(verrs[0]), http.StatusBadRequest)
			return
		}
		writeError(w, "Invalid registration data", http.StatusBadRequest)
		return
	}

	var count int64
	s.db.WithContext(r.Context()).Model(&User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		writeError(w, "Username already taken", http.StatusConflict)
		return
	}
	s.db.WithContext(r.Context()).Model(&User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		writeError(w, "Email already registered", http.StatusConflict)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error("password hashing failed", slog.Any("error", err))
		writeError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	user := User{Username: req.Username, Email: req.Email, Name: req.Name, PasswordHash: hash}
	if err := s.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		s.logger.Error("failed to create user", slog.Any("error", err))
		writeError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		writeError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"message": "Registration successful",
		"token":   token,
		"user":    s.profilePayload(&user),
	}, http.StatusCreated)
}

func registerMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Username":
		return "Username must be 3-20 characters"
	case "Email":
		return "Invalid email format"
	case "Password":
		return "Password must be at least 8 characters"
	}
	return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
}

func (s *Server) profilePayload(user *User) map[string]any {
	return map[string]any{
		"user_id":      user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"name":         user.Name,
		"user_mean":    user.UserMean,
		"rating_count": user.RatingCount,
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	var user User
	if err := s.db.WithContext(r.Context()).First(&user, userIDFrom(r.Context())).Error; err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"user": s.profilePayload(&user)}, http.StatusOK)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	var movies []Movie
	if err := s.db.WithContext(r.Context()).Find(&movies).Error; err != nil {
		writeError(w, "Failed to load genres", http.StatusInternalServerError)
		return
	}

	seen := map[string]bool{}
	genres := []string{}
	for _, m := range movies {
		for _, g := range strings.Split(m.Genres, ",") {
			g = strings.TrimSpace(g)
			if g != "" && !seen[g] {
				seen[g] = true
				genres = append(genres, g)
			}
		}
	}

	writeJSON(w, map[string]any{"genres": genres}, http.StatusOK)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var ratings []Rating
	if err := s.db.WithContext(r.Context()).Where("user_id = ?", userID).Find(&ratings).Error; err != nil {
		writeError(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	stats := map[string]any{
		"total_ratings": len(ratings),
		"user_mean":     nil,
		"min_rating":    nil,
		"max_rating":    nil,
	}
	if len(ratings) > 0 {
		sum, minR, maxR := 0, ratings[0].Rating, ratings[0].Rating
		for _, rr := range ratings {
			sum += rr.Rating
			if rr.Rating < minR {
				minR = rr.Rating
			}
			if rr.Rating > maxR {
				maxR = rr.Rating
			}
		}
		stats["user_mean"] = math.Round(float64(sum)/float64(len(ratings))*100) / 100
		stats["min_rating"] = minR
		stats["max_rating"] = maxR
	}

	var watchlistCount int64
	s.db.WithContext(r.Context()).Model(&WatchlistItem{}).Where("user_id = ?", userID).Count(&watchlistCount)

	writeJSON(w, map[string]any{
		"rating_stats":    stats,
		"watchlist_count": watchlistCount,
	}, http.StatusOK)
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var ratings []Rating
	if err := s.db.WithContext(r.Context()).Where("user_id = ?", userID).Order("updated_at desc").Find(&ratings).Error; err != nil {
		writeError(w, "Failed to load ratings", http.StatusInternalServerError)
		return
	}

	items := make([]map[string]any, 0, len(ratings))
	for _, rr := range ratings {
		item := map[string]any{"movie_id": rr.MovieID, "rating": rr.Rating}
		var movie Movie
		if err := s.db.WithContext(r.Context()).First(&movie, "movie_id = ?", rr.MovieID).Error; err == nil {
			item["title"] = movie.Title
			item["genres"] = movie.Genres
			item["poster_url"] = movie.PosterPath
			item["release_year"] = movie.ReleaseYear
		}
		items = append(items, item)
	}

	writeJSON(w, map[string]any{"ratings": items, "count": len(items)}, http.StatusOK)
}

type rateRequest struct {
	MovieID int64 `json:"movie_id"`
	Rating  int   `json:"rating"`
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.MovieID == 0 {
		writeError(w, "movie_id is required", http.StatusBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	var movie Movie
	if err := s.db.WithContext(r.Context()).First(&movie, "movie_id = ?", req.MovieID).Error; err != nil {
		writeError(w, "Movie not found", http.StatusNotFound)
		return
	}

	rating := Rating{UserID: userID, MovieID: req.MovieID, Rating: req.Rating}
	err := s.db.WithContext(r.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.Assignments(map[string]any{"rating": req.Rating, "updated_at": time.Now()}),
	}).Create(&rating).Error
	if err != nil {
		s.logger.Error("failed to save rating", slog.Any("error", err))
		writeError(w, "Failed to save rating", http.StatusInternalServerError)
		return
	}

	mean, count := s.recomputeUserStats(r, userID)

	writeJSON(w, map[string]any{
		"message": "Rating saved successfully",
		"rating":  map[string]any{"movie_id": req.MovieID, "rating": req.Rating},
		"user_stats": map[string]any{
			"user_mean":    mean,
			"rating_count": count,
		},
	}, http.StatusOK)
}

// recomputeUserStats recalculates and persists the denormalized stats after
// a rating mutation.
func (s *Server) recomputeUserStats(r *http.Request, userID uint) (float64, int) {
	var ratings []Rating
	if err := s.db.WithContext(r.Context()).Where("user_id = ?", userID).Find(&ratings).Error; err != nil {
		s.logger.Error("failed to recompute stats", slog.Any("error", err))
		return 0, 0
	}

	mean := 3.5
	if len(ratings) > 0 {
		sum := 0
		for _, rr := range ratings {
			sum += rr.Rating
		}
		mean = math.Round(float64(sum)/float64(len(ratings))*100) / 100
	}

	updates := map[string]any{"rating_count": len(ratings)}
	if len(ratings) > 0 {
		updates["user_mean"] = mean
	} else {
		updates["user_mean"] = nil
	}
	s.db.WithContext(r.Context()).Model(&User{}).Where("id = ?", userID).Updates(updates)

	return mean, len(ratings)
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil {
		writeError(w, "Invalid movie id", http.StatusBadRequest)
		return
	}

	res := s.db.WithContext(r.Context()).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&Rating{})
	if res.Error != nil {
		writeError(w, "Failed to delete rating", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, "Rating not found", http.StatusNotFound)
		return
	}

	s.recomputeUserStats(r, userID)
	writeJSON(w, map[string]string{"message": "Rating deleted successfully"}, http.StatusOK)
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var items []WatchlistItem
	if err := s.db.WithContext(r.Context()).Where("user_id = ?", userID).Order("added_at desc").Find(&items).Error; err != nil {
		writeError(w, "Failed to load watchlist", http.StatusInternalServerError)
		return
	}

	entries := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{"movie_id": item.MovieID}
		var movie Movie
		if err := s.db.WithContext(r.Context()).First(&movie, "movie_id = ?", item.MovieID).Error; err == nil {
			entry["title"] = movie.Title
			entry["genres"] = movie.Genres
			entry["poster_url"] = movie.PosterPath
			entry["release_year"] = movie.ReleaseYear
		}
		entries = append(entries, entry)
	}

	writeJSON(w, map[string]any{"watchlist": entries, "count": len(entries)}, http.StatusOK)
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req struct {
		MovieID int64 `json:"movie_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MovieID == 0 {
		writeError(w, "movie_id is required", http.StatusBadRequest)
		return
	}

	item := WatchlistItem{UserID: userID, MovieID: req.MovieID, AddedAt: time.Now()}
	err := s.db.WithContext(r.Context()).Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
	if err != nil {
		writeError(w, "Failed to add to watchlist", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"message": "Added to watchlist"}, http.StatusOK)
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil {
		writeError(w, "Invalid movie id", http.StatusBadRequest)
		return
	}

	if err := s.db.WithContext(r.Context()).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&WatchlistItem{}).Error; err != nil {
		writeError(w, "Failed to remove from watchlist", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"message": "Removed from watchlist"}, http.StatusOK)
}
