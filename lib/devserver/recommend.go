package devserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"log/slog"
)

// Era year boundaries. The client treats eras as opaque; these are this
// server's interpretation.
const (
	classicMaxYear = 1969
	retroMaxYear   = 1989
	modernMaxYear  = 2009
)

type recommendRequest struct {
	UserMean  float64  `json:"user_mean"`
	Genres    []string `json:"genres"`
	MinRating float64  `json:"min_rating"`
	Era       string   `json:"era"`
	Limit     int      `json:"limit"`
}

// handleRecommend runs a deterministic stand-in for the production ranking
// model: the predicted rating is the user's mean shifted by how far the
// movie's catalog average sits from the global midpoint.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.UserMean == 0 {
		req.UserMean = 3.5
	}

	var movies []Movie
	if err := s.db.WithContext(r.Context()).Find(&movies).Error; err != nil {
		writeError(w, "Failed to load movies", http.StatusInternalServerError)
		return
	}

	type scored struct {
		movie     Movie
		predicted float64
	}
	var results []scored
	for _, m := range movies {
		if !eraMatches(req.Era, m.ReleaseYear) {
			continue
		}
		if len(req.Genres) > 0 && !genresMatch(req.Genres, m.Genres) {
			continue
		}

		predicted := req.UserMean + (m.VoteAverage-3.0)*0.5
		if predicted > 5.0 {
			predicted = 5.0
		}
		if predicted < 0.5 {
			predicted = 0.5
		}
		if predicted < req.MinRating {
			continue
		}
		results = append(results, scored{movie: m, predicted: predicted})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].predicted > results[j].predicted })
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	recommendations := make([]map[string]any, 0, len(results))
	for _, sc := range results {
		recommendations = append(recommendations, map[string]any{
			"movie_id":         sc.movie.MovieID,
			"title":            sc.movie.Title,
			"release_year":     sc.movie.ReleaseYear,
			"genres":           sc.movie.Genres,
			"poster_url":       sc.movie.PosterPath,
			"predicted_rating": sc.predicted,
		})
	}

	s.logger.Debug("served recommendations",
		slog.Int("candidates", len(movies)),
		slog.Int("returned", len(recommendations)))

	writeJSON(w, map[string]any{"recommendations": recommendations}, http.StatusOK)
}

func eraMatches(era string, year int) bool {
	switch era {
	case "", "any":
		return true
	case "classic":
		return year <= classicMaxYear
	case "retro":
		return year > classicMaxYear && year <= retroMaxYear
	case "modern":
		return year > retroMaxYear && year <= modernMaxYear
	case "recent":
		return year > modernMaxYear
	}
	return false
}

func genresMatch(wanted []string, movieGenres string) bool {
	for _, g := range strings.Split(movieGenres, ",") {
		g = strings.TrimSpace(g)
		for _, w := range wanted {
			if strings.EqualFold(g, w) {
				return true
			}
		}
	}
	return false
}
