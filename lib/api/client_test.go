package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/reelboard/reelboard/lib/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ratings": []}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL, testLogger())
	if _, err := client.Ratings(context.Background(), "tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestAnonymousCallOmitsAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"genres": ["Drama"]}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL, testLogger())
	genres, err := client.Genres(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no auth header, got %q", gotAuth)
	}
	if len(genres) != 1 || genres[0] != "Drama" {
		t.Fatalf("unexpected genres: %v", genres)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   api.ErrorKind
		detail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "Token has expired"}`, api.KindUnauthorized, "Token has expired"},
		{"client", http.StatusNotFound, `{"error": "Movie not found"}`, api.KindClient, "Movie not found"},
		{"server", http.StatusInternalServerError, ``, api.KindServer, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := api.New(srv.URL, testLogger())
			_, err := client.UserStats(context.Background(), "tok")
			if err == nil {
				t.Fatal("expected error")
			}

			var remoteErr *api.RemoteError
			if !errors.As(err, &remoteErr) {
				t.Fatalf("expected RemoteError, got %T", err)
			}
			if remoteErr.Kind != tc.kind || remoteErr.Status != tc.status || remoteErr.Detail != tc.detail {
				t.Fatalf("unexpected error: %+v", remoteErr)
			}
		})
	}
}

func TestNetworkErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := api.New(srv.URL, testLogger())
	_, err := client.Genres(context.Background())

	var remoteErr *api.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Kind != api.KindNetwork || remoteErr.Status != 0 {
		t.Fatalf("expected network error, got %+v", remoteErr)
	}
}

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body["username"] != "alice" || body["password"] != "secret12" {
			t.Fatalf("unexpected credentials: %v", body)
		}
		_, _ = w.Write([]byte(`{"token": "tok", "user": {"user_id": 7, "username": "alice", "name": "Alice"}}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL, testLogger())
	sess, err := client.Login(context.Background(), "alice", "secret12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Token != "tok" || sess.User.UserID != 7 || sess.User.DisplayName != "Alice" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestLogin_FieldErrorsAreIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Username and password are required", "error_username": "Username is required"}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL, testLogger())
	_, err := client.Login(context.Background(), "", "pw")

	var denied *api.LoginDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected LoginDenied, got %v", err)
	}
	if denied.UsernameError != "Username is required" {
		t.Fatalf("expected username error, got %+v", denied)
	}
	if denied.PasswordError != "" {
		t.Fatalf("password field must stay unmarked, got %q", denied.PasswordError)
	}
}

func TestRecommend_BodyShape(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		_, _ = w.Write([]byte(`{"recommendations": [{"movie_id": 11, "title": "Star Wars", "predicted_rating": 4.1}]}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL, testLogger())
	list, err := client.Recommend(context.Background(), api.RecommendQuery{
		UserMean:  3.5,
		MinRating: 3.5,
		Era:       "any",
		Limit:     20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Genres must marshal as an empty array, not null.
	if string(got["genres"]) != "[]" {
		t.Fatalf("expected genres [], got %s", got["genres"])
	}
	for _, field := range []string{"user_mean", "min_rating", "era", "limit"} {
		if _, ok := got[field]; !ok {
			t.Fatalf("missing field %s in request body", field)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected exactly 5 fields, got %d: %v", len(got), got)
	}

	if len(list) != 1 || list[0].PredictedRating == nil || *list[0].PredictedRating != 4.1 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestRate_ReturnsServerStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "Rating saved successfully", "user_stats": {"user_mean": 4.17, "rating_count": 6}}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL, testLogger())
	stats, err := client.Rate(context.Background(), "tok", 550, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.MeanRating != 4.17 || stats.RatingCount != 6 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestUserStats_NullMean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rating_stats": {"user_mean": null, "total_ratings": 0}}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL, testLogger())
	result, err := client.UserStats(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MeanRating != nil || result.TotalRatings != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPosterURL(t *testing.T) {
	client := api.New("http://example.test", testLogger())

	if got := client.PosterURL("/abc.jpg"); got != api.DefaultPosterBaseURL+"/abc.jpg" {
		t.Fatalf("unexpected poster url: %s", got)
	}
	if got := client.PosterURL(""); got != api.PosterPlaceholder {
		t.Fatalf("expected placeholder for empty path, got %s", got)
	}
}
