package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"log/slog"

	"github.com/joho/godotenv"
	"github.com/reelboard/reelboard/lib/api"
	"github.com/reelboard/reelboard/lib/dashboard"
	"github.com/reelboard/reelboard/lib/devserver"
	"github.com/reelboard/reelboard/lib/session"
	"github.com/reelboard/reelboard/models"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	logger := slog.Default()

	if err := run(context.Background(), logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	apiURL := getEnv("REELBOARD_API_URL", "")
	defaultUser, defaultPass := "", ""

	// Without a configured service, run the bundled dev server.
	if apiURL == "" {
		port := getEnv("PORT", "8080")
		serverDB, err := devserver.OpenStore(getEnv("SERVER_DB_PATH", "reelboard-server.db"), logger)
		if err != nil {
			return err
		}
		srv := devserver.New(serverDB, getEnv("JWT_SECRET", "dev-secret"), logger)

		go func() {
			logger.Info("starting dev server", slog.String("port", port))
			if err := http.ListenAndServe(":"+port, srv.Handler()); err != nil {
				logger.Error("dev server stopped", slog.Any("error", err))
			}
		}()
		apiURL = "http://localhost:" + port
		defaultUser, defaultPass = devserver.DevUsername, devserver.DevPassword
		time.Sleep(100 * time.Millisecond)
	}

	client := api.New(apiURL, logger)

	store, err := session.Open(getEnv("DB_PATH", "reelboard.db"), logger)
	if err != nil {
		return err
	}

	sess, err := session.NewGate(store, logger).Initialize(ctx)
	if errors.Is(err, session.ErrUnauthenticated) {
		sess, err = login(ctx, client, store, logger, defaultUser, defaultPass)
	}
	if err != nil {
		return err
	}

	ctrl, err := dashboard.New(client, sess, logger)
	if err != nil {
		return err
	}

	if err := ctrl.Start(ctx); err != nil {
		var remoteErr *api.RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Kind == api.KindUnauthorized {
			// The stored token is no longer accepted; drop it so the next
			// run authenticates again.
			if clearErr := store.ClearSession(ctx); clearErr != nil {
				logger.Error("failed to clear session", slog.Any("error", clearErr))
			}
			return fmt.Errorf("session rejected, cleared stored credentials: %w", err)
		}
		logger.Warn("some startup refreshes failed", slog.Any("error", err))
	}

	stats := ctrl.Stats.Stats()
	logger.Info("dashboard ready",
		slog.String("user", sess.User.Username),
		slog.Float64("user_mean", stats.MeanRating),
		slog.Int("rating_count", stats.RatingCount),
		slog.Int("genres", len(ctrl.Genres())),
		slog.Int("watchlist", len(ctrl.Watchlist.Entries())))

	if err := ctrl.Recommendations.Request(ctx); err != nil {
		return fmt.Errorf("recommendation request failed: %w", err)
	}

	_, list, _ := ctrl.Recommendations.Snapshot()
	for i, rec := range list {
		predicted := 0.0
		if rec.PredictedRating != nil {
			predicted = *rec.PredictedRating
		}
		fmt.Printf("%2d. %s (%d) %.1f %s\n", i+1, rec.Title, rec.ReleaseYear, predicted, client.PosterURL(rec.PosterPath))
	}

	return nil
}

// login signs in with the configured credentials and persists the session.
// When running against the embedded dev server the seeded dev account is
// used as a fallback.
func login(ctx context.Context, client *api.Client, store *session.Store, logger *slog.Logger, defaultUser, defaultPass string) (*models.Session, error) {
	username := getEnv("REELBOARD_USERNAME", defaultUser)
	password := getEnv("REELBOARD_PASSWORD", defaultPass)
	if username == "" || password == "" {
		return nil, errors.New("not logged in: set REELBOARD_USERNAME and REELBOARD_PASSWORD")
	}

	sess, err := client.Login(ctx, username, password)
	if err != nil {
		var denied *api.LoginDenied
		if !errors.As(err, &denied) {
			return nil, err
		}
		logger.Info("login denied", slog.String("detail", denied.Message))
		return nil, err
	}

	if err := store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	logger.Info("logged in", slog.String("username", sess.User.Username))
	return sess, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
