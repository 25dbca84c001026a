package devserver

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/reelboard/reelboard/lib/db"
	"gorm.io/gorm"
)

// User is an account row. UserMean and RatingCount are denormalized and
// recomputed on every rating mutation, mirroring what the production service
// does with triggers.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex"`
	Email        string `gorm:"uniqueIndex"`
	Name         string
	PasswordHash string
	UserMean     *float64
	RatingCount  int
}

// Movie is a catalog row.
type Movie struct {
	MovieID     int64 `gorm:"primaryKey"`
	Title       string
	ReleaseYear int
	Genres      string // comma-delimited
	PosterPath  string
	VoteAverage float64
}

// Rating is one user's rating of one movie, upserted on conflict. Deletes
// are hard deletes so a later re-rating never collides with a tombstone in
// the unique index.
type Rating struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint  `gorm:"uniqueIndex:idx_ratings_user_movie"`
	MovieID   int64 `gorm:"uniqueIndex:idx_ratings_user_movie"`
	Rating    int
}

// WatchlistItem is a bookmark row, hard-deleted on removal for the same
// reason as Rating.
type WatchlistItem struct {
	ID      uint  `gorm:"primaryKey"`
	UserID  uint  `gorm:"uniqueIndex:idx_watchlist_user_movie"`
	MovieID int64 `gorm:"uniqueIndex:idx_watchlist_user_movie"`
	AddedAt time.Time
}

// OpenStore opens the server database at path, migrates the schema and seeds
// the movie catalog when empty.
func OpenStore(path string, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := db.Open(path, logger)
	if err != nil {
		return nil, err
	}

	if err := gormDB.AutoMigrate(&User{}, &Movie{}, &Rating{}, &WatchlistItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate server schema: %w", err)
	}

	if err := seedMovies(gormDB, logger); err != nil {
		return nil, err
	}
	if err := seedDevUser(gormDB, logger); err != nil {
		return nil, err
	}

	return gormDB, nil
}

// Credentials of the account seeded into an empty database, so a fresh
// embedded server is usable without registering first.
const (
	DevUsername = "dev"
	DevPassword = "reelboard"
)

func seedDevUser(gormDB *gorm.DB, logger *slog.Logger) error {
	var count int64
	if err := gormDB.Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := hashPassword(DevPassword)
	if err != nil {
		return fmt.Errorf("failed to hash dev password: %w", err)
	}
	user := User{Username: DevUsername, Email: "dev@localhost", Name: "Dev User", PasswordHash: hash}
	if err := gormDB.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to seed dev account: %w", err)
	}
	logger.Info("seeded dev account", slog.String("username", DevUsername))
	return nil
}

func seedMovies(gormDB *gorm.DB, logger *slog.Logger) error {
	var count int64
	if err := gormDB.Model(&Movie{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count movies: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("seeding movie catalog", slog.Int("count", len(seedCatalog)))
	if err := gormDB.Create(&seedCatalog).Error; err != nil {
		return fmt.Errorf("failed to seed movies: %w", err)
	}
	return nil
}

// seedCatalog is a small fixed catalog for local development and tests.
var seedCatalog = []Movie{
	{MovieID: 11, Title: "Star Wars", ReleaseYear: 1977, Genres: "Action, Adventure, Science Fiction", PosterPath: "/6FfCtAuVAW8XJjZ7eWeLibRLWTw.jpg", VoteAverage: 4.1},
	{MovieID: 62, Title: "2001: A Space Odyssey", ReleaseYear: 1968, Genres: "Science Fiction, Mystery", PosterPath: "/ve72VxNqjGM69Uky4WTo2bK6rfq.jpg", VoteAverage: 4.0},
	{MovieID: 238, Title: "The Godfather", ReleaseYear: 1972, Genres: "Drama, Crime", PosterPath: "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg", VoteAverage: 4.6},
	{MovieID: 278, Title: "The Shawshank Redemption", ReleaseYear: 1994, Genres: "Drama, Crime", PosterPath: "/9cqNxx0GxF0bflZmeSMuL5tnGzr.jpg", VoteAverage: 4.6},
	{MovieID: 389, Title: "12 Angry Men", ReleaseYear: 1957, Genres: "Drama", PosterPath: "/ow3wq89wM8qd5X7hWKxiRfsFf9C.jpg", VoteAverage: 4.4},
	{MovieID: 424, Title: "Schindler's List", ReleaseYear: 1993, Genres: "Drama, History, War", PosterPath: "/sF1U4EUQS8YHUYjNl3pMGNIQyr0.jpg", VoteAverage: 4.5},
	{MovieID: 550, Title: "Fight Club", ReleaseYear: 1999, Genres: "Drama", PosterPath: "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", VoteAverage: 4.2},
	{MovieID: 603, Title: "The Matrix", ReleaseYear: 1999, Genres: "Action, Science Fiction", PosterPath: "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg", VoteAverage: 4.1},
	{MovieID: 680, Title: "Pulp Fiction", ReleaseYear: 1994, Genres: "Thriller, Crime", PosterPath: "/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg", VoteAverage: 4.3},
	{MovieID: 769, Title: "GoodFellas", ReleaseYear: 1990, Genres: "Drama, Crime", PosterPath: "/aKuFiU82s5ISJpGZp7YkIr3kCUd.jpg", VoteAverage: 4.3},
	{MovieID: 862, Title: "Toy Story", ReleaseYear: 1995, Genres: "Animation, Comedy, Family", PosterPath: "/uXDfjJbdP4ijW5hWSBrPrlKpxab.jpg", VoteAverage: 4.0},
	{MovieID: 903, Title: "Taxi Driver", ReleaseYear: 1976, Genres: "Crime, Drama", PosterPath: "/ekstpH614fwDX8DUln1a2Opz0N8.jpg", VoteAverage: 4.1},
	{MovieID: 1891, Title: "The Empire Strikes Back", ReleaseYear: 1980, Genres: "Adventure, Action, Science Fiction", PosterPath: "/nNAeTmF4CtdSgMDplXTDPOpYzsX.jpg", VoteAverage: 4.2},
	{MovieID: 13, Title: "Forrest Gump", ReleaseYear: 1994, Genres: "Comedy, Drama, Romance", PosterPath: "/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg", VoteAverage: 4.2},
	{MovieID: 27205, Title: "Inception", ReleaseYear: 2010, Genres: "Action, Science Fiction, Adventure", PosterPath: "/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg", VoteAverage: 4.2},
	{MovieID: 157336, Title: "Interstellar", ReleaseYear: 2014, Genres: "Adventure, Drama, Science Fiction", PosterPath: "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg", VoteAverage: 4.2},
	{MovieID: 496243, Title: "Parasite", ReleaseYear: 2019, Genres: "Comedy, Thriller, Drama", PosterPath: "/7IiTTgloJzvGI1TAYymCfbfl3vT.jpg", VoteAverage: 4.3},
	{MovieID: 475557, Title: "Joker", ReleaseYear: 2019, Genres: "Crime, Thriller, Drama", PosterPath: "/udDclJoHjfjb8Ekgsd4FDteOkCU.jpg", VoteAverage: 4.1},
	{MovieID: 634649, Title: "Spider-Man: No Way Home", ReleaseYear: 2021, Genres: "Action, Adventure, Science Fiction", PosterPath: "/1g0dhYtq4irTY1GPXvft6k4YLjm.jpg", VoteAverage: 4.0},
	{MovieID: 872585, Title: "Oppenheimer", ReleaseYear: 2023, Genres: "Drama, History", PosterPath: "/8Gxv8gSFCU0XGDykEGv7zR1n2ua.jpg", VoteAverage: 4.1},
}
