package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"log/slog"

	"github.com/reelboard/reelboard/lib/db"
	"github.com/reelboard/reelboard/models"
	"gorm.io/gorm"
)

// Store persists the session token and profile in a single-row SQLite table.
// It is written at login, cleared at logout and read once at startup.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the client database at path and migrates the
// session table.
func Open(path string, logger *slog.Logger) (*Store, error) {
	gormDB, err := db.Open(path, logger)
	if err != nil {
		return nil, err
	}

	if err := gormDB.AutoMigrate(&models.SessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}

	return &Store{db: gormDB, logger: logger}, nil
}

// LoadSession returns the persisted session, or nil when none is stored.
func (s *Store) LoadSession(ctx context.Context) (*models.Session, error) {
	var rec models.SessionRecord
	if err := s.db.WithContext(ctx).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	if rec.Token == "" {
		return nil, nil
	}

	var profile models.UserProfile
	if rec.ProfileJSON != "" {
		if err := json.Unmarshal([]byte(rec.ProfileJSON), &profile); err != nil {
			return nil, fmt.Errorf("failed to decode stored profile: %w", err)
		}
	}

	return &models.Session{Token: rec.Token, User: profile}, nil
}

// SaveSession replaces whatever is stored with the given session.
func (s *Store) SaveSession(ctx context.Context, sess *models.Session) error {
	profileJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SessionRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear prior session: %w", err)
		}
		rec := models.SessionRecord{Token: sess.Token, ProfileJSON: string(profileJSON)}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// ClearSession removes the persisted session, if any.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.SessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
