package session

import (
	"context"
	"errors"

	"log/slog"

	"github.com/reelboard/reelboard/models"
)

// ErrUnauthenticated signals that no usable session is persisted. The caller
// must redirect to login and start nothing that talks to the service.
var ErrUnauthenticated = errors.New("no persisted session")

// Gate decides once, at startup, whether the dashboard may start. No remote
// call is made either way.
type Gate struct {
	store  *Store
	logger *slog.Logger
}

func NewGate(store *Store, logger *slog.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// Initialize reads the persisted session. It returns ErrUnauthenticated when
// no token is stored; any other error is a storage failure.
func (g *Gate) Initialize(ctx context.Context) (*models.Session, error) {
	sess, err := g.store.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		g.logger.Info("no persisted session, redirect to login")
		return nil, ErrUnauthenticated
	}

	g.logger.Debug("session restored", slog.String("username", sess.User.Username))
	return sess, nil
}
