package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/reelboard/reelboard/models"
)

// ModalPhase is the rate-movie workflow state.
type ModalPhase int

const (
	ModalClosed ModalPhase = iota
	ModalOpen
	ModalCommitting
)

func (p ModalPhase) String() string {
	switch p {
	case ModalClosed:
		return "closed"
	case ModalOpen:
		return "open"
	case ModalCommitting:
		return "committing"
	}
	return "unknown"
}

// RatingModalController is the transient state machine behind the rate-movie
// dialog. The star selector can only produce values 1..5, so by the time
// RatingStore.Rate runs, the value is already in range.
type RatingModalController struct {
	mu      sync.Mutex
	ratings *RatingStore

	phase   ModalPhase
	movie   models.MovieRecommendation
	pending int
	lastErr error
}

func NewRatingModalController(ratings *RatingStore) *RatingModalController {
	return &RatingModalController{ratings: ratings, phase: ModalClosed}
}

// Open shows the dialog for a movie, seeding the selection from the user's
// existing rating, or 0 if the movie is unrated.
func (m *RatingModalController) Open(movie models.MovieRecommendation) {
	seed, _ := m.ratings.Get(movie.MovieID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = ModalOpen
	m.movie = movie
	m.pending = seed
	m.lastErr = nil
}

// SelectStar sets the pending selection. Only valid while the dialog is
// open.
func (m *RatingModalController) SelectStar(n int) error {
	if n < 1 || n > 5 {
		return fmt.Errorf("star selection must be between 1 and 5, got %d", n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != ModalOpen {
		return fmt.Errorf("cannot select a star while %s", m.phase)
	}
	m.pending = n
	return nil
}

// Cancel closes the dialog and discards the selection. Not valid while a
// commit is in flight.
func (m *RatingModalController) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == ModalCommitting {
		return fmt.Errorf("cannot cancel while committing")
	}
	m.phase = ModalClosed
	m.movie = models.MovieRecommendation{}
	m.pending = 0
	m.lastErr = nil
	return nil
}

// Commit submits the pending selection through the RatingStore. With no
// selection made, no call is issued. On success the dialog closes; on
// failure it stays open with the selection preserved so the user can retry
// without re-selecting.
func (m *RatingModalController) Commit(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != ModalOpen {
		m.mu.Unlock()
		return fmt.Errorf("cannot commit while %s", m.phase)
	}
	if m.pending == 0 {
		m.mu.Unlock()
		return fmt.Errorf("no rating selected")
	}
	movieID := m.movie.MovieID
	rating := m.pending
	m.phase = ModalCommitting
	m.mu.Unlock()

	err := m.ratings.Rate(ctx, movieID, rating)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.phase = ModalOpen
		m.lastErr = err
		return err
	}
	m.phase = ModalClosed
	m.movie = models.MovieRecommendation{}
	m.pending = 0
	m.lastErr = nil
	return nil
}

// State returns the current phase, target movie, pending selection and the
// error from the last failed commit.
func (m *RatingModalController) State() (ModalPhase, models.MovieRecommendation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase, m.movie, m.pending, m.lastErr
}
