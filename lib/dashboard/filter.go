package dashboard

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/reelboard/reelboard/models"
)

// FilterState holds the current recommendation query parameters. Changes are
// purely local until the user triggers a recommendation request.
type FilterState struct {
	mu        sync.RWMutex
	genres    map[string]struct{}
	minRating float64
	era       models.Era
}

func NewFilterState() *FilterState {
	return &FilterState{
		genres:    make(map[string]struct{}),
		minRating: models.DefaultMeanRating,
		era:       models.EraAny,
	}
}

// ToggleGenre adds the genre to the selection if absent, removes it if
// present. Toggling the same genre twice is a no-op.
func (f *FilterState) ToggleGenre(genre string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.genres[genre]; ok {
		delete(f.genres, genre)
		return
	}
	f.genres[genre] = struct{}{}
}

// HasGenre reports whether the genre is selected.
func (f *FilterState) HasGenre(genre string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.genres[genre]
	return ok
}

// Genres returns the selected genres, sorted. Never nil.
func (f *FilterState) Genres() []string {
	f.mu.RLock()
	out := make([]string, 0, len(f.genres))
	for g := range f.genres {
		out = append(out, g)
	}
	f.mu.RUnlock()

	sort.Strings(out)
	return out
}

// SetMinRating sets the minimum predicted rating. Values must fall in
// [1.0, 5.0] and are snapped to 0.5 steps.
func (f *FilterState) SetMinRating(v float64) error {
	if v < 1.0 || v > 5.0 {
		return fmt.Errorf("min rating must be between 1.0 and 5.0, got %g", v)
	}
	f.mu.Lock()
	f.minRating = math.Round(v*2) / 2
	f.mu.Unlock()
	return nil
}

// MinRating returns the current minimum predicted rating.
func (f *FilterState) MinRating() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.minRating
}

// SetEra sets the release-year bucket.
func (f *FilterState) SetEra(e models.Era) error {
	if !e.Valid() {
		return fmt.Errorf("unknown era %q", e)
	}
	f.mu.Lock()
	f.era = e
	f.mu.Unlock()
	return nil
}

// Era returns the current release-year bucket.
func (f *FilterState) Era() models.Era {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.era
}
