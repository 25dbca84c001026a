package dashboard

import (
	"context"
	"sync"

	"log/slog"

	"github.com/reelboard/reelboard/lib/api"
	"github.com/reelboard/reelboard/models"
)

// recommendLimit is fixed; the filter UI does not expose it.
const recommendLimit = 20

// Phase is the recommendation cycle state. A hung call leaves the controller
// in PhaseLoading, which the UI must keep distinguishable from PhaseFailed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// RecommendationController drives the filter-to-recommendation cycle. Every
// request gets a sequence number and its own cancelable context; issuing a
// new request cancels the prior one, and a response is applied only while
// its sequence is still current, so the displayed list always belongs to the
// newest request rather than to whichever response happened to arrive last.
type RecommendationController struct {
	mu     sync.Mutex
	api    RemoteAPI
	stats  *ProfileStatsStore
	filter *FilterState
	logger *slog.Logger

	phase  Phase
	list   []models.MovieRecommendation
	err    error
	seq    uint64
	cancel context.CancelFunc
}

func NewRecommendationController(remote RemoteAPI, stats *ProfileStatsStore, filter *FilterState, logger *slog.Logger) *RecommendationController {
	return &RecommendationController{
		api:    remote,
		stats:  stats,
		filter: filter,
		logger: logger,
		phase:  PhaseIdle,
	}
}

// Request builds a query from the current stats and filter, moves to
// PhaseLoading and calls the service. The returned list replaces any prior
// list unconditionally; there is no merge, no dedup, no pagination. A
// superseded request returns nil without touching state.
func (c *RecommendationController) Request(ctx context.Context) error {
	query := api.RecommendQuery{
		UserMean:  c.stats.Stats().MeanRating,
		Genres:    c.filter.Genres(),
		MinRating: c.filter.MinRating(),
		Era:       string(c.filter.Era()),
		Limit:     recommendLimit,
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.phase = PhaseLoading
	c.mu.Unlock()

	c.logger.Debug("requesting recommendations",
		slog.Uint64("seq", seq),
		slog.Any("genres", query.Genres),
		slog.Float64("min_rating", query.MinRating),
		slog.String("era", query.Era))

	list, err := c.api.Recommend(reqCtx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("discarding superseded recommendation response", slog.Uint64("seq", seq))
		return nil
	}
	cancel()
	c.cancel = nil

	if err != nil {
		c.phase = PhaseFailed
		c.err = err
		return err
	}

	c.phase = PhaseReady
	c.list = list
	c.err = nil
	c.logger.Debug("recommendations ready", slog.Uint64("seq", seq), slog.Int("count", len(list)))
	return nil
}

// Snapshot returns the current phase, the displayed list and the last error.
// The error is only meaningful in PhaseFailed.
func (c *RecommendationController) Snapshot() (Phase, []models.MovieRecommendation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase, c.list, c.err
}
