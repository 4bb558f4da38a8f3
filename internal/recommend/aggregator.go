// Package recommend turns the backend's group analysis into a ranked
// list of destinations with display images.
package recommend

import (
	"context"
	"sync"

	"github.com/ngmaloney/tripscan/internal/logging"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/tripapi"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTopN is the number of leading destinations that get an image
	DefaultTopN = 3
	// DefaultMaxConcurrency bounds parallel image lookups
	DefaultMaxConcurrency = 3
)

// State is the observable result of an aggregation
type State struct {
	Scores      []models.DestinationScore // best match first
	Preferences models.AggregatePreferences
	Loading     bool
	Err         error // terminal; there is no retry
}

// Aggregator fetches recommendations once and resolves images for the
// top entries concurrently.
type Aggregator struct {
	client         tripapi.RecommendationClient
	topN           int
	maxConcurrency int
	logger         *zap.Logger

	mu      sync.Mutex
	state   State
	fetched bool
	closed  bool
}

// New creates an aggregator. Non-positive limits fall back to the defaults.
func New(client tripapi.RecommendationClient, topN, maxConcurrency int, logger *zap.Logger) *Aggregator {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Aggregator{
		client:         client,
		topN:           topN,
		maxConcurrency: maxConcurrency,
		logger:         logging.OrNop(logger).With(zap.String("component", "recommend")),
		state:          State{Preferences: models.AggregatePreferences{}},
	}
}

// Snapshot returns a copy of the current state
func (a *Aggregator) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.state
	st.Scores = append([]models.DestinationScore(nil), a.state.Scores...)
	st.Preferences = make(models.AggregatePreferences, len(a.state.Preferences))
	for k, v := range a.state.Preferences {
		st.Preferences[k] = v
	}
	return st
}

// Close marks the consuming view as gone. A fetch that completes
// afterwards leaves the state untouched.
func (a *Aggregator) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

// FetchRecommendations performs the one-shot aggregation. Only the
// first call talks to the backend; later calls return its error.
// Image lookup failures are logged and leave ImageURL empty.
func (a *Aggregator) FetchRecommendations(ctx context.Context) error {
	a.mu.Lock()
	if a.fetched {
		err := a.state.Err
		a.mu.Unlock()
		return err
	}
	a.fetched = true
	a.state.Loading = true
	a.mu.Unlock()

	recs, err := a.client.GetRecommendations(ctx)
	if err != nil {
		a.logger.Error("fetching recommendations", zap.Error(err))
		a.finish(State{Preferences: models.AggregatePreferences{}, Err: err})
		return err
	}

	scores := make([]models.DestinationScore, 0, len(recs.Top))
	for _, r := range recs.Top {
		scores = append(scores, models.DestinationScore{
			City:       r.City,
			Country:    r.Country,
			MatchScore: models.RoundScore(r.MatchScore),
			Features:   r.Features,
		})
	}
	models.RankDestinations(scores)

	a.resolveImages(ctx, scores)

	prefs := make(models.AggregatePreferences, len(recs.Preferences))
	for k, v := range recs.Preferences {
		prefs[k] = v
	}

	a.finish(State{Scores: scores, Preferences: prefs})
	return nil
}

// resolveImages looks up images for the leading entries in parallel
func (a *Aggregator) resolveImages(ctx context.Context, scores []models.DestinationScore) {
	n := a.topN
	if n > len(scores) {
		n = len(scores)
	}

	var g errgroup.Group
	g.SetLimit(a.maxConcurrency)

	for i := 0; i < n; i++ {
		city := scores[i].City
		g.Go(func() error {
			url, err := a.client.GetCityImage(ctx, city)
			if err != nil {
				a.logger.Warn("image lookup failed", zap.String("city", city), zap.Error(err))
				return nil
			}
			// each goroutine owns its own index
			scores[i].ImageURL = url
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Aggregator) finish(st State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.logger.Debug("discarding result after close")
		return
	}
	a.state = st
}
