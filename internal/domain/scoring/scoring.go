// Package scoring provides a local, rank-based match predictor.
//
// It stands in for the external prediction service during development and
// when no service URL is configured. The lower rank number is the favourite.
package scoring

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Default configuration constants.
const (
	defaultMinLatency     = 80 * time.Millisecond
	defaultMaxLatency     = 150 * time.Millisecond
	defaultRandomSeed     = 42
	defaultFavouriteShare = 60
	defaultDrawShare      = 25
	evenHomeShare         = 33
	evenDrawShare         = 34
)

var hundred = decimal.NewFromInt(100)

// Option applies a configuration option to the RankPredictor.
type Option func(*RankPredictor)

// WithLatencyRange sets the simulated latency range. A zero range disables
// the simulated delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(p *RankPredictor) {
		if minLatency >= 0 && maxLatency >= minLatency {
			p.minLatency = minLatency
			p.maxLatency = maxLatency
		}
	}
}

// WithShares sets the favourite and draw percentages. The underdog receives
// the remainder. Invalid splits are ignored.
func WithShares(favourite, draw float64) Option {
	return func(p *RankPredictor) {
		fav := decimal.NewFromFloat(favourite)
		d := decimal.NewFromFloat(draw)
		if fav.IsNegative() || d.IsNegative() || fav.Add(d).GreaterThan(hundred) {
			return
		}
		p.favourite = fav
		p.draw = d
	}
}

// RankPredictor predicts from ranks alone.
type RankPredictor struct {
	favourite decimal.Decimal
	draw      decimal.Decimal

	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRankPredictor creates a predictor with configuration options.
func NewRankPredictor(opts ...Option) *RankPredictor {
	p := &RankPredictor{
		favourite:  decimal.NewFromInt(defaultFavouriteShare),
		draw:       decimal.NewFromInt(defaultDrawShare),
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict returns the rank-based prediction for req after the simulated
// latency, honoring ctx for cancellation.
func (p *RankPredictor) Predict(ctx context.Context, req model.MatchRequest) (model.PredictionResult, error) {
	select {
	case <-ctx.Done():
		return model.PredictionResult{}, fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(p.latency()):
	}
	return p.decide(req), nil
}

func (p *RankPredictor) latency() time.Duration {
	span := int64(p.maxLatency - p.minLatency)
	if span <= 0 {
		return p.minLatency
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.minLatency + time.Duration(p.rng.Int63n(span))
}

func (p *RankPredictor) decide(req model.MatchRequest) model.PredictionResult {
	underdog := hundred.Sub(p.favourite).Sub(p.draw)
	fav, _ := p.favourite.Float64()
	draw, _ := p.draw.Float64()
	dog, _ := underdog.Float64()

	switch {
	case req.HomeRank < req.AwayRank:
		return model.PredictionResult{
			Outcome:       model.OutcomeHome,
			Probabilities: model.Probabilities{Home: fav, Draw: draw, Away: dog},
		}
	case req.HomeRank > req.AwayRank:
		return model.PredictionResult{
			Outcome:       model.OutcomeAway,
			Probabilities: model.Probabilities{Home: dog, Draw: draw, Away: fav},
		}
	default:
		return model.PredictionResult{
			Outcome:       model.OutcomeDraw,
			Probabilities: model.Probabilities{Home: evenHomeShare, Draw: evenDrawShare, Away: 100 - evenHomeShare - evenDrawShare},
		}
	}
}
