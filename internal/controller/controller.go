// Package controller implements the per-session prediction state machine.
//
// A Controller moves between three views:
//
//	Input --Submit(valid)--> Loading --success--> Result --Back--> Input
//	                                 --failure--> Input (with error)
//
// The move to Result waits for both the predictor response and a minimum
// dwell time. Failures skip the dwell. Responses that belong to an older
// request, or that arrive after Close, are dropped.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/validation"
	"github.com/okian/matchwinner/pkg/logger"
	"github.com/okian/matchwinner/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Default controller configuration.
const (
	DefaultDwell          = 1500 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
)

// State is the view the controller is showing.
type State int

// Controller states. Errors annotate StateInput rather than forming a state.
const (
	StateInput State = iota
	StateLoading
	StateResult
)

func (s State) String() string {
	switch s {
	case StateInput:
		return "input"
	case StateLoading:
		return "loading"
	case StateResult:
		return "result"
	default:
		return "unknown"
	}
}

// Predictor produces a prediction for a validated request.
type Predictor interface {
	Predict(ctx context.Context, req model.MatchRequest) (model.PredictionResult, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, req model.MatchRequest) (model.PredictionResult, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, req model.MatchRequest) (model.PredictionResult, error) {
	return f(ctx, req)
}

// Recorder receives every prediction that reached the result view.
// It must not block.
type Recorder func(ctx context.Context, req model.MatchRequest, res model.PredictionResult)

// TransitionHook observes a state change.
type TransitionHook func(from, to State)

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	State   State
	Form    model.Form
	Request model.MatchRequest
	Result  *model.PredictionResult
	Err     error
}

// ErrorMessage returns the user-facing error text, or "".
func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Controller owns the view state of a single session. It is safe for
// concurrent use.
type Controller struct {
	predictor      Predictor
	dwell          time.Duration
	requestTimeout time.Duration
	logger         logger.Logger
	recorder       Recorder
	hooks          []TransitionHook

	// base is cancelled on Close so an in-flight call does not outlive
	// the session.
	base   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	form       model.Form
	request    model.MatchRequest
	result     *model.PredictionResult
	err        error
	generation uint64
	closed     bool
	wg         sync.WaitGroup
}

// New creates a controller in the Input state.
func New(p Predictor, opts ...Option) *Controller {
	c := &Controller{
		predictor:      p,
		dwell:          DefaultDwell,
		requestTimeout: DefaultRequestTimeout,
		logger:         logger.Nop(),
		state:          StateInput,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base, c.cancel = context.WithCancel(context.Background())
	return c
}

// Submit validates form and, when valid, issues one predictor call and
// moves to Loading. It returns the validation error when the form is
// rejected, ErrBusy outside Input and ErrClosed after Close. The call runs
// detached from ctx, which is only used for logging.
func (c *Controller) Submit(ctx context.Context, form model.Form) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateInput {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug(ctx, "submit ignored", logger.String("state", state.String()))
		return ErrBusy
	}

	c.form = form
	req, err := validation.Validate(form)
	if err != nil {
		c.err = err
		c.mu.Unlock()
		metrics.RecordValidationFailure(validationReason(err))
		c.logger.Debug(ctx, "form rejected", logger.Error(err))
		return err
	}

	c.err = nil
	c.result = nil
	c.request = req
	c.generation++
	gen := c.generation
	c.state = StateLoading
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify(StateInput, StateLoading)
	c.logger.Info(ctx, "prediction requested",
		logger.String("home", req.HomeTeam),
		logger.String("away", req.AwayTeam),
		logger.Int("homeRank", req.HomeRank),
		logger.Int("awayRank", req.AwayRank),
	)

	go c.run(gen, req)
	return nil
}

// Back returns from Result to a fresh Input view.
func (c *Controller) Back(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateResult {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.state = StateInput
	c.form = model.Form{}
	c.request = model.MatchRequest{}
	c.result = nil
	c.err = nil
	c.mu.Unlock()

	c.notify(StateResult, StateInput)
	c.logger.Debug(ctx, "back to input")
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:   c.state,
		Form:    c.form,
		Request: c.request,
		Err:     c.err,
	}
	if c.result != nil {
		res := *c.result
		s.Result = &res
	}
	return s
}

// Close tears the controller down. An outstanding response is discarded
// without touching state. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// Wait blocks until the in-flight request, if any, has been settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) run(gen uint64, req model.MatchRequest) {
	defer c.wg.Done()
	start := time.Now()

	var res model.PredictionResult
	g, gctx := errgroup.WithContext(c.base)
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, c.requestTimeout)
		defer cancel()
		r, err := c.predictor.Predict(callCtx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	g.Go(func() error {
		t := time.NewTimer(c.dwell)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	err := g.Wait()

	c.settle(gen, req, res, err, time.Since(start))
}

func (c *Controller) settle(gen uint64, req model.MatchRequest, res model.PredictionResult, err error, elapsed time.Duration) {
	ctx := context.Background()

	c.mu.Lock()
	if c.closed || gen != c.generation || c.state != StateLoading {
		c.mu.Unlock()
		metrics.RecordDiscardedResponse()
		c.logger.Debug(ctx, "response discarded", logger.Int("generation", int(gen)))
		return
	}
	if err != nil {
		c.state = StateInput
		c.err = &ServiceUnavailableError{Err: err}
		c.mu.Unlock()

		c.notify(StateLoading, StateInput)
		metrics.RecordServiceUnavailable()
		c.logger.Warn(ctx, "prediction failed", logger.Error(err))
		return
	}
	stored := res
	c.result = &stored
	c.state = StateResult
	c.mu.Unlock()

	c.notify(StateLoading, StateResult)
	metrics.RecordPrediction(res.Outcome.String())
	metrics.RecordRoundTripLatency(float64(elapsed.Milliseconds()))
	c.logger.Info(ctx, "prediction shown",
		logger.String("outcome", res.Outcome.String()),
		logger.Duration("elapsed", elapsed),
	)
	if c.recorder != nil {
		c.recorder(ctx, req, res)
	}
}

func (c *Controller) notify(from, to State) {
	metrics.RecordStateTransition(from.String(), to.String())
	for _, h := range c.hooks {
		h(from, to)
	}
}

func validationReason(err error) string {
	switch {
	case errors.Is(err, validation.ErrIncompleteForm):
		return "incomplete_form"
	case errors.Is(err, validation.ErrDuplicateTeam):
		return "duplicate_team"
	default:
		return "other"
	}
}
