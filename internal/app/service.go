// Package service owns the per-session controllers and the history
// pipeline that the HTTP layers depend on.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/matchwinner/internal/adapters/mq/queue"
	workerpool "github.com/okian/matchwinner/internal/adapters/mq/worker"
	"github.com/okian/matchwinner/internal/adapters/repository"
	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/roster"
	"github.com/okian/matchwinner/internal/domain/scoring"
	"github.com/okian/matchwinner/internal/domain/validation"
	"github.com/okian/matchwinner/pkg/logger"
	"github.com/okian/matchwinner/pkg/metrics"
)

// Default service configuration.
const (
	defaultSessionTTL   = 30 * time.Minute
	defaultReapInterval = time.Minute
	defaultQueueSize    = 1024
	defaultMaxHistory   = 100
	apiSessionID        = "api"
)

// Stats is a point-in-time view of the service.
type Stats struct {
	Started        bool `json:"started"`
	ActiveSessions int  `json:"activeSessions"`
	QueueLength    int  `json:"queueLength"`
	QueueCapacity  int  `json:"queueCapacity"`
	Workers        int  `json:"workers"`
	HistoryCount   int  `json:"historyCount"`
	Teams          int  `json:"teams"`
}

type session struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Service implements the dependencies of the web UI and JSON API.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	// Core components
	predictor controller.Predictor
	roster    *roster.Roster
	history   repository.Store
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool

	// Configuration
	dwell          time.Duration
	requestTimeout time.Duration
	sessionTTL     time.Duration
	reapInterval   time.Duration
	queueSize      int
	workerCount    int
	maxHistory     int

	// State
	started bool
	stopCh  chan struct{}
	reaped  chan struct{}

	logger logger.Logger
	now    func() time.Time
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:       make(map[string]*session),
		roster:         roster.Default(),
		dwell:          controller.DefaultDwell,
		requestTimeout: controller.DefaultRequestTimeout,
		sessionTTL:     defaultSessionTTL,
		reapInterval:   defaultReapInterval,
		queueSize:      defaultQueueSize,
		workerCount:    runtime.NumCPU(),
		maxHistory:     defaultMaxHistory,
		logger:         logger.Nop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the history pipeline and the session reaper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting match winner service...")

	if s.predictor == nil {
		s.predictor = scoring.NewRankPredictor()
		s.logger.Info(ctx, "using local rank predictor")
	}
	if s.history == nil {
		s.history = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory history store")
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.history,
		workerpool.WithLogger(s.logger.Named("history")),
	)
	// Workers outlive the start context and drain the queue on Stop.
	s.pool.Start(context.Background())

	s.stopCh = make(chan struct{})
	s.reaped = make(chan struct{})
	go s.reapLoop()

	s.started = true
	s.logger.Info(ctx, "match winner service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("teams", s.roster.Len()),
		logger.Duration("dwell", s.dwell),
		logger.Duration("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop closes every session, drains the history queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping match winner service...")
	<-s.reaped

	for _, sess := range sessions {
		sess.ctrl.Close()
	}
	metrics.UpdateActiveSessions(0)

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "history workers did not drain", logger.Error(err))
	}
	if err := s.history.Close(); err != nil {
		s.logger.Warn(ctx, "closing history store", logger.Error(err))
	}
	s.logger.Info(ctx, "match winner service stopped")
}

// Controller returns the controller for sessionID, creating a new session
// when the id is empty or unknown. The returned id is the one to hand back
// to the client.
func (s *Service) Controller(sessionID string) (*controller.Controller, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, "", ErrNotStarted
	}
	now := s.now()
	if sess, ok := s.sessions[sessionID]; ok && sessionID != "" {
		sess.lastSeen = now
		return sess.ctrl, sessionID, nil
	}

	id := uuid.NewString()
	ctrl := controller.New(s.predictor,
		controller.WithDwell(s.dwell),
		controller.WithRequestTimeout(s.requestTimeout),
		controller.WithLogger(s.logger.Named("controller")),
		controller.WithRecorder(s.recorder(id)),
	)
	s.sessions[id] = &session{ctrl: ctrl, lastSeen: now}
	metrics.UpdateActiveSessions(len(s.sessions))
	return ctrl, id, nil
}

// Roster returns the selectable teams.
func (s *Service) Roster() *roster.Roster {
	return s.roster
}

// Predict validates form and calls the predictor directly, without a
// session or dwell. Successful predictions are recorded under the "api"
// session.
func (s *Service) Predict(ctx context.Context, form model.Form) (model.MatchRequest, model.PredictionResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return model.MatchRequest{}, model.PredictionResult{}, ErrNotStarted
	}

	form.HomeTeam = s.roster.Normalize(form.HomeTeam)
	form.AwayTeam = s.roster.Normalize(form.AwayTeam)
	req, err := validation.Validate(form)
	if err != nil {
		return model.MatchRequest{}, model.PredictionResult{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	res, err := s.predictor.Predict(cctx, req)
	if err != nil {
		metrics.RecordServiceUnavailable()
		return req, model.PredictionResult{}, &controller.ServiceUnavailableError{Err: err}
	}
	metrics.RecordPrediction(res.Outcome.String())
	s.recorder(apiSessionID)(ctx, req, res)
	return req, res, nil
}

// History returns up to n recent predictions, newest first.
func (s *Service) History(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	if n < 1 || n > s.maxHistory {
		return nil, fmt.Errorf("%w: %d (1..%d)", ErrInvalidLimit, n, s.maxHistory)
	}
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	return s.history.Recent(ctx, n)
}

// MaxHistory is the largest limit History accepts.
func (s *Service) MaxHistory() int { return s.maxHistory }

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:        s.started,
		ActiveSessions: len(s.sessions),
		Teams:          s.roster.Len(),
	}
	if s.started {
		st.QueueLength = s.queue.Len(ctx)
		st.QueueCapacity = s.queue.Capacity()
		st.Workers = s.pool.Size()
		if n, err := s.history.Count(ctx); err == nil {
			st.HistoryCount = n
		} else {
			s.logger.Warn(ctx, "history count failed", logger.Error(err))
		}
	}
	metrics.UpdateActiveSessions(st.ActiveSessions)
	return st
}

// recorder returns the history sink for one session. It never blocks: a
// full queue drops the entry.
func (s *Service) recorder(sessionID string) controller.Recorder {
	return func(ctx context.Context, req model.MatchRequest, res model.PredictionResult) {
		s.mu.RLock()
		q := s.queue
		s.mu.RUnlock()
		if q == nil {
			return
		}
		e := model.HistoryEntry{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Request:   req,
			Result:    res,
			CreatedAt: s.now().UTC(),
		}
		if !q.Enqueue(ctx, e) {
			metrics.RecordHistoryDropped()
			s.logger.Warn(ctx, "history entry dropped", logger.String("session", sessionID))
		}
	}
}

func (s *Service) reapLoop() {
	defer close(s.reaped)
	ticker := time.NewTicker(s.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Reap()
		}
	}
}

// Reap closes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Service) Reap() int {
	cutoff := s.now().Add(-s.sessionTTL)

	s.mu.Lock()
	var expired []*controller.Controller
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess.ctrl)
			delete(s.sessions, id)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	for _, c := range expired {
		c.Close()
		metrics.RecordSessionReaped()
	}
	if len(expired) > 0 {
		metrics.UpdateActiveSessions(active)
		s.logger.Debug(context.Background(), "reaped idle sessions", logger.Int("count", len(expired)))
	}
	return len(expired)
}
