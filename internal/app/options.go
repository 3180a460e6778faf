package service

import (
	"time"

	"github.com/okian/matchwinner/internal/adapters/repository"
	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/roster"
	"github.com/okian/matchwinner/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPredictor sets the prediction backend. The local rank predictor is
// used when none is given.
func WithPredictor(p controller.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithRoster sets the selectable teams.
func WithRoster(r *roster.Roster) Option {
	return func(s *Service) {
		if r != nil {
			s.roster = r
		}
	}
}

// WithDwell sets the minimum loading time for each controller.
func WithDwell(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.dwell = d
		}
	}
}

// WithRequestTimeout bounds each predictor call.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithReapInterval sets how often idle sessions are looked for.
func WithReapInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reapInterval = d
		}
	}
}

// WithHistoryStore sets where completed predictions are recorded.
func WithHistoryStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.history = st
		}
	}
}

// WithQueueSize sets the maximum size of the history queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of history worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxHistory caps the limit accepted by History.
func WithMaxHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}
