package controller

import (
	"time"

	"github.com/okian/matchwinner/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithDwell sets the minimum time the loading view stays up on success.
func WithDwell(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.dwell = d
		}
	}
}

// WithRequestTimeout bounds a single predictor call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the sink called after each transition into Result.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithTransitionHook registers an observer of every state transition.
// Hooks run outside the controller lock.
func WithTransitionHook(h TransitionHook) Option {
	return func(c *Controller) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}
