package worker

import (
	"time"

	"github.com/okian/matchwinner/pkg/logger"
)

// Option applies a configuration option to the RecordWorker.
type Option func(*RecordWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RecordWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RecordWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithWriteTimeout bounds a single store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *RecordWorker) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}
