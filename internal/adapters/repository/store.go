// Package repository stores the history of completed predictions.
package repository

import (
	"context"

	"github.com/okian/matchwinner/internal/domain/model"
)

// Store provides read/write access to prediction history.
type Store interface {
	// Record appends an entry.
	Record(ctx context.Context, e model.HistoryEntry) error

	// Recent returns up to n entries, newest first.
	// Returns ErrInvalidLimit if n < 1.
	Recent(ctx context.Context, n int) ([]model.HistoryEntry, error)

	// Count returns the number of entries retained.
	Count(ctx context.Context) (int, error)

	// Close releases the backend.
	Close() error
}
