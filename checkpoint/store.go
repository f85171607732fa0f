package checkpoint

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no record exists for a session.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("invalid checkpoint record")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("checkpoint store closed")
)

// Store persists checkpoint records keyed by session ID. Writes are
// last-writer-wins. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the record for sessionID, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*Record, error)

	// Set stores record under sessionID, replacing any previous record.
	Set(ctx context.Context, sessionID string, record *Record) error

	// Delete removes the record for sessionID. Deleting a missing record
	// is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases the store's resources.
	Close() error
}
