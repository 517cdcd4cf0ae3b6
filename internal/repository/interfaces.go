package repository

import (
	"context"
	"errors"
	"time"

	"github.com/joshdurbin/url-mapper/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the short code
	ErrNotFound = errors.New("short code not found")

	// ErrUniqueViolation is returned when an insert collides with an existing short code
	ErrUniqueViolation = errors.New("short code unique constraint violated")
)

// Store defines the persistence primitives the mapping service is built on
type Store interface {
	// Insert persists a new record and returns the store-assigned id
	Insert(ctx context.Context, record *domain.MappingRecord) (int64, error)

	// SelectAll returns every record ordered by id
	SelectAll(ctx context.Context) ([]*domain.MappingRecord, error)

	// SelectByCode returns the record for a short code
	SelectByCode(ctx context.Context, shortCode string) (*domain.MappingRecord, error)

	// IncrementAndFetch atomically bumps the access count and returns the updated record
	IncrementAndFetch(ctx context.Context, shortCode string) (*domain.MappingRecord, error)

	// UpdateURLByCode changes the target URL and returns the number of rows affected
	UpdateURLByCode(ctx context.Context, shortCode, url string, updatedAt time.Time) (int64, error)

	// DeleteByCode removes a record and returns the number of rows affected
	DeleteByCode(ctx context.Context, shortCode string) (int64, error)

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error

	// Close releases the connection pool
	Close() error
}

// WithTimeout bounds a single store operation, including the time spent
// waiting for a pooled connection. A non-positive timeout leaves ctx untouched.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
