package service

import (
	"context"

	"github.com/joshdurbin/url-mapper/internal/domain"
)

// MappingService defines the operations on short code mappings. Errors are
// classified with domain.ErrNotFound, domain.ErrDuplicateCode,
// domain.ErrInvalidInput and domain.ErrStore.
type MappingService interface {
	// Create stores a new mapping with an access count of zero
	Create(ctx context.Context, url, shortCode string) (*domain.MappingRecord, error)

	// List returns every mapping ordered by id
	List(ctx context.Context) ([]*domain.MappingRecord, error)

	// RetrieveAndCount resolves a short code and counts the access
	RetrieveAndCount(ctx context.Context, shortCode string) (*domain.MappingView, error)

	// Update points an existing short code at a new URL
	Update(ctx context.Context, shortCode, newURL string) error

	// Delete removes a mapping
	Delete(ctx context.Context, shortCode string) error

	// Statistics returns the full record, access count included, without counting
	Statistics(ctx context.Context, shortCode string) (*domain.MappingRecord, error)
}
