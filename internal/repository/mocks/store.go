package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/url-mapper/internal/domain"
)

// Store is a mock implementation of repository.Store
type Store struct {
	mock.Mock
}

// Insert persists a new record
func (m *Store) Insert(ctx context.Context, record *domain.MappingRecord) (int64, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(int64), args.Error(1)
}

// SelectAll returns every record
func (m *Store) SelectAll(ctx context.Context) ([]*domain.MappingRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MappingRecord), args.Error(1)
}

// SelectByCode returns the record for a short code
func (m *Store) SelectByCode(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MappingRecord), args.Error(1)
}

// IncrementAndFetch bumps the access count and returns the record
func (m *Store) IncrementAndFetch(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MappingRecord), args.Error(1)
}

// UpdateURLByCode changes the target URL
func (m *Store) UpdateURLByCode(ctx context.Context, shortCode, url string, updatedAt time.Time) (int64, error) {
	args := m.Called(ctx, shortCode, url, updatedAt)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteByCode removes a record
func (m *Store) DeleteByCode(ctx context.Context, shortCode string) (int64, error) {
	args := m.Called(ctx, shortCode)
	return args.Get(0).(int64), args.Error(1)
}

// Ping verifies the store is reachable
func (m *Store) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close releases the connection pool
func (m *Store) Close() error {
	args := m.Called()
	return args.Error(0)
}
