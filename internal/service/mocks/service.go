package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/url-mapper/internal/domain"
)

// MappingService is a mock implementation of service.MappingService
type MappingService struct {
	mock.Mock
}

// Create stores a new mapping
func (m *MappingService) Create(ctx context.Context, url, shortCode string) (*domain.MappingRecord, error) {
	args := m.Called(ctx, url, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MappingRecord), args.Error(1)
}

// List returns every mapping
func (m *MappingService) List(ctx context.Context) ([]*domain.MappingRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MappingRecord), args.Error(1)
}

// RetrieveAndCount resolves a short code and counts the access
func (m *MappingService) RetrieveAndCount(ctx context.Context, shortCode string) (*domain.MappingView, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MappingView), args.Error(1)
}

// Update points a short code at a new URL
func (m *MappingService) Update(ctx context.Context, shortCode, newURL string) error {
	args := m.Called(ctx, shortCode, newURL)
	return args.Error(0)
}

// Delete removes a mapping
func (m *MappingService) Delete(ctx context.Context, shortCode string) error {
	args := m.Called(ctx, shortCode)
	return args.Error(0)
}

// Statistics returns the full record
func (m *MappingService) Statistics(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MappingRecord), args.Error(1)
}
