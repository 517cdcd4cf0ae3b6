package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/url-mapper/internal/domain"
	"github.com/joshdurbin/url-mapper/internal/repository"
	"github.com/joshdurbin/url-mapper/internal/repository/mocks"
)

func newTestService(store repository.Store) *mappingService {
	svc := NewMappingService(store, zerolog.Nop()).(*mappingService)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestMappingService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		url        string
		shortCode  string
		setupMocks func(*mocks.Store)
		wantErr    error
	}{
		{
			name:      "successful creation",
			url:       "https://example.com",
			shortCode: "example",
			setupMocks: func(store *mocks.Store) {
				store.On("Insert", ctx, mock.MatchedBy(func(record *domain.MappingRecord) bool {
					return record.ShortCode == "example" &&
						record.URL == "https://example.com" &&
						record.AccessCount == 0 &&
						record.UpdatedAt == nil &&
						!record.CreatedAt.IsZero()
				})).Return(int64(7), nil)
			},
		},
		{
			name:       "invalid URL",
			url:        "not-a-url",
			shortCode:  "example",
			setupMocks: func(store *mocks.Store) {},
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name:       "empty short code",
			url:        "https://example.com",
			shortCode:  "",
			setupMocks: func(store *mocks.Store) {},
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name:      "duplicate short code",
			url:       "https://example.com",
			shortCode: "example",
			setupMocks: func(store *mocks.Store) {
				store.On("Insert", ctx, mock.AnythingOfType("*domain.MappingRecord")).
					Return(int64(0), repository.ErrUniqueViolation)
			},
			wantErr: domain.ErrDuplicateCode,
		},
		{
			name:      "store error",
			url:       "https://example.com",
			shortCode: "example",
			setupMocks: func(store *mocks.Store) {
				store.On("Insert", ctx, mock.AnythingOfType("*domain.MappingRecord")).
					Return(int64(0), assert.AnError)
			},
			wantErr: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.Store{}
			tt.setupMocks(store)

			svc := newTestService(store)
			record, err := svc.Create(ctx, tt.url, tt.shortCode)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, record)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), record.ID)
				assert.Equal(t, tt.shortCode, record.ShortCode)
				assert.Equal(t, tt.url, record.URL)
				assert.Equal(t, int64(0), record.AccessCount)
				assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), record.CreatedAt)
			}

			store.AssertExpectations(t)
		})
	}
}

func TestMappingService_Create_StoreErrorKeepsCause(t *testing.T) {
	ctx := context.Background()
	store := &mocks.Store{}
	store.On("Insert", ctx, mock.AnythingOfType("*domain.MappingRecord")).
		Return(int64(0), context.DeadlineExceeded)

	_, err := newTestService(store).Create(ctx, "https://example.com", "example")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.KindStore, domain.KindOf(err))
}

func TestMappingService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(*mocks.Store)
		wantCount  int
		wantErr    error
	}{
		{
			name: "records",
			setupMocks: func(store *mocks.Store) {
				store.On("SelectAll", ctx).Return([]*domain.MappingRecord{
					{ID: 1, ShortCode: "a", URL: "https://a.example.com"},
					{ID: 2, ShortCode: "b", URL: "https://b.example.com"},
				}, nil)
			},
			wantCount: 2,
		},
		{
			name: "empty store",
			setupMocks: func(store *mocks.Store) {
				store.On("SelectAll", ctx).Return(nil, nil)
			},
			wantCount: 0,
		},
		{
			name: "store error",
			setupMocks: func(store *mocks.Store) {
				store.On("SelectAll", ctx).Return(nil, assert.AnError)
			},
			wantErr: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.Store{}
			tt.setupMocks(store)

			records, err := newTestService(store).List(ctx)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, records)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, records)
				assert.Len(t, records, tt.wantCount)
			}

			store.AssertExpectations(t)
		})
	}
}

func TestMappingService_RetrieveAndCount(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		shortCode  string
		setupMocks func(*mocks.Store)
		wantURL    string
		wantErr    error
	}{
		{
			name:      "found",
			shortCode: "example",
			setupMocks: func(store *mocks.Store) {
				store.On("IncrementAndFetch", ctx, "example").Return(&domain.MappingRecord{
					ID:          1,
					ShortCode:   "example",
					URL:         "https://example.com",
					CreatedAt:   created,
					AccessCount: 1,
				}, nil)
			},
			wantURL: "https://example.com",
		},
		{
			name:      "not found",
			shortCode: "missing",
			setupMocks: func(store *mocks.Store) {
				store.On("IncrementAndFetch", ctx, "missing").Return(nil, repository.ErrNotFound)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:      "store error",
			shortCode: "example",
			setupMocks: func(store *mocks.Store) {
				store.On("IncrementAndFetch", ctx, "example").Return(nil, assert.AnError)
			},
			wantErr: domain.ErrStore,
		},
		{
			name:      "incomplete read-back is not a success",
			shortCode: "example",
			setupMocks: func(store *mocks.Store) {
				store.On("IncrementAndFetch", ctx, "example").Return(&domain.MappingRecord{ID: 1}, nil)
			},
			wantErr: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.Store{}
			tt.setupMocks(store)

			view, err := newTestService(store).RetrieveAndCount(ctx, tt.shortCode)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, view)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, view.URL)
				assert.Equal(t, tt.shortCode, view.ShortCode)
				assert.Equal(t, "2024-01-01T00:00:00Z", view.CreatedAt)
				assert.Nil(t, view.UpdatedAt)
			}

			store.AssertExpectations(t)
		})
	}
}

func TestMappingService_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		newURL     string
		setupMocks func(*mocks.Store)
		wantErr    error
	}{
		{
			name:   "successful update",
			newURL: "https://new.example.com",
			setupMocks: func(store *mocks.Store) {
				store.On("UpdateURLByCode", ctx, "example", "https://new.example.com", now).Return(int64(1), nil)
			},
		},
		{
			name:   "zero rows is not found",
			newURL: "https://new.example.com",
			setupMocks: func(store *mocks.Store) {
				store.On("UpdateURLByCode", ctx, "example", "https://new.example.com", now).Return(int64(0), nil)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:       "invalid URL",
			newURL:     "",
			setupMocks: func(store *mocks.Store) {},
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name:   "store error",
			newURL: "https://new.example.com",
			setupMocks: func(store *mocks.Store) {
				store.On("UpdateURLByCode", ctx, "example", "https://new.example.com", now).Return(int64(0), assert.AnError)
			},
			wantErr: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.Store{}
			tt.setupMocks(store)

			err := newTestService(store).Update(ctx, "example", tt.newURL)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			store.AssertExpectations(t)
		})
	}
}

func TestMappingService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(*mocks.Store)
		wantErr    error
	}{
		{
			name: "successful deletion",
			setupMocks: func(store *mocks.Store) {
				store.On("DeleteByCode", ctx, "example").Return(int64(1), nil)
			},
		},
		{
			name: "zero rows is not found",
			setupMocks: func(store *mocks.Store) {
				store.On("DeleteByCode", ctx, "example").Return(int64(0), nil)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "store error",
			setupMocks: func(store *mocks.Store) {
				store.On("DeleteByCode", ctx, "example").Return(int64(0), assert.AnError)
			},
			wantErr: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.Store{}
			tt.setupMocks(store)

			err := newTestService(store).Delete(ctx, "example")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			store.AssertExpectations(t)
		})
	}
}

func TestMappingService_Statistics(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(*mocks.Store)
		wantCount  int64
		wantErr    error
	}{
		{
			name: "found",
			setupMocks: func(store *mocks.Store) {
				store.On("SelectByCode", ctx, "example").Return(&domain.MappingRecord{
					ID: 1, ShortCode: "example", URL: "https://example.com", AccessCount: 5,
				}, nil)
			},
			wantCount: 5,
		},
		{
			name: "not found",
			setupMocks: func(store *mocks.Store) {
				store.On("SelectByCode", ctx, "example").Return(nil, repository.ErrNotFound)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "store error",
			setupMocks: func(store *mocks.Store) {
				store.On("SelectByCode", ctx, "example").Return(nil, assert.AnError)
			},
			wantErr: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.Store{}
			tt.setupMocks(store)

			record, err := newTestService(store).Statistics(ctx, "example")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, record)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, record.AccessCount)
			}

			// Statistics never increments
			store.AssertNotCalled(t, "IncrementAndFetch", mock.Anything, mock.Anything)
			store.AssertExpectations(t)
		})
	}
}
