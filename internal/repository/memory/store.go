package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joshdurbin/url-mapper/internal/domain"
	"github.com/joshdurbin/url-mapper/internal/repository"
)

// Store implements repository.Store in process memory. Ids are never reused.
type Store struct {
	data   map[string]*domain.MappingRecord
	nextID int64
	mutex  sync.RWMutex
	closed bool
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		data:   make(map[string]*domain.MappingRecord),
		nextID: 1,
	}
}

// Insert stores a copy of record under a new id
func (s *Store) Insert(ctx context.Context, record *domain.MappingRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return 0, errClosed
	}
	if _, exists := s.data[record.ShortCode]; exists {
		return 0, repository.ErrUniqueViolation
	}

	stored := cloneRecord(record)
	stored.ID = s.nextID
	s.nextID++
	s.data[stored.ShortCode] = stored

	return stored.ID, nil
}

// SelectAll returns copies of every record ordered by id
func (s *Store) SelectAll(ctx context.Context) ([]*domain.MappingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	records := make([]*domain.MappingRecord, 0, len(s.data))
	for _, record := range s.data {
		records = append(records, cloneRecord(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	return records, nil
}

// SelectByCode returns a copy of the record for a short code
func (s *Store) SelectByCode(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	record, exists := s.data[shortCode]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return cloneRecord(record), nil
}

// IncrementAndFetch bumps the access count under the write lock
func (s *Store) IncrementAndFetch(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, errClosed
	}

	record, exists := s.data[shortCode]
	if !exists {
		return nil, repository.ErrNotFound
	}
	record.AccessCount++

	return cloneRecord(record), nil
}

// UpdateURLByCode changes the target URL
func (s *Store) UpdateURLByCode(ctx context.Context, shortCode, url string, updatedAt time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return 0, errClosed
	}

	record, exists := s.data[shortCode]
	if !exists {
		return 0, nil
	}
	record.URL = url
	stamp := updatedAt
	record.UpdatedAt = &stamp

	return 1, nil
}

// DeleteByCode removes the record for a short code
func (s *Store) DeleteByCode(ctx context.Context, shortCode string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return 0, errClosed
	}

	if _, exists := s.data[shortCode]; !exists {
		return 0, nil
	}
	delete(s.data, shortCode)

	return 1, nil
}

// Ping reports whether the store is still open
func (s *Store) Ping(ctx context.Context) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return errClosed
	}
	return ctx.Err()
}

// Close marks the store closed; later calls fail
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true
	return nil
}

// cloneRecord copies a record so callers never share memory with the store
func cloneRecord(record *domain.MappingRecord) *domain.MappingRecord {
	clone := *record
	if record.UpdatedAt != nil {
		updated := *record.UpdatedAt
		clone.UpdatedAt = &updated
	}
	return &clone
}

// Ensure Store implements the interface
var _ repository.Store = (*Store)(nil)
