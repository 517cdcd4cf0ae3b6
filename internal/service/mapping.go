package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/joshdurbin/url-mapper/internal/domain"
	"github.com/joshdurbin/url-mapper/internal/logging"
	"github.com/joshdurbin/url-mapper/internal/metrics"
	"github.com/joshdurbin/url-mapper/internal/repository"
)

// mappingService implements MappingService on top of a repository.Store.
// It keeps no state of its own; per-record serialization is the store's job.
type mappingService struct {
	store  repository.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewMappingService creates a mapping service. The store, and the connection
// pool behind it, stay owned by the caller.
func NewMappingService(store repository.Store, logger zerolog.Logger) MappingService {
	return &mappingService{
		store:  store,
		logger: logging.Component(logger, "mapping_service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new mapping
func (s *mappingService) Create(ctx context.Context, url, shortCode string) (record *domain.MappingRecord, err error) {
	defer s.observe("create", shortCode, time.Now(), &err)

	if err := domain.ValidateURL(url); err != nil {
		return nil, err
	}
	if err := domain.ValidateShortCode(shortCode); err != nil {
		return nil, err
	}

	record = &domain.MappingRecord{
		ShortCode:   shortCode,
		URL:         url,
		CreatedAt:   s.now(),
		AccessCount: 0,
	}

	id, err := s.store.Insert(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateCode, shortCode)
		}
		return nil, storeError("create", shortCode, err)
	}
	record.ID = id

	return record, nil
}

// List returns every mapping
func (s *mappingService) List(ctx context.Context) (records []*domain.MappingRecord, err error) {
	defer s.observe("list", "", time.Now(), &err)

	records, err = s.store.SelectAll(ctx)
	if err != nil {
		return nil, storeError("list", "", err)
	}
	if records == nil {
		records = []*domain.MappingRecord{}
	}

	return records, nil
}

// RetrieveAndCount increments the access count and returns the mapping view.
// The increment and read-back are one atomic store operation. If the store
// hands back something unusable the increment stays committed and the caller
// gets ErrStore; counting does not depend on the caller seeing the result.
func (s *mappingService) RetrieveAndCount(ctx context.Context, shortCode string) (view *domain.MappingView, err error) {
	defer s.observe("retrieve", shortCode, time.Now(), &err)

	record, err := s.store.IncrementAndFetch(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(shortCode)
		}
		return nil, storeError("retrieve", shortCode, err)
	}

	if record == nil || record.ShortCode != shortCode || record.URL == "" {
		return nil, fmt.Errorf("%w: retrieve %q: store returned an incomplete record", domain.ErrStore, shortCode)
	}

	return domain.NewMappingView(record), nil
}

// Update changes the target URL of an existing mapping
func (s *mappingService) Update(ctx context.Context, shortCode, newURL string) (err error) {
	defer s.observe("update", shortCode, time.Now(), &err)

	if err := domain.ValidateURL(newURL); err != nil {
		return err
	}

	affected, err := s.store.UpdateURLByCode(ctx, shortCode, newURL, s.now())
	if err != nil {
		return storeError("update", shortCode, err)
	}
	if affected == 0 {
		return notFound(shortCode)
	}

	return nil
}

// Delete removes a mapping
func (s *mappingService) Delete(ctx context.Context, shortCode string) (err error) {
	defer s.observe("delete", shortCode, time.Now(), &err)

	affected, err := s.store.DeleteByCode(ctx, shortCode)
	if err != nil {
		return storeError("delete", shortCode, err)
	}
	if affected == 0 {
		return notFound(shortCode)
	}

	return nil
}

// Statistics returns the full record without touching the access count
func (s *mappingService) Statistics(ctx context.Context, shortCode string) (record *domain.MappingRecord, err error) {
	defer s.observe("statistics", shortCode, time.Now(), &err)

	record, err = s.store.SelectByCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(shortCode)
		}
		return nil, storeError("statistics", shortCode, err)
	}

	return record, nil
}

// observe logs and records the outcome of an operation once it returns
func (s *mappingService) observe(operation, shortCode string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	kind := domain.KindOf(*errp)
	metrics.RecordOperation(operation, kind.String(), elapsed)

	var event *zerolog.Event
	switch kind {
	case domain.KindNone:
		event = s.logger.Debug()
	case domain.KindStore:
		event = s.logger.Error().Err(*errp)
	default:
		event = s.logger.Warn().Err(*errp)
	}

	if shortCode != "" {
		event = event.Str("short_code", shortCode)
	}
	event.
		Str("operation", operation).
		Str("result", kind.String()).
		Dur("elapsed", elapsed).
		Msg("mapping operation")
}

func notFound(shortCode string) error {
	return fmt.Errorf("%w: %q", domain.ErrNotFound, shortCode)
}

// storeError wraps a persistence failure so both domain.ErrStore and the
// underlying cause remain matchable with errors.Is.
func storeError(operation, shortCode string, err error) error {
	if shortCode == "" {
		return fmt.Errorf("%w: %s: %w", domain.ErrStore, operation, err)
	}
	return fmt.Errorf("%w: %s %q: %w", domain.ErrStore, operation, shortCode, err)
}

// Ensure mappingService implements MappingService interface
var _ MappingService = (*mappingService)(nil)
