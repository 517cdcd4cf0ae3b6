package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joshdurbin/url-mapper/internal/domain"
	"github.com/joshdurbin/url-mapper/internal/repository"
)

// DefaultPrefix uses a hash tag so every key lands in one cluster slot,
// which the multi-key scripts require.
const DefaultPrefix = "{urlmap}:"

// Config holds Redis connection settings
type Config struct {
	Address     string
	Password    string
	DB          int
	PoolSize    int
	PoolTimeout time.Duration
	Prefix      string
}

// Store implements repository.Store on Redis. Each mapping is a hash; an
// id sequence and a sorted set keyed by id provide ids and stable listing.
// Every mutation is a single Lua script, so it is atomic on the server.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		PoolTimeout: cfg.PoolTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client: client,
		prefix: prefix,
	}
}

func (s *Store) recordKey(shortCode string) string {
	return s.prefix + "code:" + shortCode
}

func (s *Store) sequenceKey() string {
	return s.prefix + "seq"
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Insert persists a new record and returns its id
func (s *Store) Insert(ctx context.Context, record *domain.MappingRecord) (int64, error) {
	keys := []string{s.recordKey(record.ShortCode), s.sequenceKey(), s.indexKey()}
	id, err := insertScript.Run(ctx, s.client, keys,
		record.URL,
		record.ShortCode,
		formatTime(record.CreatedAt),
		formatOptionalTime(record.UpdatedAt),
		record.AccessCount,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to insert mapping: %w", err)
	}
	if id == 0 {
		return 0, repository.ErrUniqueViolation
	}

	return id, nil
}

// SelectAll returns every record ordered by id
func (s *Store) SelectAll(ctx context.Context) ([]*domain.MappingRecord, error) {
	codes, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping index: %w", err)
	}

	records := make([]*domain.MappingRecord, 0, len(codes))
	if len(codes) == 0 {
		return records, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(codes))
	for i, code := range codes {
		cmds[i] = pipe.HGetAll(ctx, s.recordKey(code))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to select mappings: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		// Deleted between ZRANGE and HGETALL
		if len(fields) == 0 {
			continue
		}
		record, err := decodeRecord(fields)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// SelectByCode returns the record for a short code
func (s *Store) SelectByCode(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.recordKey(shortCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to select mapping: %w", err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}

	return decodeRecord(fields)
}

// IncrementAndFetch bumps the access count and returns the record in one script
func (s *Store) IncrementAndFetch(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	reply, err := incrementScript.Run(ctx, s.client, []string{s.recordKey(shortCode)}).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment access count: %w", err)
	}

	fields, err := pairsToMap(reply)
	if err != nil {
		return nil, err
	}

	return decodeRecord(fields)
}

// UpdateURLByCode changes the target URL and stamps updated_at
func (s *Store) UpdateURLByCode(ctx context.Context, shortCode, url string, updatedAt time.Time) (int64, error) {
	affected, err := updateScript.Run(ctx, s.client, []string{s.recordKey(shortCode)}, url, formatTime(updatedAt)).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to update mapping: %w", err)
	}
	return affected, nil
}

// DeleteByCode removes the record for a short code
func (s *Store) DeleteByCode(ctx context.Context, shortCode string) (int64, error) {
	affected, err := deleteScript.Run(ctx, s.client, []string{s.recordKey(shortCode), s.indexKey()}, shortCode).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to delete mapping: %w", err)
	}
	return affected, nil
}

// Ping verifies Redis is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection pool
func (s *Store) Close() error {
	return s.client.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// pairsToMap converts a flat HGETALL reply into a field map
func pairsToMap(reply []interface{}) (map[string]string, error) {
	if len(reply)%2 != 0 {
		return nil, fmt.Errorf("malformed hash reply with %d elements", len(reply))
	}

	fields := make(map[string]string, len(reply)/2)
	for i := 0; i < len(reply); i += 2 {
		key, ok := reply[i].(string)
		if !ok {
			return nil, fmt.Errorf("malformed hash field %v", reply[i])
		}
		value, ok := reply[i+1].(string)
		if !ok {
			return nil, fmt.Errorf("malformed hash value for %s", key)
		}
		fields[key] = value
	}
	return fields, nil
}

func decodeRecord(fields map[string]string) (*domain.MappingRecord, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode id: %w", err)
	}

	accessCount, err := strconv.ParseInt(fields["access_count"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access count: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to decode created_at: %w", err)
	}

	record := &domain.MappingRecord{
		ID:          id,
		ShortCode:   fields["short_code"],
		URL:         fields["url"],
		CreatedAt:   createdAt.UTC(),
		AccessCount: accessCount,
	}

	if raw := fields["updated_at"]; raw != "" {
		updatedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode updated_at: %w", err)
		}
		updatedAt = updatedAt.UTC()
		record.UpdatedAt = &updatedAt
	}

	return record, nil
}

// Ensure Store implements the interface
var _ repository.Store = (*Store)(nil)
