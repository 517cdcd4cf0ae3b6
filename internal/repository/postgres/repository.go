package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joshdurbin/url-mapper/internal/domain"
	"github.com/joshdurbin/url-mapper/internal/repository"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

const (
	selectColumns = `id, url, short_code, created_at, updated_at, access_count`

	insertSQL       = `INSERT INTO url (url, short_code, created_at, updated_at, access_count) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	selectAllSQL    = `SELECT ` + selectColumns + ` FROM url ORDER BY id ASC`
	selectByCodeSQL = `SELECT ` + selectColumns + ` FROM url WHERE short_code = $1`
	incrementSQL    = `UPDATE url SET access_count = access_count + 1 WHERE short_code = $1 RETURNING ` + selectColumns
	updateURLSQL    = `UPDATE url SET url = $1, updated_at = $2 WHERE short_code = $3`
	deleteSQL       = `DELETE FROM url WHERE short_code = $1`
)

// Config controls the pgx connection pool
type Config struct {
	DSN            string
	MaxConns       int32
	AcquireTimeout time.Duration
}

// Repository implements repository.Store on PostgreSQL
type Repository struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// New creates the pool, verifies connectivity and ensures the schema exists
func New(ctx context.Context, cfg Config) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return NewWithPool(ctx, pool, cfg.AcquireTimeout)
}

// NewWithPool wraps a pool owned by the caller and ensures the schema exists
func NewWithPool(ctx context.Context, pool *pgxpool.Pool, acquireTimeout time.Duration) (*Repository, error) {
	repo := &Repository{
		pool:           pool,
		acquireTimeout: acquireTimeout,
	}

	if err := repo.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return repo, nil
}

// Insert persists a new record and returns its id
func (r *Repository) Insert(ctx context.Context, record *domain.MappingRecord) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, insertSQL,
		record.URL, record.ShortCode, record.CreatedAt.UTC(), record.UpdatedAt, record.AccessCount).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrUniqueViolation
		}
		return 0, fmt.Errorf("failed to insert mapping: %w", err)
	}

	return id, nil
}

// SelectAll returns every record ordered by id
func (r *Repository) SelectAll(ctx context.Context) ([]*domain.MappingRecord, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, selectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to select mappings: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.MappingRecord, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan mappings: %w", err)
	}
	if records == nil {
		records = []*domain.MappingRecord{}
	}

	return records, nil
}

// SelectByCode returns the record for a short code
func (r *Repository) SelectByCode(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	record, err := scanRecord(r.pool.QueryRow(ctx, selectByCodeSQL, shortCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select mapping: %w", err)
	}

	return record, nil
}

// IncrementAndFetch increments and returns the row in a single statement.
// The row lock taken by UPDATE covers the RETURNING projection.
func (r *Repository) IncrementAndFetch(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	record, err := scanRecord(r.pool.QueryRow(ctx, incrementSQL, shortCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment access count: %w", err)
	}

	return record, nil
}

// UpdateURLByCode changes the target URL and stamps updated_at
func (r *Repository) UpdateURLByCode(ctx context.Context, shortCode, url string, updatedAt time.Time) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, updateURLSQL, url, updatedAt.UTC(), shortCode)
	if err != nil {
		return 0, fmt.Errorf("failed to update mapping: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteByCode removes the record for a short code
func (r *Repository) DeleteByCode(ctx context.Context, shortCode string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, deleteSQL, shortCode)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mapping: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Ping verifies a pooled connection can be acquired and used
func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	return r.pool.Ping(ctx)
}

// Close closes every connection in the pool
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (*domain.MappingRecord, error) {
	var record domain.MappingRecord
	if err := row.Scan(&record.ID, &record.URL, &record.ShortCode, &record.CreatedAt, &record.UpdatedAt, &record.AccessCount); err != nil {
		return nil, err
	}

	record.CreatedAt = record.CreatedAt.UTC()
	if record.UpdatedAt != nil {
		t := record.UpdatedAt.UTC()
		record.UpdatedAt = &t
	}

	return &record, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Ensure Repository implements the interface
var _ repository.Store = (*Repository)(nil)
