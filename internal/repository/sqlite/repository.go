package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/joshdurbin/url-mapper/internal/domain"
	"github.com/joshdurbin/url-mapper/internal/repository"
)

const (
	selectColumns = `id, url, short_code, created_at, updated_at, access_count`

	insertSQL       = `INSERT INTO url (url, short_code, created_at, updated_at, access_count) VALUES (?, ?, ?, ?, ?)`
	selectAllSQL    = `SELECT ` + selectColumns + ` FROM url ORDER BY id ASC`
	selectByCodeSQL = `SELECT ` + selectColumns + ` FROM url WHERE short_code = ?`
	incrementSQL    = `UPDATE url SET access_count = access_count + 1 WHERE short_code = ?`
	updateURLSQL    = `UPDATE url SET url = ?, updated_at = ? WHERE short_code = ?`
	deleteSQL       = `DELETE FROM url WHERE short_code = ?`
)

// Config controls how the SQLite database is opened
type Config struct {
	Path           string
	MaxOpenConns   int
	BusyTimeout    time.Duration
	AcquireTimeout time.Duration
}

// DefaultConfig returns settings suitable for a single-node deployment
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		MaxOpenConns:   10,
		BusyTimeout:    5 * time.Second,
		AcquireTimeout: 5 * time.Second,
	}
}

// Repository implements repository.Store using SQLite
type Repository struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// New opens the database, sizes the connection pool and applies migrations
func New(cfg Config) (*Repository, error) {
	db, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repository{
		db:             db,
		acquireTimeout: cfg.AcquireTimeout,
	}, nil
}

// dsn applies per-connection pragmas through the connection string so every
// pooled connection gets them, not only the first one.
// _txlock=immediate makes BEGIN take the write lock up front.
func dsn(cfg Config) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d&_txlock=immediate",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
}

// Insert persists a new record and returns its id
func (r *Repository) Insert(ctx context.Context, record *domain.MappingRecord) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	var updatedAt sql.NullTime
	if record.UpdatedAt != nil {
		updatedAt = sql.NullTime{Time: record.UpdatedAt.UTC(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, insertSQL,
		record.URL, record.ShortCode, record.CreatedAt.UTC(), updatedAt, record.AccessCount)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrUniqueViolation
		}
		return 0, fmt.Errorf("failed to insert mapping: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	return id, nil
}

// SelectAll returns every record ordered by id
func (r *Repository) SelectAll(ctx context.Context) ([]*domain.MappingRecord, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to select mappings: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.MappingRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mappings: %w", err)
	}

	return records, nil
}

// SelectByCode returns the record for a short code
func (r *Repository) SelectByCode(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	record, err := scanRecord(r.db.QueryRowContext(ctx, selectByCodeSQL, shortCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select mapping: %w", err)
	}

	return record, nil
}

// IncrementAndFetch bumps the access count and reads the row back inside one
// immediate transaction. The write lock is held across both statements, so
// concurrent retrievals of the same code cannot lose an increment and a
// concurrent delete cannot slip in between.
func (r *Repository) IncrementAndFetch(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, incrementSQL, shortCode)
	if err != nil {
		return nil, fmt.Errorf("failed to increment access count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}

	record, err := scanRecord(tx.QueryRowContext(ctx, selectByCodeSQL, shortCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read back mapping: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit increment: %w", err)
	}

	return record, nil
}

// UpdateURLByCode changes the target URL and stamps updated_at
func (r *Repository) UpdateURLByCode(ctx context.Context, shortCode, url string, updatedAt time.Time) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, updateURLSQL, url, updatedAt.UTC(), shortCode)
	if err != nil {
		return 0, fmt.Errorf("failed to update mapping: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

// DeleteByCode removes the record for a short code
func (r *Repository) DeleteByCode(ctx context.Context, shortCode string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, deleteSQL, shortCode)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mapping: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

// Ping verifies the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := repository.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	return r.db.PingContext(ctx)
}

// Close closes the connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.MappingRecord, error) {
	var (
		record    domain.MappingRecord
		updatedAt sql.NullTime
	)

	if err := row.Scan(&record.ID, &record.URL, &record.ShortCode, &record.CreatedAt, &updatedAt, &record.AccessCount); err != nil {
		return nil, err
	}

	record.CreatedAt = record.CreatedAt.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		record.UpdatedAt = &t
	}

	return &record, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Ensure Repository implements the interface
var _ repository.Store = (*Repository)(nil)
