// Package store reads and writes blog post bodies for the bulk cleaner.
//
// Two drivers are supported: sqlite (pure Go, schema managed by embedded
// migrations) and mysql (schema owned by the blog backend).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql" //revive:disable:blank-imports
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" //revive:disable:blank-imports

	"github.com/jmylchreest/postclean/internal/config"
	"github.com/jmylchreest/postclean/internal/logger"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var (
	// ErrInvalidTable is returned for table names that are not plain identifiers.
	ErrInvalidTable = errors.New("invalid table name")

	// ErrUnsupportedDriver is returned for drivers other than sqlite and mysql.
	ErrUnsupportedDriver = errors.New("unsupported store driver")

	// ErrNotFound is returned when an update matches no row.
	ErrNotFound = errors.New("row not found")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// Row is one post as read from the store.
type Row struct {
	ID      int64          `db:"id" json:"id"`
	Title   string         `db:"title" json:"title"`
	Content sql.NullString `db:"content" json:"-"`
}

// Body returns the content, or "" for NULL.
func (r Row) Body() string {
	if !r.Content.Valid {
		return ""
	}
	return r.Content.String
}

// Store is a row store backed by sqlx.
type Store struct {
	db     *sqlx.DB
	driver string
	table  string
	log    *slog.Logger
}

// Open connects to the configured database. For sqlite with Migrate set,
// embedded migrations are applied when the table is the default one.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	if !identPattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, cfg.Table)
	}

	log := logger.Component("store").With("driver", cfg.Driver, "table", cfg.Table)

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = sqlx.ConnectContext(ctx, DriverSQLite, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(5 * time.Minute)

		if cfg.Migrate {
			if cfg.Table != config.DefaultTable {
				log.Debug("skipping migrations for custom table")
			} else if err := ApplyMigrations(db.DB); err != nil {
				closeQuietly(db, log)
				return nil, err
			}
		}
	case DriverMySQL:
		db, err = sqlx.ConnectContext(ctx, DriverMySQL, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(time.Hour)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	log.Debug("store opened")
	return &Store{db: db, driver: cfg.Driver, table: cfg.Table, log: log}, nil
}

// Driver returns the driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Table returns the table name.
func (s *Store) Table() string {
	return s.table
}

// FetchRows returns every row ordered by id.
func (s *Store) FetchRows(ctx context.Context) ([]Row, error) {
	var rows []Row
	query := fmt.Sprintf("SELECT id, title, content FROM %s ORDER BY id", s.table)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch rows: %w", err)
	}
	return rows, nil
}

// GetRow returns a single row.
func (s *Store) GetRow(ctx context.Context, id int64) (Row, error) {
	var row Row
	query := s.db.Rebind(fmt.Sprintf("SELECT id, title, content FROM %s WHERE id = ?", s.table))
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Row{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return Row{}, fmt.Errorf("failed to get row %d: %w", id, err)
	}
	return row, nil
}

// UpdateContent replaces the content of one row and stamps updated_at.
func (s *Store) UpdateContent(ctx context.Context, id int64, content string) error {
	query := s.db.Rebind(fmt.Sprintf(
		"UPDATE %s SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", s.table))

	res, err := s.db.ExecContext(ctx, query, content, id)
	if err != nil {
		return fmt.Errorf("failed to update row %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update row %d: %w", id, err)
	}
	// mysql reports changed rows, not matched rows, unless clientFoundRows is set
	if n == 0 && s.driver == DriverSQLite {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// InsertRow adds a row and returns its id.
func (s *Store) InsertRow(ctx context.Context, title, content string) (int64, error) {
	query := s.db.Rebind(fmt.Sprintf("INSERT INTO %s (title, content) VALUES (?, ?)", s.table))

	res, err := s.db.ExecContext(ctx, query, title, content)
	if err != nil {
		return 0, fmt.Errorf("failed to insert row: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// CountRows returns the number of rows in the table.
func (s *Store) CountRows(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	if err := s.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	s.log.Debug("store closed")
	return nil
}

func closeQuietly(db *sqlx.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("error closing database after migration failure", "error", err)
	}
}
