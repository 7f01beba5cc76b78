package document

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite. All collections
// share a single documents table keyed by collection name; record bodies are
// stored as JSON and queried with json_extract.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// SQLiteConfig holds SQLite store configuration.
type SQLiteConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations from the embedded filesystem.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

// Count returns the number of records in the collection.
func (s *SQLiteStore) Count(ctx context.Context, h Handle) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE collection = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, h.Name).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents in %s: %w", h.Name, err)
	}

	return count, nil
}

// Insert stores a record as a JSON body and returns its identifier.
func (s *SQLiteStore) Insert(ctx context.Context, h Handle, rec Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("cannot insert nil record into %s", h.Name)
	}

	stored := cloneRecord(rec)
	id, ok := stored["_id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored["_id"] = id
	}

	body, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	query := `INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, h.Name, id, string(body)); err != nil {
		return "", fmt.Errorf("failed to insert document into %s: %w", h.Name, err)
	}

	return id, nil
}

// FindOne returns the first record whose top-level field equals value,
// in insertion order.
func (s *SQLiteStore) FindOne(ctx context.Context, h Handle, field string, value any) (Record, bool, error) {
	query := `
		SELECT body FROM documents
		WHERE collection = ? AND json_extract(body, '$.' || ?) = ?
		ORDER BY seq ASC
		LIMIT 1
	`

	var body string
	err := s.db.QueryRowContext(ctx, query, h.Name, field, value).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query %s: %w", h.Name, err)
	}

	rec, err := decodeRecord(body)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// List returns all records in the collection in insertion order.
func (s *SQLiteStore) List(ctx context.Context, h Handle) ([]Record, error) {
	query := `SELECT body FROM documents WHERE collection = ? ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, h.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", h.Name, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		rec, err := decodeRecord(body)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return records, nil
}

func decodeRecord(body string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}
