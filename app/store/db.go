package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	_ "github.com/jackc/pgx/v5/stdlib" // postgresql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// Store keeps preferences in SQLite or PostgreSQL.
type Store struct {
	db     *sqlx.DB
	dbType DBType
	mu     RWLocker
}

// New creates a new Store with the given database URL.
// Automatically detects database type from URL:
// - postgres:// or postgresql:// -> PostgreSQL
// - everything else -> SQLite
func New(dbURL string) (*Store, error) {
	dbType := detectDBType(dbURL)

	var db *sqlx.DB
	var err error
	var locker RWLocker

	switch dbType {
	case DBTypePostgres:
		db, err = connectPostgres(dbURL)
		locker = noopLocker{}
	default:
		db, err = connectSQLite(dbURL)
		locker = &sync.RWMutex{}
	}

	if err != nil {
		return nil, err
	}

	s := &Store{db: db, dbType: dbType, mu: locker}

	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("[DEBUG] initialized %s store", s.dbTypeName())
	return s, nil
}

// detectDBType determines database type from URL.
func detectDBType(url string) DBType {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DBTypePostgres
	}
	return DBTypeSQLite
}

// connectSQLite establishes SQLite connection with pragmas.
func connectSQLite(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil { //nolint:noctx // init-time, no context available
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// single writer
	db.SetMaxOpenConns(1)
	return db, nil
}

// connectPostgres establishes PostgreSQL connection.
func connectPostgres(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// createSchema creates the preferences and accounts tables if they don't exist.
func (s *Store) createSchema() error {
	timestamp, now := "DATETIME", "CURRENT_TIMESTAMP"
	if s.dbType == DBTypePostgres {
		timestamp, now = "TIMESTAMP", "NOW()"
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			visitor TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at ` + timestamp + ` DEFAULT ` + now + `,
			updated_at ` + timestamp + ` DEFAULT ` + now + `,
			PRIMARY KEY (visitor, key)
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			username TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL,
			visitor TEXT NOT NULL,
			created_at ` + timestamp + ` DEFAULT ` + now + `
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil { //nolint:noctx // init-time, no context available
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// dbTypeName returns human-readable database type name.
func (s *Store) dbTypeName() string {
	if s.dbType == DBTypePostgres {
		return "postgres"
	}
	return "sqlite"
}

// Get returns the value of a visitor's preference.
// Returns ErrNotFound if it was never set.
func (s *Store) Get(ctx context.Context, visitor, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	query := s.adoptQuery("SELECT value FROM preferences WHERE visitor = ? AND key = ?")
	err := s.db.GetContext(ctx, &value, query, visitor, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %q for visitor %q: %w", key, visitor, err)
	}
	return value, nil
}

// Set stores a visitor's preference, creating or updating it.
func (s *Store) Set(ctx context.Context, visitor, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	query := s.adoptQuery(`
		INSERT INTO preferences (visitor, key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(visitor, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, visitor, key, value, now, now); err != nil {
		return fmt.Errorf("failed to set %q for visitor %q: %w", key, visitor, err)
	}
	return nil
}

// Delete removes a visitor's preference.
// Returns ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, visitor, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.adoptQuery("DELETE FROM preferences WHERE visitor = ? AND key = ?")
	result, err := s.db.ExecContext(ctx, query, visitor, key)
	if err != nil {
		return fmt.Errorf("failed to delete %q for visitor %q: %w", key, visitor, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all preferences of a visitor ordered by key.
func (s *Store) List(ctx context.Context, visitor string) ([]Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prefs []Preference
	query := s.adoptQuery(`SELECT visitor, key, value, created_at, updated_at FROM preferences WHERE visitor = ? ORDER BY key`)
	if err := s.db.SelectContext(ctx, &prefs, query, visitor); err != nil {
		return nil, fmt.Errorf("failed to list preferences for visitor %q: %w", visitor, err)
	}
	return prefs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// adoptQuery converts SQLite query syntax to PostgreSQL:
// - placeholders: ? → $1, $2, ...
// - case: excluded. → EXCLUDED.
func (s *Store) adoptQuery(query string) string {
	if s.dbType != DBTypePostgres {
		return query
	}

	query = strings.ReplaceAll(query, "excluded.", "EXCLUDED.")

	result := make([]byte, 0, len(query)+10)
	paramNum := 1
	for i := range len(query) {
		if query[i] != '?' {
			result = append(result, query[i])
			continue
		}
		result = append(result, '$')
		result = append(result, strconv.Itoa(paramNum)...)
		paramNum++
	}
	return string(result)
}
