// Package profiles persists named rendering configurations in SQL.
package profiles

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"mobkml.dev/cellmap/internal/appconf"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
)

//go:embed schema.sql
var ddl string

const (
	// DriverSQLite is the default, file backed driver.
	DriverSQLite = "sqlite"
	// DriverPgx stores profiles in PostgreSQL.
	DriverPgx = "pgx"

	// MaxNameLength bounds profile names.
	MaxNameLength = 100
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrInvalidName = errors.New("invalid profile name")
	ErrNameMissing = fmt.Errorf("%w: name is required", ErrInvalidName)
)

// Store is a profile repository.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the database named by cfg and creates the schema. In the
// test environment only an in-memory SQLite database is accepted.
func Open(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.DBType))
	if driver == "" {
		driver = DriverSQLite
	}

	var dsn string
	switch driver {
	case DriverSQLite:
		dsn = cfg.DBPath
		if dsn == "" {
			dsn = "profiles.db"
		}
		if cfg.Env == appconf.Test && dsn != ":memory:" {
			return nil, fmt.Errorf("test database must be :memory:, got %q", dsn)
		}
	case DriverPgx:
		dsn = strings.TrimSpace(cfg.DBConn)
		if dsn == "" {
			return nil, errors.New("pgx driver requires a connection string")
		}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening the database: %w", err)
	}
	if driver == DriverSQLite {
		// One connection keeps a :memory: database alive and serialises writes.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	s := &Store{db: db, driver: driver, logger: logger}
	if err := s.migrate(ctx); err != nil {
		logging.SafeCloseWithLogging(db, logger, "profile database")
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver is the SQL driver in use.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) placeholder(n int) string {
	if s.driver == DriverPgx {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// NormalizeName trims a profile name and drops a trailing ".json" so names
// saved by file based installs keep working. Names must be non-empty, at
// most MaxNameLength runes and free of path separators.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(strings.TrimSuffix(name, ".json"))
	switch {
	case name == "":
		return "", ErrNameMissing
	case len([]rune(name)) > MaxNameLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLength)
	case strings.ContainsAny(name, "/\\\x00") || name == "." || name == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// List returns every profile name in name order.
func (s *Store) List(ctx context.Context) (names []string, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, s.logger, "profile rows")

	names = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Save creates or replaces the profile called name.
func (s *Store) Save(ctx context.Context, name string, cfg models.ActiveConfig) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO profiles (name, data, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3))
	if _, err := s.db.ExecContext(ctx, query, name, string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("saving profile %q: %w", name, err)
	}
	logging.LogOperation(s.logger, "profile_saved", slog.String("name", name))
	return nil
}

// Load returns the configuration stored as name.
func (s *Store) Load(ctx context.Context, name string) (models.ActiveConfig, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return models.ActiveConfig{}, err
	}

	var data string
	query := fmt.Sprintf(`SELECT data FROM profiles WHERE name = %s`, s.placeholder(1))
	err = s.db.QueryRowContext(ctx, query, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ActiveConfig{}, ErrNotFound
	}
	if err != nil {
		return models.ActiveConfig{}, fmt.Errorf("loading profile %q: %w", name, err)
	}

	var cfg models.ActiveConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return models.ActiveConfig{}, fmt.Errorf("decoding profile %q: %w", name, err)
	}
	return cfg, nil
}

// Delete removes the profile called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM profiles WHERE name = %s`, s.placeholder(1))
	res, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("deleting profile %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	logging.LogOperation(s.logger, "profile_deleted", slog.String("name", name))
	return nil
}
