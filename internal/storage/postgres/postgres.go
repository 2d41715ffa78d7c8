// Package postgres persists ability overrides and archived combat audit logs
// in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/warchief/internal/config"
)

// LatestSchema is the highest migration version under migrations/.
const LatestSchema uint = 2

// ErrSchemaOutdated is returned when the database has not been migrated to LatestSchema.
var ErrSchemaOutdated = errors.New("database schema is outdated")

// Store owns the connection pool shared by the override and audit repositories.
type Store struct {
	pool      *pgxpool.Pool
	overrides *OverrideRepository
	audit     *AuditRepository
}

// Open connects to PostgreSQL and verifies the server answers.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Store or a non-nil error.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{
		pool:      pool,
		overrides: NewOverrideRepository(pool),
		audit:     NewAuditRepository(pool),
	}, nil
}

// Overrides returns the ability override repository.
func (s *Store) Overrides() *OverrideRepository { return s.overrides }

// Audit returns the combat audit repository.
func (s *Store) Audit() *AuditRepository { return s.audit }

// SchemaVersion reports the version recorded by golang-migrate and whether a
// migration was interrupted. An unmigrated database reports version 0.
func (s *Store) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := s.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, pgx.ErrNoRows) || isUndefinedTableError(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	return uint(version), dirty, nil
}

// RequireSchema fails unless the database is cleanly migrated to LatestSchema or later.
//
// Postcondition: Returns nil, or an error wrapping ErrSchemaOutdated.
func (s *Store) RequireSchema(ctx context.Context) error {
	version, dirty, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w: version %d is dirty", ErrSchemaOutdated, version)
	}
	if version < LatestSchema {
		return fmt.Errorf("%w: at version %d, want %d", ErrSchemaOutdated, version, LatestSchema)
	}
	return nil
}

// Health checks that the database is reachable within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Close releases all pool resources.
func (s *Store) Close() {
	s.pool.Close()
}

// DB returns the underlying pool.
func (s *Store) DB() *pgxpool.Pool {
	return s.pool
}
