package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/droidseed/droidseed/pkg/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	_ Store          = (*SQLiteStore)(nil)
	_ engine.History = (*SQLiteStore)(nil)
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
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

	// Foreign keys are a connection-level setting and the cascade deletes
	// depend on them.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
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

// RecordRun persists a finished run report: the run row, one domain pass
// row per attempted domain, and an item error row per recorded failure.
// The whole report is written in a single transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, report *engine.RunReport) error {
	if report == nil {
		return fmt.Errorf("run report is nil")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var preflight *string
	if report.PreflightError != "" {
		preflight = &report.PreflightError
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, overall, preflight_error, started_at, completed_at, items_written, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		report.Source,
		string(report.Overall),
		preflight,
		report.StartedAt,
		report.CompletedAt,
		report.ItemsWritten(),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for position, outcome := range report.Outcomes {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO domain_passes (run_id, position, domain, status, items_written, items_total, cleared, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			report.RunID,
			position,
			string(outcome.Domain),
			string(outcome.Status),
			outcome.ItemsWritten,
			outcome.ItemsTotal,
			outcome.Cleared,
			outcome.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert domain pass for %s: %w", outcome.Domain, err)
		}

		passID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get domain pass id: %w", err)
		}

		for _, itemErr := range outcome.Errors {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO item_errors (domain_pass_id, item_index, op, cause)
				VALUES (?, ?, ?, ?)
			`,
				passID,
				itemErr.Index,
				itemErr.Op,
				itemErr.Cause,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item error: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run report: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, source, overall, preflight_error, started_at, completed_at, items_written, created_at
		FROM runs
		WHERE id = ?
	`

	run := &Run{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Source,
		&run.Overall,
		&run.PreflightError,
		&run.StartedAt,
		&run.CompletedAt,
		&run.ItemsWritten,
		&run.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRuns lists runs newest first, with pagination
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	query := `
		SELECT id, source, overall, preflight_error, started_at, completed_at, items_written, created_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(
			&run.ID,
			&run.Source,
			&run.Overall,
			&run.PreflightError,
			&run.StartedAt,
			&run.CompletedAt,
			&run.ItemsWritten,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a run and, through the schema's cascade rules, its
// domain passes and item errors.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	query := `DELETE FROM runs WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// ListDomainPasses lists all domain passes for a run in application order
func (s *SQLiteStore) ListDomainPasses(ctx context.Context, runID string) ([]*DomainPass, error) {
	query := `
		SELECT id, run_id, position, domain, status, items_written, items_total, cleared, duration_ms
		FROM domain_passes
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list domain passes: %w", err)
	}
	defer rows.Close()

	passes := []*DomainPass{}
	for rows.Next() {
		pass := &DomainPass{}
		err := rows.Scan(
			&pass.ID,
			&pass.RunID,
			&pass.Position,
			&pass.Domain,
			&pass.Status,
			&pass.ItemsWritten,
			&pass.ItemsTotal,
			&pass.Cleared,
			&pass.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan domain pass: %w", err)
		}
		passes = append(passes, pass)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domain passes: %w", err)
	}

	return passes, nil
}

// ListItemErrors lists the recorded failures for a domain pass
func (s *SQLiteStore) ListItemErrors(ctx context.Context, domainPassID int64) ([]*ItemError, error) {
	query := `
		SELECT id, domain_pass_id, item_index, op, cause
		FROM item_errors
		WHERE domain_pass_id = ?
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, domainPassID)
	if err != nil {
		return nil, fmt.Errorf("failed to list item errors: %w", err)
	}
	defer rows.Close()

	itemErrors := []*ItemError{}
	for rows.Next() {
		ie := &ItemError{}
		err := rows.Scan(
			&ie.ID,
			&ie.DomainPassID,
			&ie.ItemIndex,
			&ie.Op,
			&ie.Cause,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item error: %w", err)
		}
		itemErrors = append(itemErrors, ie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item errors: %w", err)
	}

	return itemErrors, nil
}

// HealthCheck verifies the database connection is alive
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
