// tavle/database/database.go
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tavle/utils"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseService is the central struct for all database operations.
type DatabaseService struct {
	DB     *sql.DB
	logger *slog.Logger
	dsn    string
}

const (
	pingAttempts = 3
	pingBackoff  = 100 * time.Millisecond
)

// InitDB connects to the database and runs schema setup and migrations.
func InitDB(dataSourceName string, logger *slog.Logger) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	// Run versioned migrations
	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	logger.Info("Database initialized", "dsn", dataSourceName)

	return &DatabaseService{
		DB:     db,
		logger: logger,
		dsn:    dataSourceName,
	}, nil
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version > latestVersion {
			logger.Info("Applying migration", "version", m.Version)
			tx, err := db.Begin()
			if err != nil {
				return err
			}

			if _, err := tx.Exec(m.Query); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetUnixTime()); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
			}
			logger.Info("Successfully applied migration", "version", m.Version)
		}
	}
	return nil
}

// ensureAlive probes the connection pool before a transaction is opened.
// database/sql re-establishes dead pooled connections on its own; a probe
// that still fails after retrying means the store is unreachable and every
// operation must report a database error rather than stall.
func (ds *DatabaseService) ensureAlive() *Error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = ds.DB.Ping(); err == nil {
			return nil
		}
		ds.logger.Warn("Database ping failed", "dsn", ds.dsn, "attempt", attempt, "error", err)
		if attempt < pingAttempts {
			time.Sleep(time.Duration(attempt) * pingBackoff)
		}
	}
	return databaseError("connection_failed", err)
}

// begin opens a transaction after verifying the connection is alive.
func (ds *DatabaseService) begin() (*sql.Tx, *Error) {
	if derr := ds.ensureAlive(); derr != nil {
		return nil, derr
	}
	tx, err := ds.DB.Begin()
	if err != nil {
		return nil, databaseError("begin_failed", err)
	}
	return tx, nil
}

// rollback discards tx, tolerating an already committed transaction.
func (ds *DatabaseService) rollback(tx *sql.Tx, op string) {
	if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
		ds.logger.Error("Failed to rollback transaction", "op", op, "error", rerr)
	}
}
