// Package database owns the MariaDB and Redis connections, schema
// migrations, and the transaction and duplicate-key helpers the repositories
// share.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registers the "mysql" driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/qualis-hq/backoffice/internal/config"
)

const (
	pingTimeout = 5 * time.Second
	maxBackoff  = 30 * time.Second
)

// NewMariaDB opens the pool and waits until the server answers. The API
// container usually starts before the database is ready, so the ping is
// retried cfg.ConnectAttempts times with doubling backoff.
func NewMariaDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitForDB(ctx, db, cfg.ConnectAttempts, time.Second); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// waitForDB pings db until it answers, attempts run out, or ctx ends.
func waitForDB(ctx context.Context, db *sql.DB, attempts int, backoff time.Duration) error {
	attempts = max(attempts, 1)

	var pingErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		pingErr = db.PingContext(pingCtx)
		cancel()
		if pingErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		slog.Warn("mariadb not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Int("attempts", attempts),
			slog.Duration("backoff", backoff),
			slog.Any("error", pingErr),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for mariadb: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	return fmt.Errorf("pinging mariadb after %d attempts: %w", attempts, pingErr)
}
