package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository defines the data access contract for the events table.
type Repository interface {
	// Log inserts an entry and sets its ID.
	Log(ctx context.Context, entry *Entry) error

	// ListByUser returns a user's entries, most recent first, with the total
	// count for pagination.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Entry, int, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a new repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Log serializes Details to JSON; nil details are stored as SQL NULL.
func (r *repository) Log(ctx context.Context, entry *Entry) error {
	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling event details: %w", err)
		}
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO events (user_id, kind, subject_id, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.Kind, entry.SubjectID, detailsJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting event id: %w", err)
	}
	entry.ID = id
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting events: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, subject_id, details, created_at
		 FROM events
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var detailsJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.SubjectID, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning event: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &e.Details); err != nil {
				// Non-fatal: keep the row in the feed.
				e.Details = map[string]any{"_parse_error": "invalid JSON"}
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating events: %w", err)
	}

	return entries, total, nil
}
