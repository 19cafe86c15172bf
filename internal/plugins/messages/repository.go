package messages

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// Repository defines the data access contract for messages.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	Inbox(ctx context.Context, recipientID string) ([]Message, error)

	// MarkRead sets read_at on a message addressed to recipientID. Reading
	// an already read message keeps the first timestamp.
	MarkRead(ctx context.Context, recipientID, id string, at time.Time) error

	UserExists(ctx context.Context, id string) (bool, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a new message repository.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, subject, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.RecipientID, m.Subject, m.Body, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func (r *repository) Inbox(ctx context.Context, recipientID string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, recipient_id, subject, body, read_at, created_at
		 FROM messages WHERE recipient_id = ? ORDER BY created_at DESC`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Body, &readAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, recipientID, id string, at time.Time) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE id = ? AND recipient_id = ?)`, id, recipientID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking message: %w", err)
	}
	if !exists {
		return apperror.NewNotFound("message not found")
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE messages SET read_at = ? WHERE id = ? AND read_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}
	return nil
}

func (r *repository) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return exists, nil
}
