package pendingusers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/database"
	"github.com/qualis-hq/backoffice/internal/status"
)

// Repository defines the data access contract for sign-up requests.
type Repository interface {
	Create(ctx context.Context, p *PendingUser) error
	List(ctx context.Context, filter status.PendingUser) ([]PendingUser, error)
	UpdateStatus(ctx context.Context, id string, to status.PendingUser) (status.PendingUser, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a new pending-user repository.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *PendingUser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pending_users (id, first_name, last_name, email, company, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Company, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting pending user: %w", err)
	}
	return nil
}

// List returns requests oldest first so reviewers work in arrival order.
func (r *repository) List(ctx context.Context, filter status.PendingUser) ([]PendingUser, error) {
	query := `SELECT id, first_name, last_name, email, company, status, created_at, updated_at FROM pending_users`
	var args []any
	if filter != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pending users: %w", err)
	}
	defer rows.Close()

	out := []PendingUser{}
	for rows.Next() {
		var p PendingUser
		var st string
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Company, &st, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning pending user: %w", err)
		}
		p.Status = status.PendingUser(st)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending users: %w", err)
	}
	return out, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, to status.PendingUser) (status.PendingUser, error) {
	var from string
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM pending_users WHERE id = ? FOR UPDATE`, id,
		).Scan(&from)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFound("pending user not found")
		}
		if err != nil {
			return fmt.Errorf("locking pending user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE pending_users SET status = ? WHERE id = ?`, string(to), id,
		); err != nil {
			return fmt.Errorf("updating pending user status: %w", err)
		}
		return nil
	})
	return status.PendingUser(from), err
}
