package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/database"
	"github.com/qualis-hq/backoffice/internal/status"
)

// Repository defines the data access contract for documents.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	ListByUser(ctx context.Context, userID string, filter status.Document) ([]Document, error)

	// UpdateStatus sets the status of a document owned by userID and returns
	// the previous value.
	UpdateStatus(ctx context.Context, userID, id string, to status.Document) (status.Document, error)

	// FolderOwned reports whether folderID exists and belongs to userID.
	FolderOwned(ctx context.Context, userID, folderID string) (bool, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a new document repository.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, folder_id, title, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.FolderID, d.Title, d.Description, string(d.Status), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// ListByUser returns the user's documents, newest first. An empty filter
// returns every status.
func (r *repository) ListByUser(ctx context.Context, userID string, filter status.Document) ([]Document, error) {
	query := `SELECT id, user_id, folder_id, title, description, status, created_at, updated_at
	          FROM documents WHERE user_id = ?`
	args := []any{userID}
	if filter != "" {
		query += ` AND status = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var d Document
		var folderID sql.NullString
		var st string
		if err := rows.Scan(&d.ID, &d.UserID, &folderID, &d.Title, &d.Description, &st, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if folderID.Valid {
			d.FolderID = &folderID.String
		}
		d.Status = status.Document(st)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}

func (r *repository) UpdateStatus(ctx context.Context, userID, id string, to status.Document) (status.Document, error) {
	var from string
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM documents WHERE id = ? AND user_id = ? FOR UPDATE`, id, userID,
		).Scan(&from)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFound("document not found")
		}
		if err != nil {
			return fmt.Errorf("locking document: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET status = ? WHERE id = ?`, string(to), id,
		); err != nil {
			return fmt.Errorf("updating document status: %w", err)
		}
		return nil
	})
	return status.Document(from), err
}

func (r *repository) FolderOwned(ctx context.Context, userID, folderID string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM folders WHERE id = ? AND user_id = ?)`, folderID, userID,
	).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking folder ownership: %w", err)
	}
	return ok, nil
}
