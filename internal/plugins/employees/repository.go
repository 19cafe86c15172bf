package employees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// idxUsername is the unique index backing employee username allocation.
const idxUsername = "uq_employees_username"

// Repository defines the data access contract for employees.
type Repository interface {
	Create(ctx context.Context, e *Employee) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	ListByUser(ctx context.Context, userID string) ([]Employee, error)
	Delete(ctx context.Context, userID, id string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a new employee repository.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Employee) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employees (id, user_id, first_name, last_name, username, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.FirstName, e.LastName, e.Username, e.Email, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting employee: %w", err)
	}
	return nil
}

const columns = `id, user_id, first_name, last_name, username, email, created_at`

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	e := &Employee{}
	err := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM employees WHERE id = ?`, id).
		Scan(&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.Username, &e.Email, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("employee not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying employee: %w", err)
	}
	return e, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM employees WHERE user_id = ? ORDER BY last_name, first_name, username`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	list := []Employee{}
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.Username, &e.Email, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return list, nil
}

// Delete removes an employee owned by userID. Someone else's employee is
// reported as not found.
func (r *repository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("employee not found")
	}
	return nil
}

// UsernameExists is the username allocator's lookup for the employees table.
func (r *repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM employees WHERE username = ?)`, username,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking employee username existence: %w", err)
	}
	return exists, nil
}
