package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/sequence"
)

// Unique (user_id, sleeve, number) indexes.
const (
	idxFolderNumber  = "uq_folders_scope_number"
	idxProcessNumber = "uq_processes_scope_number"
)

// Repository defines the data access contract for folders and processes.
// Folders() and Processes() expose each table to the sequence allocator.
type Repository interface {
	Folders() sequence.Store
	Processes() sequence.Store

	CreateFolder(ctx context.Context, f *Folder) error
	FindFolder(ctx context.Context, id string) (*Folder, error)
	ListFolders(ctx context.Context, userID string, sleeve sequence.Category) ([]Folder, error)
	DeleteFolder(ctx context.Context, userID, id string) error

	CreateProcess(ctx context.Context, p *Process) error
	ListProcesses(ctx context.Context, userID string, sleeve sequence.Category) ([]Process, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a new records repository.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// numberStore implements sequence.Store over one numbered table. table is
// always one of the package constants, never user input.
type numberStore struct {
	db    *sql.DB
	table string
}

func (r *repository) Folders() sequence.Store   { return numberStore{db: r.db, table: "folders"} }
func (r *repository) Processes() sequence.Store { return numberStore{db: r.db, table: "processes"} }

func (s numberStore) NumberExists(ctx context.Context, scope sequence.Scope, number int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+s.table+` WHERE user_id = ? AND sleeve = ? AND number = ?)`,
		scope.OwnerID, string(scope.Category), number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking %s number: %w", s.table, err)
	}
	return exists, nil
}

func (s numberStore) MaxNumber(ctx context.Context, scope sequence.Scope) (int, bool, error) {
	var highest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(number) FROM `+s.table+` WHERE user_id = ? AND sleeve = ?`,
		scope.OwnerID, string(scope.Category),
	).Scan(&highest)
	if err != nil {
		return 0, false, fmt.Errorf("reading max %s number: %w", s.table, err)
	}
	return int(highest.Int64), highest.Valid, nil
}

func (r *repository) CreateFolder(ctx context.Context, f *Folder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO folders (id, user_id, sleeve, number, name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, string(f.Sleeve), f.Number, f.Name, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting folder: %w", err)
	}
	return nil
}

func (r *repository) FindFolder(ctx context.Context, id string) (*Folder, error) {
	f := &Folder{}
	var sleeve string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, sleeve, number, name, created_at FROM folders WHERE id = ?`, id,
	).Scan(&f.ID, &f.UserID, &sleeve, &f.Number, &f.Name, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("folder not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying folder: %w", err)
	}
	f.Sleeve = sequence.Category(sleeve)
	return f, nil
}

func (r *repository) ListFolders(ctx context.Context, userID string, sleeve sequence.Category) ([]Folder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, sleeve, number, name, created_at
		 FROM folders WHERE user_id = ? AND sleeve = ? ORDER BY number`,
		userID, string(sleeve))
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	defer rows.Close()

	out := []Folder{}
	for rows.Next() {
		var f Folder
		var s string
		if err := rows.Scan(&f.ID, &f.UserID, &s, &f.Number, &f.Name, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		f.Sleeve = sequence.Category(s)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folders: %w", err)
	}
	return out, nil
}

// DeleteFolder removes a folder owned by userID. Its number is not reused.
func (r *repository) DeleteFolder(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("folder not found")
	}
	return nil
}

func (r *repository) CreateProcess(ctx context.Context, p *Process) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processes (id, user_id, folder_id, sleeve, number, name, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.FolderID, string(p.Sleeve), p.Number, p.Name, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting process: %w", err)
	}
	return nil
}

func (r *repository) ListProcesses(ctx context.Context, userID string, sleeve sequence.Category) ([]Process, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, folder_id, sleeve, number, name, created_at
		 FROM processes WHERE user_id = ? AND sleeve = ? ORDER BY number`,
		userID, string(sleeve))
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	defer rows.Close()

	out := []Process{}
	for rows.Next() {
		var p Process
		var folderID sql.NullString
		var s string
		if err := rows.Scan(&p.ID, &p.UserID, &folderID, &s, &p.Number, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning process: %w", err)
		}
		if folderID.Valid {
			p.FolderID = &folderID.String
		}
		p.Sleeve = sequence.Category(s)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processes: %w", err)
	}
	return out, nil
}
