package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// Unique index names the service distinguishes on insert failure.
const (
	idxUsersUsername      = "uq_users_username"
	idxUsersEmail         = "uq_users_email"
	idxAdminUsersUsername = "uq_admin_users_username"
	idxAdminUsersEmail    = "uq_admin_users_email"
)

// UserRepository defines the data access contract for customer accounts.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUsername(ctx context.Context, id, firstName, lastName, username string) error
}

// AdminRepository defines the data access contract for admin accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *AdminUser) error
	FindByID(ctx context.Context, id string) (*AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row. Duplicate-key errors are returned wrapped so
// the caller can tell a username race from an email collision.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, first_name, last_name, username, email, password_hash, first_connection, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstConnection,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

const userColumns = `id, first_name, last_name, username, email, password_hash, first_connection, created_at`

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.FirstConnection, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during registration to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// UsernameExists is the username allocator's lookup for the users table.
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username existence: %w", err)
	}
	return exists, nil
}

// UpdateUsername stores a regenerated username together with the names it
// was derived from.
func (r *userRepository) UpdateUsername(ctx context.Context, id, firstName, lastName, username string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, username = ? WHERE id = ?`,
		firstName, lastName, username, id)
	if err != nil {
		return fmt.Errorf("updating username: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// adminRepository implements AdminRepository.
type adminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new admin repository backed by the given DB pool.
func NewAdminRepository(db *sql.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, a *AdminUser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (id, first_name, last_name, username, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FirstName, a.LastName, a.Username, a.Email, a.PasswordHash, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting admin user: %w", err)
	}
	return nil
}

const adminColumns = `id, first_name, last_name, username, email, password_hash, created_at`

func scanAdmin(row *sql.Row) (*AdminUser, error) {
	a := &AdminUser{}
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Username, &a.Email,
		&a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *adminRepository) FindByID(ctx context.Context, id string) (*AdminUser, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("admin user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin by id: %w", err)
	}
	return a, nil
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*AdminUser, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("admin user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin by email: %w", err)
	}
	return a, nil
}

func (r *adminRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM admin_users WHERE email = ?)`, email,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking admin email existence: %w", err)
	}
	return exists, nil
}

// UsernameExists is the username allocator's lookup for the admin_users table.
func (r *adminRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM admin_users WHERE username = ?)`, username,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking admin username existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of admin users. Zero means the next admin may be
// created without authentication.
func (r *adminRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting admin users: %w", err)
	}
	return n, nil
}
