package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/database"
	"github.com/qualis-hq/backoffice/internal/events"
	"github.com/qualis-hq/backoffice/internal/metrics"
	"github.com/qualis-hq/backoffice/internal/username"
)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	GetUser(ctx context.Context, id string) (*User, error)
	RegenerateUsername(ctx context.Context, userID string, req RenameRequest) (*User, error)

	CreateAdmin(ctx context.Context, input RegisterInput) (*AdminUser, error)
	AdminLogin(ctx context.Context, input LoginInput) (*LoginResult, error)
	AdminBootstrapOpen(ctx context.Context) (bool, error)

	ValidateToken(ctx context.Context, token string) (*Principal, error)
	Logout(ctx context.Context, token string) error

	RequestPasswordReset(ctx context.Context, email string) (*ResetToken, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// authService implements AuthService.
type authService struct {
	users    UserRepository
	admins   AdminRepository
	tokens   TokenRepository
	cache    TokenCache
	recorder events.Recorder
	metrics  *metrics.Collector
	resetTTL time.Duration

	nowFn  func() time.Time
	random io.Reader
}

// NewAuthService creates a new auth service. cache may be nil when Redis is
// disabled.
func NewAuthService(
	users UserRepository,
	admins AdminRepository,
	tokens TokenRepository,
	cache TokenCache,
	recorder events.Recorder,
	collector *metrics.Collector,
	resetTTL time.Duration,
) AuthService {
	if cache == nil {
		cache = noopTokenCache{}
	}
	if recorder == nil {
		recorder = events.NopRecorder{}
	}
	return &authService{
		users:    users,
		admins:   admins,
		tokens:   tokens,
		cache:    cache,
		recorder: recorder,
		metrics:  collector,
		resetTTL: resetTTL,
		nowFn:    func() time.Time { return time.Now().UTC() },
		random:   rand.Reader,
	}
}

// normalizeRegistration trims names, lower-cases the email, and enforces the
// password policy before any database work.
func normalizeRegistration(input RegisterInput) (RegisterInput, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = normalizeEmail(input.Email)

	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return input, apperror.NewBadRequest("a valid email is required")
	}
	if err := ValidatePassword(input.Password); err != nil {
		return input, apperror.NewBadRequest(err.Error()).WithInternal(err)
	}
	return input, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// countingExists wraps a username lookup so every probe is counted.
func (s *authService) countingExists(table string, fn username.ExistsFunc) username.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		s.metrics.RecordUsernameProbe(table)
		return fn(ctx, candidate)
	}
}

// duplicateOn returns the retry predicate for username.CreateWithRetry and
// counts each lost race.
func (s *authService) duplicateOn(index string) func(error) bool {
	return func(err error) bool {
		if database.IsDuplicateKeyOn(err, index) {
			s.metrics.RecordAllocationConflict("username")
			return true
		}
		return false
	}
}

// Register creates a customer account. The username is derived from the
// person's name and made unique within the users table.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input, err := normalizeRegistration(input)
	if err != nil {
		return nil, err
	}

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:              uuid.NewString(),
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		PasswordHash:    hash,
		FirstConnection: true,
		CreatedAt:       s.nowFn(),
	}

	_, err = username.CreateWithRetry(ctx, user.FirstName, user.LastName,
		s.countingExists("users", s.users.UsernameExists),
		func(ctx context.Context, name string) error {
			user.Username = name
			return s.users.Create(ctx, user)
		},
		s.duplicateOn(idxUsersUsername),
	)
	if err != nil {
		return nil, mapCreateError(err, idxUsersEmail, "creating user")
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	s.recorder.Record(ctx, user.ID, events.KindUserRegistered, user.ID,
		map[string]any{"username": user.Username})

	return user, nil
}

// mapCreateError turns an account insert failure into an AppError.
func mapCreateError(err error, emailIndex, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if database.IsDuplicateKeyOn(err, emailIndex) {
		return apperror.NewConflict("an account with this email already exists")
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}

// Login authenticates a customer by email and password and issues a new auth
// token. Earlier tokens stay valid.
func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		// Don't reveal whether the email exists -- use generic message.
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid email or password")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	token, err := s.issueToken(ctx, user.ID, OwnerUser)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{
		Token:           token,
		OwnerID:         user.ID,
		Username:        user.Username,
		FirstConnection: user.FirstConnection,
	}, nil
}

// GetUser returns a customer account by ID.
func (s *authService) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	return user, nil
}

// RegenerateUsername runs the allocator again for an existing user,
// optionally with new names. The user's current username counts as free so
// an unchanged name keeps its username.
func (s *authService) RegenerateUsername(ctx context.Context, userID string, req RenameRequest) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	first, last := user.FirstName, user.LastName
	if v := strings.TrimSpace(req.FirstName); v != "" {
		first = v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		last = v
	}

	current := user.Username
	exists := s.countingExists("users", func(ctx context.Context, candidate string) (bool, error) {
		if candidate == current {
			return false, nil
		}
		return s.users.UsernameExists(ctx, candidate)
	})

	name, err := username.CreateWithRetry(ctx, first, last, exists,
		func(ctx context.Context, name string) error {
			return s.users.UpdateUsername(ctx, user.ID, first, last, name)
		},
		s.duplicateOn(idxUsersUsername),
	)
	if err != nil {
		return nil, mapCreateError(err, idxUsersEmail, "updating username")
	}

	old := user.Username
	user.FirstName, user.LastName, user.Username = first, last, name

	slog.Info("username regenerated",
		slog.String("user_id", user.ID),
		slog.String("old", old),
		slog.String("new", name),
	)
	s.recorder.Record(ctx, user.ID, events.KindUsernameRegenerated, user.ID,
		map[string]any{"old": old, "new": name})

	return user, nil
}

// CreateAdmin creates a back-office operator. Admin usernames are allocated
// in the admin_users table, independently of customer usernames.
func (s *authService) CreateAdmin(ctx context.Context, input RegisterInput) (*AdminUser, error) {
	input, err := normalizeRegistration(input)
	if err != nil {
		return nil, err
	}

	exists, err := s.admins.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking admin email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an admin with this email already exists")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	admin := &AdminUser{
		ID:           uuid.NewString(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    s.nowFn(),
	}

	_, err = username.CreateWithRetry(ctx, admin.FirstName, admin.LastName,
		s.countingExists("admin_users", s.admins.UsernameExists),
		func(ctx context.Context, name string) error {
			admin.Username = name
			return s.admins.Create(ctx, admin)
		},
		s.duplicateOn(idxAdminUsersUsername),
	)
	if err != nil {
		return nil, mapCreateError(err, idxAdminUsersEmail, "creating admin user")
	}

	slog.Info("admin user created",
		slog.String("admin_id", admin.ID),
		slog.String("username", admin.Username),
	)
	s.recorder.Record(ctx, admin.ID, events.KindAdminCreated, admin.ID,
		map[string]any{"username": admin.Username})

	return admin, nil
}

// AdminLogin authenticates an admin user.
func (s *authService) AdminLogin(ctx context.Context, input LoginInput) (*LoginResult, error) {
	admin, err := s.admins.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid email or password")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding admin: %w", err))
	}
	if !verifyPassword(input.Password, admin.PasswordHash) {
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	token, err := s.issueToken(ctx, admin.ID, OwnerAdmin)
	if err != nil {
		return nil, err
	}

	slog.Info("admin logged in", slog.String("admin_id", admin.ID))

	return &LoginResult{Token: token, OwnerID: admin.ID, Username: admin.Username}, nil
}

// AdminBootstrapOpen reports whether no admin exists yet, in which case the
// first admin may be created without a token.
func (s *authService) AdminBootstrapOpen(ctx context.Context) (bool, error) {
	n, err := s.admins.Count(ctx)
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("counting admins: %w", err))
	}
	return n == 0, nil
}

// issueToken generates and stores a new auth token.
func (s *authService) issueToken(ctx context.Context, ownerID string, kind OwnerKind) (string, error) {
	value, err := newToken(s.random)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("generating auth token: %w", err))
	}

	t := &AuthToken{Value: value, OwnerID: ownerID, Kind: kind, CreatedAt: s.nowFn()}
	if err := s.tokens.CreateAuthToken(ctx, t); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("storing auth token: %w", err))
	}
	return value, nil
}

// ValidateToken resolves a bearer token to its principal, consulting the
// cache before the database. Cache failures fall back to the database.
func (s *authService) ValidateToken(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("authentication required")
	}

	p, err := s.cache.Get(ctx, token)
	if err != nil {
		slog.Warn("token cache read failed", slog.Any("error", err))
	}
	if p != nil {
		return p, nil
	}

	t, err := s.tokens.FindAuthToken(ctx, token)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid or revoked token")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding auth token: %w", err))
	}

	p = &Principal{OwnerID: t.OwnerID, Kind: t.Kind}
	if err := s.cache.Set(ctx, token, p); err != nil {
		slog.Warn("token cache write failed", slog.Any("error", err))
	}
	return p, nil
}

// Logout revokes a token in the database and evicts it from the cache.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.DeleteAuthToken(ctx, token); err != nil {
		return apperror.NewInternal(fmt.Errorf("revoking auth token: %w", err))
	}
	if err := s.cache.Delete(ctx, token); err != nil {
		return apperror.NewInternal(fmt.Errorf("evicting auth token: %w", err))
	}
	return nil
}
