package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// memStore is an in-memory UserRepository and TokenRepository with the same
// uniqueness rules as the schema: one reset row per owner, unique usernames
// and emails.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*User
	authTokens  map[string]*AuthToken
	resetTokens map[string]*ResetToken // keyed by owner ID

	// createErr, when set, is returned by the next Create call and cleared.
	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*User{},
		authTokens:  map[string]*AuthToken{},
		resetTokens: map[string]*ResetToken{},
	}
}

func (m *memStore) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createErr; err != nil {
		m.createErr = nil
		return err
	}
	for _, other := range m.users {
		if other.Username == u.Username || other.Email == u.Email {
			return errors.New("duplicate")
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NewNotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *memStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *memStore) UsernameExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateUsername(_ context.Context, id, first, last, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	u.FirstName, u.LastName, u.Username = first, last, name
	return nil
}

func (m *memStore) CreateAuthToken(_ context.Context, t *AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.authTokens[t.Value] = &cp
	return nil
}

func (m *memStore) FindAuthToken(_ context.Context, value string) (*AuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.authTokens[value]
	if !ok {
		return nil, apperror.NewNotFound("auth token not found")
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) DeleteAuthToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.authTokens, value)
	return nil
}

func (m *memStore) UpsertResetToken(_ context.Context, rt *ResetToken) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.resetTokens[rt.OwnerID]
	if ok {
		rt.ID = existing.ID
	} else if rt.ID == "" {
		rt.ID = "reset-" + rt.OwnerID
	}
	cp := *rt
	m.resetTokens[rt.OwnerID] = &cp
	return ok, nil
}

func (m *memStore) FindResetToken(_ context.Context, token string) (*ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.resetTokens {
		if rt.Token == token {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("reset token not found")
}

func (m *memStore) CompleteReset(_ context.Context, token, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for owner, rt := range m.resetTokens {
		if rt.Token != token || !rt.ExpiresAt.After(now) {
			continue
		}
		u, ok := m.users[owner]
		if !ok {
			return apperror.NewNotFound("user not found")
		}
		u.PasswordHash = hash
		u.FirstConnection = false
		delete(m.resetTokens, owner)
		return nil
	}
	return apperror.NewNotFound("reset token not found")
}

func (m *memStore) resetRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resetTokens)
}

func (m *memStore) user(id string) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.users[id]
	return &cp
}

// --- Mock Admin Repository ---

// mockAdminRepo implements AdminRepository for testing.
type mockAdminRepo struct {
	createFn         func(ctx context.Context, a *AdminUser) error
	findByEmailFn    func(ctx context.Context, email string) (*AdminUser, error)
	emailExistsFn    func(ctx context.Context, email string) (bool, error)
	usernameExistsFn func(ctx context.Context, name string) (bool, error)
	countFn          func(ctx context.Context) (int, error)
}

func (m *mockAdminRepo) Create(ctx context.Context, a *AdminUser) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*AdminUser, error) {
	return nil, apperror.NewNotFound("admin user not found")
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*AdminUser, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("admin user not found")
}

func (m *mockAdminRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockAdminRepo) UsernameExists(ctx context.Context, name string) (bool, error) {
	if m.usernameExistsFn != nil {
		return m.usernameExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockAdminRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// --- Test Helpers ---

// testClock is a settable clock for expiry tests.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestAuthService wires an authService over the in-memory store with a
// fixed clock and a deterministic random source.
func newTestAuthService(store *memStore, admins *mockAdminRepo) (*authService, *testClock) {
	if admins == nil {
		admins = &mockAdminRepo{}
	}
	clock := &testClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	svc := NewAuthService(store, admins, store, nil, nil, nil, time.Hour).(*authService)
	svc.nowFn = clock.Now
	svc.random = &counterReader{}
	return svc, clock
}

// counterReader yields distinct bytes on every read so generated tokens differ.
type counterReader struct{ n byte }

func (r *counterReader) Read(p []byte) (int, error) {
	for i := range p {
		r.n++
		p[i] = r.n
	}
	return len(p), nil
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

const validPassword = "Sup3r-secret"

func registerJane(t *testing.T, svc *authService) *User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  validPassword,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", user.PasswordHash)
	}
	return user
}
