package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
)

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)

	user := registerJane(t, svc)

	if user.Username != "jane.doe" {
		t.Errorf("expected username jane.doe, got %s", user.Username)
	}
	if !user.FirstConnection {
		t.Error("new accounts start with first_connection set")
	}
	if user.ID == "" {
		t.Error("expected user ID to be generated")
	}
}

func TestRegister_SuffixesCollidingUsernames(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)
	ctx := context.Background()

	names := []string{}
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u, err := svc.Register(ctx, RegisterInput{
			FirstName: "Jane", LastName: "Doe", Email: email, Password: validPassword,
		})
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		names = append(names, u.Username)
	}

	want := []string{"jane.doe", "jane.doe-1", "jane.doe-2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("registration %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)
	registerJane(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Other", LastName: "Person", Email: "  JANE@example.com ", Password: validPassword,
	})
	assertAppError(t, err, 409)
}

func TestRegister_PasswordPolicy(t *testing.T) {
	svc, _ := newTestAuthService(newMemStore(), nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "short",
	})
	assertAppError(t, err, 400)
	if !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength in chain, got %v", err)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc, _ := newTestAuthService(newMemStore(), nil)
	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "not-an-email", Password: validPassword,
	})
	assertAppError(t, err, 400)
}

func TestRegister_RetriesAfterUsernameRace(t *testing.T) {
	store := newMemStore()
	store.createErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jane.doe' for key 'uq_users_username'"}
	svc, _ := newTestAuthService(store, nil)

	// The racing row was never stored, so the retry allocates jane.doe again.
	user := registerJane(t, svc)
	if user.Username != "jane.doe" {
		t.Errorf("expected jane.doe after retry, got %s", user.Username)
	}
}

func TestRegister_EmailRaceIsConflict(t *testing.T) {
	store := newMemStore()
	store.createErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jane@example.com' for key 'uq_users_email'"}
	svc, _ := newTestAuthService(store, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: validPassword,
	})
	assertAppError(t, err, 409)
}

func TestRegister_CreateError(t *testing.T) {
	store := newMemStore()
	store.createErr = errors.New("db write error")
	svc, _ := newTestAuthService(store, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: validPassword,
	})
	assertAppError(t, err, 500)
}

// --- Login / Token Tests ---

func TestLogin_IssuesIndependentTokens(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)
	registerJane(t, svc)
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: validPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	second, err := svc.Login(ctx, LoginInput{Email: "Jane@Example.com", Password: validPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if first.Token == second.Token {
		t.Fatal("each login must issue a new token")
	}
	if len(first.Token) != 24 {
		t.Errorf("expected 24-char base64 token, got %q", first.Token)
	}
	if !first.FirstConnection {
		t.Error("login should report first connection")
	}

	// Both tokens stay valid: multi-device login.
	for _, tok := range []string{first.Token, second.Token} {
		p, err := svc.ValidateToken(ctx, tok)
		if err != nil {
			t.Fatalf("ValidateToken: %v", err)
		}
		if p.Kind != OwnerUser || p.OwnerID != first.OwnerID {
			t.Errorf("unexpected principal %+v", p)
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)
	registerJane(t, svc)

	_, err := svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "Wrong-pass1"})
	assertAppError(t, err, 401)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(newMemStore(), nil)
	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: validPassword})
	assertAppError(t, err, 401)
}

func TestLogout_RevokesOnlyThatToken(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)
	registerJane(t, svc)
	ctx := context.Background()

	a, _ := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: validPassword})
	b, _ := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: validPassword})

	if err := svc.Logout(ctx, a.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err := svc.ValidateToken(ctx, a.Token)
	assertAppError(t, err, 401)
	if _, err := svc.ValidateToken(ctx, b.Token); err != nil {
		t.Errorf("other token should survive logout: %v", err)
	}
}

func TestValidateToken_Empty(t *testing.T) {
	svc, _ := newTestAuthService(newMemStore(), nil)
	_, err := svc.ValidateToken(context.Background(), "")
	assertAppError(t, err, 401)
}

// --- Username Regeneration Tests ---

func TestRegenerateUsername_KeepsOwnUsername(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)
	jane := registerJane(t, svc)

	got, err := svc.RegenerateUsername(context.Background(), jane.ID, RenameRequest{})
	if err != nil {
		t.Fatalf("RegenerateUsername: %v", err)
	}
	if got.Username != "jane.doe" {
		t.Errorf("unchanged name should keep jane.doe, got %s", got.Username)
	}
}

func TestRegenerateUsername_NewName(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestAuthService(store, nil)
	ctx := context.Background()
	jane := registerJane(t, svc)

	// Someone already owns jane.smith.
	if _, err := svc.Register(ctx, RegisterInput{
		FirstName: "Jane", LastName: "Smith", Email: "smith@example.com", Password: validPassword,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.RegenerateUsername(ctx, jane.ID, RenameRequest{LastName: "Smith"})
	if err != nil {
		t.Fatalf("RegenerateUsername: %v", err)
	}
	if got.Username != "jane.smith-1" {
		t.Errorf("expected jane.smith-1, got %s", got.Username)
	}
	if stored := store.user(jane.ID); stored.LastName != "Smith" || stored.Username != "jane.smith-1" {
		t.Errorf("store not updated: %+v", stored)
	}
}

func TestRegenerateUsername_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(newMemStore(), nil)
	_, err := svc.RegenerateUsername(context.Background(), "missing", RenameRequest{})
	assertAppError(t, err, 404)
}

// --- Admin Tests ---

func TestCreateAdmin_SeparateUsernameSpace(t *testing.T) {
	store := newMemStore()
	var created *AdminUser
	admins := &mockAdminRepo{
		createFn: func(ctx context.Context, a *AdminUser) error {
			created = a
			return nil
		},
	}
	svc, _ := newTestAuthService(store, admins)
	registerJane(t, svc) // jane.doe is taken among customers only

	admin, err := svc.CreateAdmin(context.Background(), RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: validPassword,
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.Username != "jane.doe" || created == nil || created.Username != "jane.doe" {
		t.Errorf("admin usernames must not collide with customer usernames, got %+v", admin)
	}
}

func TestCreateAdmin_DuplicateEmail(t *testing.T) {
	admins := &mockAdminRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) { return true, nil },
	}
	svc, _ := newTestAuthService(newMemStore(), admins)
	_, err := svc.CreateAdmin(context.Background(), RegisterInput{
		FirstName: "A", LastName: "B", Email: "ops@example.com", Password: validPassword,
	})
	assertAppError(t, err, 409)
}

func TestAdminLogin(t *testing.T) {
	hash, err := hashPassword(validPassword)
	if err != nil {
		t.Fatal(err)
	}
	admins := &mockAdminRepo{
		findByEmailFn: func(ctx context.Context, email string) (*AdminUser, error) {
			return &AdminUser{ID: "admin-1", Email: email, Username: "ops.lead", PasswordHash: hash}, nil
		},
	}
	svc, _ := newTestAuthService(newMemStore(), admins)
	ctx := context.Background()

	res, err := svc.AdminLogin(ctx, LoginInput{Email: "ops@example.com", Password: validPassword})
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	p, err := svc.ValidateToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !p.IsAdmin() {
		t.Errorf("expected admin principal, got %+v", p)
	}

	_, err = svc.AdminLogin(ctx, LoginInput{Email: "ops@example.com", Password: "Nope-nope1"})
	assertAppError(t, err, 401)
}

func TestAdminBootstrapOpen(t *testing.T) {
	count := 0
	admins := &mockAdminRepo{countFn: func(ctx context.Context) (int, error) { return count, nil }}
	svc, _ := newTestAuthService(newMemStore(), admins)

	open, err := svc.AdminBootstrapOpen(context.Background())
	if err != nil || !open {
		t.Fatalf("expected bootstrap open with no admins, got %v, %v", open, err)
	}
	count = 1
	open, _ = svc.AdminBootstrapOpen(context.Background())
	if open {
		t.Error("bootstrap must close once an admin exists")
	}
}

// --- Password Hashing Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword(validPassword)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if !verifyPassword(validPassword, hash) {
		t.Error("expected correct password to verify")
	}
	if verifyPassword("wrong-password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty string", ""},
		{"random text", "not-a-hash"},
		{"too few parts", "$argon2id$v=19$m=65536"},
		{"corrupted salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!invalid$aGFzaA"},
		{"corrupted hash", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifyPassword("password", tt.hash) {
				t.Error("expected invalid hash to fail verification")
			}
		})
	}
}
