package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	accounts map[string]Account
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]Account), nextID: 1}
}

func (f *fakeStore) CreateAccount(ctx context.Context, displayName, email, passwordHash string) (Account, error) {
	a := Account{ID: f.nextID, DisplayName: displayName, Email: email, PasswordHash: passwordHash}
	f.nextID++
	f.accounts[email] = a
	return a, nil
}

func (f *fakeStore) FindAccountByEmail(ctx context.Context, email string) (Account, bool, error) {
	a, ok := f.accounts[email]
	return a, ok, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(newFakeStore(), "test-secret", time.Hour)

	account, err := p.Register(ctx, "Demo User", "Demo@Example.com", "demo123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Email != "demo@example.com" {
		t.Fatalf("email should be normalized, got %q", account.Email)
	}
	if account.PasswordHash == "demo123" {
		t.Fatalf("password must not be stored as plaintext")
	}

	got, err := p.Authenticate(ctx, "demo@example.com", "demo123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != account.ID {
		t.Fatalf("expected user id %d, got %d", account.ID, got.ID)
	}

	if _, err := p.Authenticate(ctx, "demo@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := p.Authenticate(ctx, "nobody@example.com", "demo123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(newFakeStore(), "test-secret", time.Hour)

	if _, err := p.Register(ctx, "First", "user@example.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := p.Register(ctx, "Second", "USER@example.com", "secret2"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(newFakeStore(), "test-secret", time.Hour)

	cases := []struct{ name, email, password string }{
		{"Demo", "not-an-email", "demo123"},
		{"Demo", "demo@example.com", "short"},
		{"  ", "demo@example.com", "demo123"},
	}
	for i, tc := range cases {
		if _, err := p.Register(ctx, tc.name, tc.email, tc.password); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	p := NewProvider(newFakeStore(), "test-secret", time.Hour)
	account := Account{ID: 42}

	token, err := p.IssueToken(account)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := p.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user id 42, got %d", userID)
	}
}

func TestVerifyTokenRejectsForgeries(t *testing.T) {
	p := NewProvider(newFakeStore(), "test-secret", time.Hour)
	other := NewProvider(newFakeStore(), "other-secret", time.Hour)

	token, err := other.IssueToken(Account{ID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := p.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := p.VerifyToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	p := NewProvider(newFakeStore(), "test-secret", -time.Minute)
	token, err := p.IssueToken(Account{ID: 7})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := p.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
