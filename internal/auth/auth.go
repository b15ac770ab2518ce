// Package auth implements the identity provider: credential verification with
// salted bcrypt hashes and stateless JWT session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
)

// Account is the identity view of a user; profile and entries live elsewhere.
type Account struct {
	ID           int64
	DisplayName  string
	Email        string
	PasswordHash string
}

// AccountStore is the persistence contract the provider needs. The found flag
// distinguishes absence from storage failure.
type AccountStore interface {
	CreateAccount(ctx context.Context, displayName, email, passwordHash string) (Account, error)
	FindAccountByEmail(ctx context.Context, email string) (Account, bool, error)
}

// Provider verifies credentials and issues session tokens.
type Provider struct {
	store    AccountStore
	secret   []byte
	tokenTTL time.Duration
}

func NewProvider(store AccountStore, secret string, tokenTTL time.Duration) *Provider {
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Provider{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates a new account with a bcrypt-hashed password. Emails are
// unique case-insensitively.
func (p *Provider) Register(ctx context.Context, displayName, email, password string) (Account, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, fmt.Errorf("invalid email address: %w", ErrInvalidCredentials)
	}
	if len(password) < 6 {
		return Account{}, fmt.Errorf("password too short: %w", ErrInvalidCredentials)
	}
	if strings.TrimSpace(displayName) == "" {
		return Account{}, fmt.Errorf("empty display name: %w", ErrInvalidCredentials)
	}

	if _, found, err := p.store.FindAccountByEmail(ctx, email); err != nil {
		return Account{}, fmt.Errorf("lookup email: %w", err)
	} else if found {
		return Account{}, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := p.store.CreateAccount(ctx, strings.TrimSpace(displayName), email, string(hash))
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account registered", "user_id", account.ID, "email", account.Email)
	return account, nil
}

// Authenticate verifies the credentials and returns the account. The error is
// the same for unknown email and wrong password.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (Account, error) {
	account, found, err := p.store.FindAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return Account{}, fmt.Errorf("lookup email: %w", err)
	}
	if !found {
		return Account{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}

	slog.InfoContext(ctx, "Account authenticated", "user_id", account.ID)
	return account, nil
}

// IssueToken creates a signed HS256 JWT carrying the user id as subject.
func (p *Provider) IssueToken(account Account) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(account.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a JWT and returns the user id it was issued for.
func (p *Provider) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
