// Package auth provides stateless bearer-token issuance and verification
// plus the registration and login flows built on top of it.
//
// Tokens are HS256-signed JWTs carrying the user's ID and an expiration
// 24 hours after issuance. Nothing is persisted: verification is a pure
// signature check plus one record store lookup to resolve the subject.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthenticated is returned when a token is absent, malformed,
	// tampered with, signed with a different secret, or expired.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnknownUser is returned when a token verifies but its subject no
	// longer resolves in the record store.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInvalidCredentials is returned on login with a wrong password or
	// nonexistent username.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DefaultTokenTTL is the token lifetime unless overridden.
const DefaultTokenTTL = 24 * time.Hour

type tokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens and handles account flows.
type Service struct {
	store  database.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL overrides the default 24-hour token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock injects a clock, used by tests to cross the expiration instant.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an auth service signing with the given shared secret.
func NewService(store database.Store, secret string, opts ...Option) *Service {
	s := &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueToken encodes the user's ID and an expiration instant into a signed
// token. Pure function of (user, now, secret); no side effects.
func (s *Service) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and verifies a token and resolves its subject in the
// record store. Only HMAC signatures are accepted; anything else is
// rejected as unauthenticated.
func (s *Service) VerifyToken(ctx context.Context, tokenStr string) (int64, error) {
	if tokenStr == "" {
		return 0, ErrUnauthenticated
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, ErrUnauthenticated
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, ErrUnknownUser
		}
		return 0, fmt.Errorf("resolve token subject: %w", err)
	}
	return user.ID, nil
}

// Register creates a new account. Duplicate usernames and emails surface
// as the store's sentinel errors.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// Login checks credentials and returns the user with a freshly issued
// token. A missing user and a wrong password are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
