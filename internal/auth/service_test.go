package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func storeWithUser(user *models.User) *database.MockStore {
	return &database.MockStore{
		GetUserByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			if user != nil && id == user.ID {
				return user, nil
			}
			return nil, database.ErrNotFound
		},
		GetUserByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			if user != nil && username == user.Username {
				return user, nil
			}
			return nil, database.ErrNotFound
		},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{ID: 42, Username: "alice"}
	svc := NewService(storeWithUser(user), "test-secret")

	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyToken_Expired(t *testing.T) {
	user := &models.User{ID: 42}
	now := time.Now()
	svc := NewService(storeWithUser(user), "test-secret", WithClock(func() time.Time { return now }))

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	// Still valid just before the expiration instant.
	now = now.Add(DefaultTokenTTL - time.Minute)
	_, err = svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)

	// Invalid once the expiration instant has passed.
	now = now.Add(2 * time.Minute)
	_, err = svc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyToken_Tampered(t *testing.T) {
	user := &models.User{ID: 42}
	svc := NewService(storeWithUser(user), "test-secret")

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	// Flip one byte in every segment of the token.
	for _, idx := range []int{5, len(token) / 2, len(token) - 2} {
		altered := []byte(token)
		if altered[idx] == 'a' {
			altered[idx] = 'b'
		} else {
			altered[idx] = 'a'
		}
		_, err := svc.VerifyToken(context.Background(), string(altered))
		assert.ErrorIs(t, err, ErrUnauthenticated, "byte %d", idx)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	user := &models.User{ID: 42}
	issuer := NewService(storeWithUser(user), "secret-one")
	verifier := NewService(storeWithUser(user), "secret-two")

	token, err := issuer.IssueToken(user)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyToken_RejectsUnsignedToken(t *testing.T) {
	user := &models.User{ID: 42}
	svc := NewService(storeWithUser(user), "test-secret")

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyToken_MalformedAndEmpty(t *testing.T) {
	svc := NewService(&database.MockStore{}, "test-secret")

	for _, tok := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 500)} {
		_, err := svc.VerifyToken(context.Background(), tok)
		assert.ErrorIs(t, err, ErrUnauthenticated, "token %q", tok)
	}
}

func TestVerifyToken_UnknownUser(t *testing.T) {
	user := &models.User{ID: 42}
	svc := NewService(storeWithUser(nil), "test-secret")

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestRegister_HashesPassword(t *testing.T) {
	var created *models.User
	store := &database.MockStore{
		CreateUserFunc: func(ctx context.Context, user *models.User) (int64, error) {
			created = user
			user.ID = 1
			return 1, nil
		},
	}
	svc := NewService(store, "test-secret")

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "password123", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))
}

func TestRegister_DuplicateSurfaces(t *testing.T) {
	store := &database.MockStore{
		CreateUserFunc: func(ctx context.Context, user *models.User) (int64, error) {
			return 0, database.ErrDuplicateUsername
		},
	}
	svc := NewService(store, "test-secret")

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	assert.ErrorIs(t, err, database.ErrDuplicateUsername)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: 7, Username: "alice", PasswordHash: string(hash)}
	svc := NewService(storeWithUser(user), "test-secret")

	got, token, err := svc.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)

	userID, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
