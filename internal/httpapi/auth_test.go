package httpapi

import (
	"context"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
)

const testSecret = "test-secret-key-that-is-at-least-32-chars"

type userStoreStub struct {
	mu    sync.Mutex
	users map[string]domain.UserAccount
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	if _, exists := s.users[user.Email]; exists {
		return store.ErrConflict
	}
	if user.UID == "" {
		user.UID = "usr-" + user.Email
	}
	s.users[user.Email] = user
	return nil
}

func (s *userStoreStub) GetUserByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginIssuesTokenWithIdentityClaims(t *testing.T) {
	users := &userStoreStub{users: map[string]domain.UserAccount{
		"sari@warung.id": {UID: "usr-sari", Email: "sari@warung.id", Name: "Sari", PasswordHash: mustHashPassword(t, "rahasia123"), Active: true},
	}}
	auth := NewAuthManager(testSecret, time.Hour, users)

	resp, err := auth.Login(context.Background(), domain.LoginRequest{Email: " Sari@Warung.id ", Password: "rahasia123"})
	require.NoError(t, err)
	assert.Equal(t, "usr-sari", resp.UID)
	assert.Equal(t, "Sari", resp.Name)
	assert.NotEmpty(t, resp.ExpiresAt)

	identity, err := auth.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UID: "usr-sari", Email: "sari@warung.id", Name: "Sari"}, identity)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := &userStoreStub{users: map[string]domain.UserAccount{
		"sari@warung.id":  {UID: "usr-sari", Email: "sari@warung.id", PasswordHash: mustHashPassword(t, "rahasia123"), Active: true},
		"budi@warung.id":  {UID: "usr-budi", Email: "budi@warung.id", PasswordHash: mustHashPassword(t, "rahasia123"), Active: false},
		"plain@warung.id": {UID: "usr-plain", Email: "plain@warung.id", PasswordHash: "rahasia123", Active: true},
	}}
	auth := NewAuthManager(testSecret, time.Hour, users)
	ctx := context.Background()

	_, err := auth.Login(ctx, domain.LoginRequest{Email: "sari@warung.id", Password: "salah"})
	assert.ErrorIs(t, err, errInvalidCredentials)

	_, err = auth.Login(ctx, domain.LoginRequest{Email: "nobody@warung.id", Password: "rahasia123"})
	assert.ErrorIs(t, err, errInvalidCredentials)

	_, err = auth.Login(ctx, domain.LoginRequest{Email: "plain@warung.id", Password: "rahasia123"})
	assert.ErrorIs(t, err, errInvalidCredentials, "unhashed passwords never match")

	_, err = auth.Login(ctx, domain.LoginRequest{Email: "budi@warung.id", Password: "rahasia123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inactive")
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	users := &userStoreStub{}
	auth := NewAuthManager(testSecret, time.Hour, users)

	other := NewAuthManager("another-secret-key-that-is-at-least-32", time.Hour, users)
	foreign, err := other.sign(domain.UserAccount{UID: "usr-x"}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = auth.ParseToken(foreign)
	assert.Error(t, err)

	expired, err := auth.sign(domain.UserAccount{UID: "usr-x"}, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = auth.ParseToken(expired)
	assert.Error(t, err)

	none := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.RegisteredClaims{Subject: "usr-x", Issuer: "warungkas"})
	unsigned, err := none.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ParseToken(unsigned)
	assert.Error(t, err)
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	users := &userStoreStub{}
	auth := NewAuthManager(testSecret, time.Hour, users)
	ctx := context.Background()

	created, err := auth.EnsureUser(ctx, "Owner@Warung.id", "Owner", "owner12345")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = auth.EnsureUser(ctx, "owner@warung.id", "Owner", "owner12345")
	require.NoError(t, err)
	assert.False(t, created)

	user, err := users.GetUserByEmail(ctx, "owner@warung.id")
	require.NoError(t, err)
	assert.True(t, isPasswordHash(user.PasswordHash))
	assert.True(t, verifyPassword(user.PasswordHash, "owner12345"))

	_, err = auth.EnsureUser(ctx, "short@warung.id", "Short", "123")
	assert.Error(t, err)
}
