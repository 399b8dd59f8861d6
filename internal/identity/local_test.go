package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stuntcheck/internal/models"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]models.User{}}
}

func (m *memoryUsers) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return errors.New("UNIQUE constraint failed: users.email")
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *memoryUsers) UpdateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func newTestLocalProvider() *LocalProvider {
	p := NewLocalProvider(newMemoryUsers(), "test-secret", time.Hour)
	p.cost = bcrypt.MinCost
	return p
}

func TestLocalSignUpAndSignIn(t *testing.T) {
	p := newTestLocalProvider()
	ctx := context.Background()

	id, err := p.SignUp(ctx, SignUpParams{
		Email:    "Parent@Example.com",
		Password: "secret1",
		Metadata: map[string]any{"name": "Dewi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", id.Email)
	assert.Equal(t, "Dewi", id.Name())

	_, err = p.SignUp(ctx, SignUpParams{Email: "parent@example.com", Password: "other1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	session, signedIn, err := p.SignIn(ctx, "parent@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id.ID, signedIn.ID)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, 3600, session.ExpiresIn)

	verified, err := p.VerifyToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id.ID, verified.ID)

	_, _, err = p.SignIn(ctx, "parent@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalVerifyTokenRejects(t *testing.T) {
	p := newTestLocalProvider()
	ctx := context.Background()

	_, err := p.SignUp(ctx, SignUpParams{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	session, _, err := p.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := p.VerifyToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewLocalProvider(p.users, "another-secret", time.Hour)
		_, err := other.VerifyToken(ctx, session.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := *p
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.VerifyToken(ctx, session.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "deleted-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString(p.secret)
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLocalUpdateUser(t *testing.T) {
	p := newTestLocalProvider()
	ctx := context.Background()

	_, err := p.SignUp(ctx, SignUpParams{Email: "a@example.com", Password: "secret1", Metadata: map[string]any{"name": "A"}})
	require.NoError(t, err)
	_, err = p.SignUp(ctx, SignUpParams{Email: "b@example.com", Password: "secret1"})
	require.NoError(t, err)
	session, _, err := p.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	taken := "b@example.com"
	_, err = p.UpdateUser(ctx, session.AccessToken, UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	email := "c@example.com"
	password := "newpass1"
	updated, err := p.UpdateUser(ctx, session.AccessToken, UserUpdate{
		Email:    &email,
		Password: &password,
		Metadata: map[string]any{"name": "Renamed", "city": "Bandung"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", updated.Email)
	assert.Equal(t, "Renamed", updated.Name())
	assert.Equal(t, "Bandung", updated.Metadata["city"])

	_, _, err = p.SignIn(ctx, "c@example.com", "newpass1")
	assert.NoError(t, err)

	_, err = p.UpdateUser(ctx, "bad-token", UserUpdate{Email: &email})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
