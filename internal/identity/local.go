package identity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stuntcheck/internal/models"
)

const tokenIssuer = "stuntcheck"

// UserStore persists accounts for the local provider
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// LocalProvider keeps accounts in the gateway's own database and issues
// HS256 access tokens. It is used when no external auth service is configured.
type LocalProvider struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewLocalProvider creates a provider signing tokens with secret
func NewLocalProvider(users UserStore, secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// VerifyToken parses an access token and loads the account it names
func (p *LocalProvider) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)

	claims := &accessClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := p.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	return toIdentity(user), nil
}

// SignUp creates an account with a bcrypt password hash
func (p *LocalProvider) SignUp(ctx context.Context, params SignUpParams) (*Identity, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	existing, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     maps.Clone(params.Metadata),
	}
	user.Name, _ = user.Metadata["name"].(string)

	if err := p.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return toIdentity(user), nil
}

// SignIn checks the password and issues an access token
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, *Identity, error) {
	user, err := p.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := p.issue(user)
	if err != nil {
		return nil, nil, err
	}

	return session, toIdentity(user), nil
}

// UpdateUser changes the account the token belongs to. Metadata keys are
// merged into the existing metadata.
func (p *LocalProvider) UpdateUser(ctx context.Context, token string, update UserUpdate) (*Identity, error) {
	current, err := p.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := p.users.GetUserByID(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email != user.Email {
			other, err := p.users.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}

	if update.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), p.cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if len(update.Metadata) > 0 {
		if user.Metadata == nil {
			user.Metadata = map[string]any{}
		}
		maps.Copy(user.Metadata, update.Metadata)
		if name, ok := user.Metadata["name"].(string); ok {
			user.Name = name
		}
	}

	if err := p.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return toIdentity(user), nil
}

func (p *LocalProvider) issue(user *models.User) (*Session, error) {
	if len(p.secret) == 0 {
		return nil, errors.New("token signing secret not configured")
	}

	now := p.now()
	expiresAt := now.Add(p.ttl)
	claims := accessClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(p.ttl.Seconds()),
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

func toIdentity(user *models.User) *Identity {
	return &Identity{
		ID:        user.ID,
		Email:     user.Email,
		Metadata:  user.Metadata,
		CreatedAt: user.CreatedAt,
	}
}
