package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stuntcheck/internal/database"
	"stuntcheck/internal/models"
)

const userColumns = "id, email, password_hash, name, metadata, created_at, updated_at"

// UserRepository handles account rows for the local identity provider
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user into the database
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	metadata, err := encodeMetadata(user.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	query := "INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, metadata, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.getUser(ctx, query, strings.ToLower(email))
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.getUser(ctx, query, id)
}

// UpdateUser writes email, password hash, name and metadata of an existing user
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	metadata, err := encodeMetadata(user.Metadata)
	if err != nil {
		return err
	}

	user.Email = strings.ToLower(user.Email)
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = ?, password_hash = ?, name = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.Name, metadata, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var metadata sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&metadata,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &user.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode user metadata: %w", err)
		}
	}

	return user, nil
}

func encodeMetadata(metadata map[string]any) (interface{}, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user metadata: %w", err)
	}
	return string(b), nil
}
