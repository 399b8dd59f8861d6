package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stuntcheck/internal/database"
	"stuntcheck/internal/models"
)

// ProfileRepository handles the display profile kept for each identity
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts the profile row for identity id
func (r *ProfileRepository) Create(ctx context.Context, id, name string) (*models.Profile, error) {
	now := time.Now().UTC()
	query := "INSERT INTO profiles (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, id, name, now, now); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return &models.Profile{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// GetByID retrieves the profile of identity id, or nil if there is none
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := "SELECT id, name, created_at, updated_at FROM profiles WHERE id = ?"
	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// UpdateName changes the display name of an existing profile
func (r *ProfileRepository) UpdateName(ctx context.Context, id, name string) error {
	query := "UPDATE profiles SET name = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, name, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
