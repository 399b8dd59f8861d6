package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stuntcheck/internal/database"
	"stuntcheck/internal/models"
)

const childColumns = "id, user_id, name, gender, age, created_at, updated_at"

// ChildRepository handles database operations for child profiles.
// Every id-scoped query is filtered by both id and owner.
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

// Create inserts a child profile owned by userID
func (r *ChildRepository) Create(ctx context.Context, userID, name string, gender models.Gender, age int) (*models.Child, error) {
	now := time.Now().UTC()
	child := &models.Child{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Gender:    gender,
		Age:       age,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := "INSERT INTO children (" + childColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		child.ID, child.UserID, child.Name, string(child.Gender), child.Age, child.CreatedAt, child.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return child, nil
}

// GetByIDAndOwner retrieves a child owned by userID, or nil if there is none
func (r *ChildRepository) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE id = ? AND user_id = ?"
	child, err := scanChild(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}

	return child, nil
}

// ListByOwner retrieves all children of userID, newest first
func (r *ChildRepository) ListByOwner(ctx context.Context, userID string) ([]models.Child, error) {
	query := `
		SELECT ` + childColumns + `
		FROM children
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	children := []models.Child{}
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children: %w", err)
	}

	return children, nil
}

// UpdateByIDAndOwner applies the non-nil fields of patch. The owner column is
// never written. Returns nil when no child with that id belongs to userID.
func (r *ChildRepository) UpdateByIDAndOwner(ctx context.Context, id, userID string, patch models.ChildPatch) (*models.Child, error) {
	existing, err := r.GetByIDAndOwner(ctx, id, userID)
	if err != nil || existing == nil {
		return nil, err
	}

	var sets []string
	var args []interface{}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Gender != nil {
		sets = append(sets, "gender = ?")
		args = append(args, *patch.Gender)
	}
	if patch.Age != nil {
		sets = append(sets, "age = ?")
		args = append(args, *patch.Age)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id, userID)

	query := "UPDATE children SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update child: %w", err)
	}

	return r.GetByIDAndOwner(ctx, id, userID)
}

// DeleteByIDAndOwner removes a child owned by userID and reports whether a row was deleted
func (r *ChildRepository) DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error) {
	query := "DELETE FROM children WHERE id = ? AND user_id = ?"
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete child: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete child: %w", err)
	}

	return affected > 0, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChild(row scanner) (*models.Child, error) {
	child := &models.Child{}
	var gender string
	err := row.Scan(
		&child.ID,
		&child.UserID,
		&child.Name,
		&gender,
		&child.Age,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	child.Gender = models.Gender(gender)
	return child, nil
}
