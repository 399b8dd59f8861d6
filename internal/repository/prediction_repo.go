package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stuntcheck/internal/database"
	"stuntcheck/internal/models"
)

const predictionColumns = `id, user_id, child_id, gender, age, height, weight, status,
	confidence, nutrition_recommendation, additional_info, created_at`

// PredictionRepository handles database operations for prediction records
type PredictionRepository struct {
	db database.DBTX
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db database.DBTX) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create stores the outcome of an inference call for userID
func (r *PredictionRepository) Create(ctx context.Context, userID string, childID *string, features models.Features, result models.InferenceResult) (*models.Prediction, error) {
	p := &models.Prediction{
		ID:                      uuid.NewString(),
		UserID:                  userID,
		ChildID:                 childID,
		Gender:                  features.Gender,
		Age:                     features.Age,
		Height:                  features.Height,
		Weight:                  features.Weight,
		Status:                  result.Status,
		Confidence:              result.Confidence,
		NutritionRecommendation: result.NutritionRecommendation,
		AdditionalInfo:          result.AdditionalInfo,
		CreatedAt:               time.Now().UTC(),
	}

	var additionalInfo interface{}
	if len(p.AdditionalInfo) > 0 && string(p.AdditionalInfo) != "null" {
		additionalInfo = string(p.AdditionalInfo)
	}

	query := "INSERT INTO predictions (" + predictionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.ChildID, string(p.Gender), p.Age, p.Height, p.Weight, p.Status,
		p.Confidence, p.NutritionRecommendation, additionalInfo, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}

	return p, nil
}

// GetByIDAndOwner retrieves a prediction owned by userID, or nil if there is none
func (r *PredictionRepository) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Prediction, error) {
	query := "SELECT " + predictionColumns + " FROM predictions WHERE id = ? AND user_id = ?"
	p, err := scanPrediction(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return p, nil
}

// ListByOwner retrieves the prediction history of userID, newest first
func (r *PredictionRepository) ListByOwner(ctx context.Context, userID string) ([]models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	predictions := []models.Prediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return predictions, nil
}

// DeleteByIDAndOwner removes a prediction owned by userID and reports whether a row was deleted
func (r *PredictionRepository) DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error) {
	query := "DELETE FROM predictions WHERE id = ? AND user_id = ?"
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete prediction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete prediction: %w", err)
	}

	return affected > 0, nil
}

func scanPrediction(row scanner) (*models.Prediction, error) {
	p := &models.Prediction{}
	var (
		childID        sql.NullString
		gender         string
		confidence     sql.NullFloat64
		recommendation sql.NullString
		additionalInfo sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&childID,
		&gender,
		&p.Age,
		&p.Height,
		&p.Weight,
		&p.Status,
		&confidence,
		&recommendation,
		&additionalInfo,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Gender = models.Gender(gender)
	if childID.Valid {
		p.ChildID = &childID.String
	}
	if confidence.Valid {
		p.Confidence = &confidence.Float64
	}
	if recommendation.Valid {
		p.NutritionRecommendation = &recommendation.String
	}
	if additionalInfo.Valid && json.Valid([]byte(additionalInfo.String)) {
		p.AdditionalInfo = json.RawMessage(additionalInfo.String)
	}
	return p, nil
}
