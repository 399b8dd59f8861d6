package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"stuntcheck/internal/database"
	"stuntcheck/internal/inference"
	"stuntcheck/internal/models"
	"stuntcheck/internal/repository"
	"stuntcheck/internal/validation"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), database.Migrations))
	return db
}

// fakeModel records calls and returns a canned response
type fakeModel struct {
	mu       sync.Mutex
	calls    int
	last     models.Features
	response string
	err      error
}

func (m *fakeModel) Predict(ctx context.Context, f models.Features) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = f
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.response), nil
}

func (m *fakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var errModelDown = errors.Join(inference.ErrUnavailable, errors.New("connection refused"))

// failingPredictions wraps a store and fails every Create
type failingPredictions struct {
	*repository.PredictionRepository
}

func (f failingPredictions) Create(ctx context.Context, userID string, childID *string, features models.Features, result models.InferenceResult) (*models.Prediction, error) {
	return nil, errors.New("new row violates row-level security policy")
}

func newValidator() *validation.Validator {
	return validation.New()
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
