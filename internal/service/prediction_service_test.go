package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stuntcheck/internal/inference"
	"stuntcheck/internal/models"
	"stuntcheck/internal/repository"
)

const modelResponse = `{"status":"stunted","confidence":0.82,"nutrition_recommendation":"Add eggs and fish","additional_info":{"haz":-2.3}}`

func validRequest() models.PredictionRequest {
	return models.PredictionRequest{
		Gender: strPtr("male"),
		Age:    floatPtr(24),
		Height: floatPtr(80),
		Weight: floatPtr(10),
	}
}

type predictionFixture struct {
	svc         *PredictionService
	model       *fakeModel
	predictions *repository.PredictionRepository
	children    *repository.ChildRepository
}

func newPredictionFixture(t *testing.T, checkChild bool) predictionFixture {
	db := setupTestDB(t)
	model := &fakeModel{response: modelResponse}
	predictions := repository.NewPredictionRepository(db)
	children := repository.NewChildRepository(db)
	return predictionFixture{
		svc:         NewPredictionService(predictions, children, model, newValidator(), checkChild),
		model:       model,
		predictions: predictions,
		children:    children,
	}
}

func TestPredictReturnsModelResponse(t *testing.T) {
	f := newPredictionFixture(t, false)

	raw, err := f.svc.Predict(context.Background(), validRequest())
	require.NoError(t, err)
	assert.JSONEq(t, modelResponse, string(raw))
	assert.Equal(t, models.GenderMale, f.model.last.Gender)
	assert.Equal(t, 80.0, f.model.last.Height)
}

func TestPredictMissingFieldSkipsModel(t *testing.T) {
	fields := map[string]func(*models.PredictionRequest){
		"gender": func(r *models.PredictionRequest) { r.Gender = nil },
		"age":    func(r *models.PredictionRequest) { r.Age = nil },
		"height": func(r *models.PredictionRequest) { r.Height = nil },
		"weight": func(r *models.PredictionRequest) { r.Weight = nil },
	}

	for name, drop := range fields {
		t.Run(name, func(t *testing.T) {
			f := newPredictionFixture(t, false)
			req := validRequest()
			drop(&req)

			_, err := f.svc.Predict(context.Background(), req)
			assert.ErrorIs(t, err, ErrIncompleteFeatures)

			_, err = f.svc.PredictAndSave(context.Background(), "owner-1", req)
			assert.ErrorIs(t, err, ErrIncompleteFeatures)

			assert.Equal(t, 0, f.model.Calls())
		})
	}
}

func TestPredictAndSave(t *testing.T) {
	f := newPredictionFixture(t, false)
	ctx := context.Background()

	saved, err := f.svc.PredictAndSave(ctx, "owner-1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, "owner-1", saved.UserID)
	assert.Equal(t, models.GenderMale, saved.Gender)
	assert.Equal(t, 24.0, saved.Age)
	assert.Equal(t, "stunted", saved.Status)
	assert.Equal(t, "Add eggs and fish", *saved.NutritionRecommendation)

	history, err := f.svc.History(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, saved.ID, history[0].ID)

	_, err = f.svc.Get(ctx, "owner-2", saved.ID)
	assert.ErrorIs(t, err, ErrPredictionNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "owner-2", saved.ID), ErrPredictionNotFound)
	require.NoError(t, f.svc.Delete(ctx, "owner-1", saved.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, "owner-1", saved.ID), ErrPredictionNotFound)
}

func TestPredictAndSaveModelFailure(t *testing.T) {
	f := newPredictionFixture(t, false)
	f.model.err = errModelDown
	ctx := context.Background()

	_, err := f.svc.PredictAndSave(ctx, "owner-1", validRequest())
	assert.ErrorIs(t, err, inference.ErrUnavailable)

	history, err := f.svc.History(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPredictAndSaveUnexpectedModelOutput(t *testing.T) {
	f := newPredictionFixture(t, false)
	f.model.response = `{"result":"ok"}`

	_, err := f.svc.PredictAndSave(context.Background(), "owner-1", validRequest())
	assert.ErrorIs(t, err, inference.ErrUnexpectedOutput)

	f.model.response = `{"status":"normal","confidence":"92.5%"}`
	_, err = f.svc.PredictAndSave(context.Background(), "owner-1", validRequest())
	assert.ErrorIs(t, err, inference.ErrUnexpectedOutput)

	history, err := f.svc.History(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPredictAndSavePersistFailure(t *testing.T) {
	f := newPredictionFixture(t, false)
	svc := NewPredictionService(failingPredictions{f.predictions}, f.children, f.model, newValidator(), false)
	ctx := context.Background()

	_, err := svc.PredictAndSave(ctx, "owner-1", validRequest())
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "new row violates row-level security policy", storeErr.Error())
	assert.Equal(t, 1, f.model.Calls())

	history, err := f.svc.History(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPredictAndSaveChildReference(t *testing.T) {
	ctx := context.Background()

	t.Run("unchecked by default", func(t *testing.T) {
		f := newPredictionFixture(t, false)
		other, err := f.children.Create(ctx, "owner-2", "Other", models.GenderFemale, 2)
		require.NoError(t, err)

		req := validRequest()
		req.ChildID = &other.ID
		saved, err := f.svc.PredictAndSave(ctx, "owner-1", req)
		require.NoError(t, err)
		assert.Equal(t, other.ID, *saved.ChildID)
	})

	t.Run("checked when enabled", func(t *testing.T) {
		f := newPredictionFixture(t, true)
		mine, err := f.children.Create(ctx, "owner-1", "Mine", models.GenderMale, 2)
		require.NoError(t, err)
		other, err := f.children.Create(ctx, "owner-2", "Other", models.GenderFemale, 2)
		require.NoError(t, err)

		req := validRequest()
		req.ChildID = &other.ID
		_, err = f.svc.PredictAndSave(ctx, "owner-1", req)
		assert.ErrorIs(t, err, ErrChildNotFound)
		assert.Equal(t, 0, f.model.Calls())

		req.ChildID = &mine.ID
		saved, err := f.svc.PredictAndSave(ctx, "owner-1", req)
		require.NoError(t, err)
		assert.Equal(t, mine.ID, *saved.ChildID)
	})
}
