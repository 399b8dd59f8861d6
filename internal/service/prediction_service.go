package service

import (
	"context"
	"encoding/json"
	"log"

	"stuntcheck/internal/inference"
	"stuntcheck/internal/models"
	"stuntcheck/internal/validation"
)

// Predictor runs the prediction model
type Predictor interface {
	Predict(ctx context.Context, f models.Features) (json.RawMessage, error)
}

// PredictionStore persists prediction records scoped by owner
type PredictionStore interface {
	Create(ctx context.Context, userID string, childID *string, features models.Features, result models.InferenceResult) (*models.Prediction, error)
	GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Prediction, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Prediction, error)
	DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error)
}

// ChildLookup resolves a child reference for its owner
type ChildLookup interface {
	GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Child, error)
}

// PredictionService runs the model and keeps the prediction history.
// Inference and persistence are separate steps; a failure after a successful
// inference loses that result.
type PredictionService struct {
	predictions PredictionStore
	children    ChildLookup
	model       Predictor
	validator   *validation.Validator
	checkChild  bool
}

// NewPredictionService creates a new prediction service. When checkChild is
// set, a child reference must name one of the caller's children.
func NewPredictionService(predictions PredictionStore, children ChildLookup, model Predictor, validator *validation.Validator, checkChild bool) *PredictionService {
	return &PredictionService{
		predictions: predictions,
		children:    children,
		model:       model,
		validator:   validator,
		checkChild:  checkChild,
	}
}

func (s *PredictionService) features(req models.PredictionRequest) (models.Features, error) {
	if !req.Complete() {
		return models.Features{}, ErrIncompleteFeatures
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Features{}, err
	}
	gender, _ := models.ParseGender(*req.Gender)
	return models.Features{
		Gender: gender,
		Age:    *req.Age,
		Height: *req.Height,
		Weight: *req.Weight,
	}, nil
}

// Predict runs the model without storing anything and returns its response verbatim
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (json.RawMessage, error) {
	features, err := s.features(req)
	if err != nil {
		return nil, err
	}
	return s.model.Predict(ctx, features)
}

// PredictAndSave runs the model and stores the outcome for ownerID
func (s *PredictionService) PredictAndSave(ctx context.Context, ownerID string, req models.PredictionRequest) (*models.Prediction, error) {
	features, err := s.features(req)
	if err != nil {
		return nil, err
	}

	if s.checkChild && req.ChildID != nil {
		child, err := s.children.GetByIDAndOwner(ctx, *req.ChildID, ownerID)
		if err != nil {
			return nil, storeErr(err)
		}
		if child == nil {
			return nil, ErrChildNotFound
		}
	}

	raw, err := s.model.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	result, err := inference.DecodeResult(raw)
	if err != nil {
		return nil, err
	}

	prediction, err := s.predictions.Create(ctx, ownerID, req.ChildID, features, result)
	if err != nil {
		log.Printf("Prediction for user %s computed but not saved: %v", ownerID, err)
		return nil, storeErr(err)
	}
	return prediction, nil
}

// History returns the owner's predictions, newest first
func (s *PredictionService) History(ctx context.Context, ownerID string) ([]models.Prediction, error) {
	predictions, err := s.predictions.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return predictions, nil
}

// Get returns one of the owner's predictions
func (s *PredictionService) Get(ctx context.Context, ownerID, id string) (*models.Prediction, error) {
	prediction, err := s.predictions.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	if prediction == nil {
		return nil, ErrPredictionNotFound
	}
	return prediction, nil
}

// Delete removes one of the owner's predictions
func (s *PredictionService) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.predictions.DeleteByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return storeErr(err)
	}
	if !deleted {
		return ErrPredictionNotFound
	}
	return nil
}
