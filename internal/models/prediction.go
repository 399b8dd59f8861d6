package models

import (
	"encoding/json"
	"time"
)

// Features are the measurements sent to the prediction model
type Features struct {
	Gender Gender
	Age    float64
	Height float64
	Weight float64
}

// PredictionRequest is the payload for both prediction modes. Fields are
// pointers so that an explicit zero can be told apart from a missing value.
type PredictionRequest struct {
	ChildID *string  `json:"child_id,omitempty" validate:"omitempty,uuid"`
	Gender  *string  `json:"gender" validate:"omitempty,gender"`
	Age     *float64 `json:"age" validate:"omitempty,min=0"`
	Height  *float64 `json:"height" validate:"omitempty,gt=0"`
	Weight  *float64 `json:"weight" validate:"omitempty,gt=0"`
}

// Complete reports whether all four model inputs are present
func (r PredictionRequest) Complete() bool {
	return r.Gender != nil && r.Age != nil && r.Height != nil && r.Weight != nil
}

// InferenceResult is the output schema of the prediction model
type InferenceResult struct {
	Status                  string          `json:"status"`
	Confidence              *float64        `json:"confidence"`
	NutritionRecommendation *string         `json:"nutrition_recommendation"`
	AdditionalInfo          json.RawMessage `json:"additional_info,omitempty"`
}

// Prediction is a stored prediction record
type Prediction struct {
	ID                      string          `json:"id"`
	UserID                  string          `json:"user_id"`
	ChildID                 *string         `json:"child_id"`
	Gender                  Gender          `json:"gender"`
	Age                     float64         `json:"age"`
	Height                  float64         `json:"height"`
	Weight                  float64         `json:"weight"`
	Status                  string          `json:"status"`
	Confidence              *float64        `json:"confidence"`
	NutritionRecommendation *string         `json:"nutrition_recommendation"`
	AdditionalInfo          json.RawMessage `json:"additional_info,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
}
