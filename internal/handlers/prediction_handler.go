package handlers

import (
	"log"
	"net/http"

	"stuntcheck/internal/models"
	"stuntcheck/internal/service"
)

// PredictionHandler handles prediction routes
type PredictionHandler struct {
	predictions *service.PredictionService
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(predictions *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictions: predictions}
}

// Predict runs the model for an anonymous caller and returns its response as is
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	raw, err := h.predictions.Predict(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "Error connecting to prediction model", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		log.Printf("Failed to write prediction response: %v", err)
	}
}

// Create runs the model and stores the result for the caller
func (h *PredictionHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	var req models.PredictionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	prediction, err := h.predictions.PredictAndSave(r.Context(), principal.Identity.ID, req)
	if err != nil {
		respondWithServiceError(w, "Prediction save error", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Prediction saved",
		"prediction": prediction,
	})
}

// List returns the caller's prediction history
func (h *PredictionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	predictions, err := h.predictions.History(r.Context(), principal.Identity.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to list predictions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
}

// Get returns one of the caller's predictions
func (h *PredictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	prediction, err := h.predictions.Get(r.Context(), principal.Identity.ID, id)
	if err != nil {
		respondWithServiceError(w, "Failed to get prediction", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"prediction": prediction})
}

// Delete removes one of the caller's predictions
func (h *PredictionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.predictions.Delete(r.Context(), principal.Identity.ID, id); err != nil {
		respondWithServiceError(w, "Failed to delete prediction", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"message": "Prediction deleted"})
}
