package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stuntcheck/internal/models"
	"stuntcheck/internal/service"
)

// ChildHandler handles child profile routes. Every route requires a principal.
type ChildHandler struct {
	children *service.ChildService
}

// NewChildHandler creates a new child handler
func NewChildHandler(children *service.ChildService) *ChildHandler {
	return &ChildHandler{children: children}
}

// Create adds a child profile owned by the caller
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	var input models.ChildInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	child, err := h.children.Create(r.Context(), principal.Identity.ID, input)
	if err != nil {
		respondWithServiceError(w, "Failed to create child", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Child created",
		"child":   child,
	})
}

// List returns the caller's children
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	children, err := h.children.List(r.Context(), principal.Identity.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to list children", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"children": children})
}

// Get returns one of the caller's children
func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	child, err := h.children.Get(r.Context(), principal.Identity.ID, id)
	if err != nil {
		respondWithServiceError(w, "Failed to get child", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"child": child})
}

// Update applies a partial update to one of the caller's children
func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var patch models.ChildPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	child, err := h.children.Update(r.Context(), principal.Identity.ID, id, patch)
	if err != nil {
		respondWithServiceError(w, "Failed to update child", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Child updated",
		"child":   child,
	})
}

// Delete removes one of the caller's children
func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.children.Delete(r.Context(), principal.Identity.ID, id); err != nil {
		respondWithServiceError(w, "Failed to delete child", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"message": "Child deleted"})
}

// pathID reads the {id} path parameter, which must be a UUID
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return "", false
	}
	return id.String(), true
}
