package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stuntcheck/internal/models"
	"stuntcheck/internal/service"
)

// AuthHandler handles account routes
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register creates an account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "Register error", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"user":    user,
	})
}

// Login signs a user in and returns the session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	session, user, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "Login error", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"session": session,
		"user":    user,
	})
}

// Me returns the caller's identity and profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	profile, err := h.accounts.Profile(r.Context(), principal.Identity)
	if err != nil {
		respondWithServiceError(w, "Failed to load profile", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":    principal.Identity,
		"profile": profile,
	})
}

// UpdateMe changes the caller's own email, password or name
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	var req models.UpdateSelfRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	user, err := h.accounts.UpdateSelf(r.Context(), principal.Identity, principal.Token, chi.URLParam(r, "id"), req)
	if err != nil {
		respondWithServiceError(w, "Update user error", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated",
		"user":    user,
	})
}
