package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"stuntcheck/internal/identity"
	"stuntcheck/internal/inference"
	"stuntcheck/internal/service"
	"stuntcheck/internal/validation"
)

// errorResponse is the single error envelope used by every JSON route
type errorResponse struct {
	Error   string            `json:"error"`
	Details validation.Errors `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps an error from the service layer to exactly
// one status code. Store messages are passed through; inference and
// unexpected failures are only logged.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var (
		verrs    validation.Errors
		storeErr *service.StoreError
		idErr    *identity.Error
	)

	if sentinel := matchSentinel(err, badRequestErrors); sentinel != nil {
		respondWithError(w, http.StatusBadRequest, sentinel.Error(), "", nil)
		return
	}
	if sentinel := matchSentinel(err, notFoundErrors); sentinel != nil {
		respondWithError(w, http.StatusNotFound, sentinel.Error(), "", nil)
		return
	}

	switch {
	case errors.As(err, &verrs):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: verrs.Error(), Details: verrs})
	case errors.Is(err, identity.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	case errors.Is(err, inference.ErrUnexpectedOutput):
		respondWithError(w, http.StatusInternalServerError, ErrModelOutput, logMsg+": prediction model broke its response contract", err)
	case errors.Is(err, inference.ErrUnavailable):
		respondWithError(w, http.StatusInternalServerError, ErrModelUnavailable, logMsg, err)
	case errors.As(err, &storeErr):
		respondWithError(w, http.StatusBadRequest, storeErr.Error(), logMsg, err)
	case errors.As(err, &idErr):
		respondWithError(w, http.StatusBadRequest, idErr.Message, logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// Sentinels whose own text is the response message. Wrapping context is
// never echoed, so a wrapped error answers exactly like the bare one.
var (
	badRequestErrors = []error{
		service.ErrEmptyPatch,
		service.ErrIncompleteFeatures,
		identity.ErrInvalidCredentials,
		identity.ErrEmailTaken,
	}
	notFoundErrors = []error{
		service.ErrChildNotFound,
		service.ErrPredictionNotFound,
		service.ErrAccountNotFound,
	}
)

// matchSentinel returns the first sentinel in err's chain, or nil
func matchSentinel(err error, sentinels []error) error {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return errors.New("content type must be application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &maxErr):
			return errors.New("request body too large")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("request body is not valid JSON")
		case errors.As(err, &typeErr):
			return errors.New("invalid type for field " + typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return errors.New("unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return errors.New("invalid request body")
		}
	}

	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
