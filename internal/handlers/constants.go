package handlers

const (
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrModelUnavailable    = "could not reach prediction model"
	ErrModelOutput         = "prediction model returned an unexpected response"
	ErrInvalidID           = "invalid id"
)
