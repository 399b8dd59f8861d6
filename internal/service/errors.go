package service

import "errors"

var (
	ErrChildNotFound      = errors.New("child not found")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrAccountNotFound    = errors.New("user not found")
	ErrEmptyPatch         = errors.New("at least one field required")
	ErrIncompleteFeatures = errors.New("all fields required")
)

// StoreError is a failure reported by the database. Its message is passed
// through to the caller.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Err: err}
}
