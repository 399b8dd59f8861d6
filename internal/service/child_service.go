package service

import (
	"context"

	"stuntcheck/internal/models"
	"stuntcheck/internal/validation"
)

// ChildStore persists child profiles scoped by owner
type ChildStore interface {
	Create(ctx context.Context, userID, name string, gender models.Gender, age int) (*models.Child, error)
	GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Child, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Child, error)
	UpdateByIDAndOwner(ctx context.Context, id, userID string, patch models.ChildPatch) (*models.Child, error)
	DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error)
}

// ChildService handles child profile business logic. A child that exists
// but belongs to someone else is reported exactly like a missing one.
type ChildService struct {
	children  ChildStore
	validator *validation.Validator
}

// NewChildService creates a new child service
func NewChildService(children ChildStore, validator *validation.Validator) *ChildService {
	return &ChildService{children: children, validator: validator}
}

// Create adds a child profile owned by ownerID
func (s *ChildService) Create(ctx context.Context, ownerID string, input models.ChildInput) (*models.Child, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	gender, _ := models.ParseGender(input.Gender)

	child, err := s.children.Create(ctx, ownerID, input.Name, gender, *input.Age)
	if err != nil {
		return nil, storeErr(err)
	}
	return child, nil
}

// List returns the owner's children, newest first
func (s *ChildService) List(ctx context.Context, ownerID string) ([]models.Child, error) {
	children, err := s.children.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return children, nil
}

// Get returns one of the owner's children
func (s *ChildService) Get(ctx context.Context, ownerID, id string) (*models.Child, error) {
	child, err := s.children.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// Update applies a partial update to one of the owner's children
func (s *ChildService) Update(ctx context.Context, ownerID, id string, patch models.ChildPatch) (*models.Child, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}
	if patch.Gender != nil {
		gender, _ := models.ParseGender(*patch.Gender)
		canonical := string(gender)
		patch.Gender = &canonical
	}

	child, err := s.children.UpdateByIDAndOwner(ctx, id, ownerID, patch)
	if err != nil {
		return nil, storeErr(err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// Delete removes one of the owner's children
func (s *ChildService) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.children.DeleteByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return storeErr(err)
	}
	if !deleted {
		return ErrChildNotFound
	}
	return nil
}
