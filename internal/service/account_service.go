package service

import (
	"context"
	"log"
	"strings"

	"stuntcheck/internal/identity"
	"stuntcheck/internal/models"
	"stuntcheck/internal/validation"
)

const defaultProfileName = "Unnamed"

// ProfileStore persists the display profile of each identity
type ProfileStore interface {
	Create(ctx context.Context, id, name string) (*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateName(ctx context.Context, id, name string) error
}

// WelcomeMailer greets newly registered users
type WelcomeMailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// AccountService handles registration, sign in and self service account
// changes on top of the identity provider
type AccountService struct {
	provider  identity.Provider
	profiles  ProfileStore
	mailer    WelcomeMailer
	validator *validation.Validator
}

// NewAccountService creates a new account service. mailer may be nil.
func NewAccountService(provider identity.Provider, profiles ProfileStore, mailer WelcomeMailer, validator *validation.Validator) *AccountService {
	return &AccountService{
		provider:  provider,
		profiles:  profiles,
		mailer:    mailer,
		validator: validator,
	}
}

// Register creates an identity and its profile row
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*identity.Identity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	user, err := s.provider.SignUp(ctx, identity.SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		Metadata: map[string]any{"name": name},
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.profiles.Create(ctx, user.ID, name); err != nil {
		log.Printf("Warning: failed to create profile for user %s: %v", user.ID, err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(ctx, user.Email, name); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

// Login signs the user in and backfills a missing profile row
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*identity.Session, *identity.Identity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, err
	}

	session, user, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, nil, err
	}

	s.ensureProfile(ctx, user)
	return session, user, nil
}

func (s *AccountService) ensureProfile(ctx context.Context, user *identity.Identity) {
	profile, err := s.profiles.GetByID(ctx, user.ID)
	if err != nil {
		log.Printf("Warning: failed to look up profile for user %s: %v", user.ID, err)
		return
	}
	if profile != nil {
		return
	}

	name := user.Name()
	if name == "" {
		name = defaultProfileName
	}
	if _, err := s.profiles.Create(ctx, user.ID, name); err != nil {
		log.Printf("Warning: failed to insert profile on login for user %s: %v", user.ID, err)
	}
}

// Profile returns the caller's profile, or nil when none was stored
func (s *AccountService) Profile(ctx context.Context, user *identity.Identity) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, user.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	return profile, nil
}

// UpdateSelf changes the caller's own identity. targetID must be the
// caller's id; any other id is reported as not found.
func (s *AccountService) UpdateSelf(ctx context.Context, user *identity.Identity, token, targetID string, req models.UpdateSelfRequest) (*identity.Identity, error) {
	if targetID != user.ID {
		return nil, ErrAccountNotFound
	}
	if req.Empty() {
		return nil, ErrEmptyPatch
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	update := identity.UserUpdate{Email: req.Email, Password: req.Password}
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		update.Metadata = map[string]any{"name": name}
	}

	updated, err := s.provider.UpdateUser(ctx, token, update)
	if err != nil {
		return nil, err
	}

	if name != "" {
		s.renameProfile(ctx, updated.ID, name)
	}
	return updated, nil
}

func (s *AccountService) renameProfile(ctx context.Context, id, name string) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		log.Printf("Warning: failed to look up profile for user %s: %v", id, err)
		return
	}
	if profile == nil {
		_, err = s.profiles.Create(ctx, id, name)
	} else {
		err = s.profiles.UpdateName(ctx, id, name)
	}
	if err != nil {
		log.Printf("Warning: failed to update profile name for user %s: %v", id, err)
	}
}
