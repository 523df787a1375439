package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskboxapp/taskbox-server/internal/auth"
	"github.com/taskboxapp/taskbox-server/internal/domain"
	domainerrors "github.com/taskboxapp/taskbox-server/internal/errors"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

// UserService handles account-level operations for the current user.
type UserService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store *store.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// UpdateProfileRequest carries profile field changes.
// Omitted fields are left untouched.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdatePasswordRequest carries a password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=1024"`
}

// DeleteAccountRequest confirms an account deletion.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies name and email changes to the user's account.
// An email change re-claims the address through the store's email index,
// so a taken address fails without racing a concurrent registration.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Profile updated", "user_id", userID)
	}

	return user, nil
}

// UpdatePassword verifies the current password and replaces it.
// Every session of the user is revoked so stolen refresh tokens die with
// the old password; the caller must log in again.
func (s *UserService) UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest) error {
	if err := validate.Validate(req); err != nil {
		return err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return domainerrors.InvalidCredentials("current password is incorrect")
	}

	if req.NewPassword == req.CurrentPassword {
		return domainerrors.Validation("new password must differ from the current password")
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = newHash
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := s.store.DeleteAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Password updated, sessions revoked", "user_id", userID)
	}

	return nil
}

// DeleteAccount removes the user and everything they own.
// Requires password confirmation. Lists, tasks, subtasks, and sessions
// are cascade-deleted.
func (s *UserService) DeleteAccount(ctx context.Context, userID string, req DeleteAccountRequest) error {
	if err := validate.Validate(req); err != nil {
		return err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return domainerrors.InvalidCredentials("password is incorrect")
	}

	if err := domain.CascadeUserDelete(ctx, s.store, userID); err != nil {
		return fmt.Errorf("cascade delete user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User account deleted", "user_id", userID)
	}

	return nil
}
