package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	"github.com/taskboxapp/taskbox-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's information",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/users/update",
		Summary:     "Update profile",
		Description: "Changes the user's name and/or email address",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePassword",
		Method:      http.MethodPatch,
		Path:        "/users/update-password",
		Summary:     "Update password",
		Description: "Changes the user's password and revokes all sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAccount",
		Method:      http.MethodDelete,
		Path:        "/users/delete",
		Summary:     "Delete account",
		Description: "Deletes the account and everything it owns. Requires password confirmation.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteAccount)
}

// === DTOs ===

// AuthenticatedInput carries the access token for protected routes.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// UpdateProfileRequest is the request body for a profile change.
// Omitted fields are left untouched.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" doc:"New display name"`
	Email *string `json:"email,omitempty" doc:"New email address"`
}

// UpdateProfileInput wraps the profile change request for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	Body          UpdateProfileRequest
}

// UpdatePasswordRequest is the request body for a password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" doc:"Current password"`
	NewPassword     string `json:"new_password" doc:"New password"`
}

// UpdatePasswordInput wraps the password change request for Huma.
type UpdatePasswordInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	Body          UpdatePasswordRequest
}

// DeleteAccountRequest is the request body for account deletion.
type DeleteAccountRequest struct {
	Password string `json:"password" doc:"Current password, confirms the deletion"`
}

// DeleteAccountInput wraps the account deletion request for Huma.
type DeleteAccountInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	Body          DeleteAccountRequest
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, input *AuthenticatedInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.UpdateProfile(ctx, userID, service.UpdateProfileRequest{
		Name:  input.Body.Name,
		Email: input.Body.Email,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdatePassword(ctx context.Context, input *UpdatePasswordInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	err = s.services.User.UpdatePassword(ctx, userID, service.UpdatePasswordRequest{
		CurrentPassword: input.Body.CurrentPassword,
		NewPassword:     input.Body.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Password updated"}}, nil
}

func (s *Server) handleDeleteAccount(ctx context.Context, input *DeleteAccountInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	err = s.services.User.DeleteAccount(ctx, userID, service.DeleteAccountRequest{
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Account deleted"}}, nil
}

// === Helpers ===

func mapUserResponse(user *domain.User) UserResponse {
	lists := user.Lists
	if lists == nil {
		lists = []string{}
	}

	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		IsRoot:      user.IsRoot,
		Lists:       lists,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}
