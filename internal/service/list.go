package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	domainerrors "github.com/taskboxapp/taskbox-server/internal/errors"
	"github.com/taskboxapp/taskbox-server/internal/id"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

// ListService handles task-list operations. Every method takes the
// calling user's ID and only touches lists that user owns.
type ListService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewListService creates a new list service.
func NewListService(store *store.Store, logger *slog.Logger) *ListService {
	return &ListService{
		store:  store,
		logger: logger,
	}
}

// CreateListRequest contains the data for a new list.
type CreateListRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// UpdateListRequest contains updatable list fields.
type UpdateListRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
}

// CreateList creates a list owned by the given user.
func (s *ListService) CreateList(ctx context.Context, ownerID string, req CreateListRequest) (*domain.List, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	listID, err := id.Generate("list")
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}

	list := &domain.List{
		Syncable: domain.Syncable{
			ID: listID,
		},
		Title:   req.Title,
		OwnerID: ownerID,
		Tasks:   []string{},
	}
	list.InitTimestamps()

	if err := s.store.CreateList(ctx, list); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("create list: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("List created", "list_id", listID, "owner_id", ownerID)
	}

	return list, nil
}

// GetList returns a single list the user owns.
func (s *ListService) GetList(ctx context.Context, ownerID, listID string) (*domain.List, error) {
	list, err := s.store.GetList(ctx, ownerID, listID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return nil, domainerrors.NotFound("list not found")
		}
		return nil, fmt.Errorf("get list: %w", err)
	}
	return list, nil
}

// GetLists returns all lists owned by the user.
func (s *ListService) GetLists(ctx context.Context, ownerID string) ([]*domain.List, error) {
	lists, err := s.store.ListLists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	return lists, nil
}

// UpdateList applies the given changes to a list the user owns.
func (s *ListService) UpdateList(ctx context.Context, ownerID, listID string, req UpdateListRequest) (*domain.List, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	list, err := s.GetList(ctx, ownerID, listID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		list.Title = *req.Title
	}
	list.Touch()

	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}

	return list, nil
}

// DeleteList removes a list and cascades to its tasks and subtasks.
func (s *ListService) DeleteList(ctx context.Context, ownerID, listID string) error {
	// Ownership check before the cascade runs.
	if _, err := s.GetList(ctx, ownerID, listID); err != nil {
		return err
	}

	if err := domain.CascadeListDelete(ctx, s.store, listID); err != nil {
		return fmt.Errorf("cascade delete list: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("List deleted", "list_id", listID, "owner_id", ownerID)
	}

	return nil
}
