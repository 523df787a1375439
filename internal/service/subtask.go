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

// SubtaskService handles subtask operations, scoped to the calling user.
type SubtaskService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSubtaskService creates a new subtask service.
func NewSubtaskService(store *store.Store, logger *slog.Logger) *SubtaskService {
	return &SubtaskService{
		store:  store,
		logger: logger,
	}
}

// CreateSubtaskRequest contains the data for a new subtask.
type CreateSubtaskRequest struct {
	TaskID      string `json:"task_id" validate:"required"`
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description,omitempty" validate:"max=4096"`
}

// UpdateSubtaskRequest contains updatable subtask fields.
type UpdateSubtaskRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4096"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// CreateSubtask creates a subtask under a task the user owns.
func (s *SubtaskService) CreateSubtask(ctx context.Context, ownerID string, req CreateSubtaskRequest) (*domain.Subtask, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	subtaskID, err := id.Generate("subtask")
	if err != nil {
		return nil, fmt.Errorf("generate subtask ID: %w", err)
	}

	subtask := &domain.Subtask{
		Syncable: domain.Syncable{
			ID: subtaskID,
		},
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
		TaskID:      req.TaskID,
	}
	subtask.InitTimestamps()

	if err := s.store.CreateSubtask(ctx, subtask); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, domainerrors.NotFound("task not found")
		}
		return nil, fmt.Errorf("create subtask: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Subtask created", "subtask_id", subtaskID, "task_id", req.TaskID)
	}

	return subtask, nil
}

// GetSubtasks returns all subtasks of a task the user owns.
func (s *SubtaskService) GetSubtasks(ctx context.Context, ownerID, taskID string) ([]*domain.Subtask, error) {
	subtasks, err := s.store.ListSubtasksByTask(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, domainerrors.NotFound("task not found")
		}
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subtasks, nil
}

// GetSubtask returns a single subtask the user owns.
func (s *SubtaskService) GetSubtask(ctx context.Context, ownerID, subtaskID string) (*domain.Subtask, error) {
	subtask, err := s.store.GetSubtask(ctx, ownerID, subtaskID)
	if err != nil {
		if errors.Is(err, store.ErrSubtaskNotFound) {
			return nil, domainerrors.NotFound("subtask not found")
		}
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	return subtask, nil
}

// UpdateSubtask applies the given changes to a subtask the user owns.
func (s *SubtaskService) UpdateSubtask(ctx context.Context, ownerID, subtaskID string, req UpdateSubtaskRequest) (*domain.Subtask, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	subtask, err := s.GetSubtask(ctx, ownerID, subtaskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		subtask.Title = *req.Title
	}
	if req.Description != nil {
		subtask.Description = *req.Description
	}
	if req.IsCompleted != nil {
		subtask.SetCompleted(*req.IsCompleted)
	}
	subtask.Touch()

	if err := s.store.UpdateSubtask(ctx, subtask); err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}

	return subtask, nil
}

// SetSubtaskCompleted marks a subtask complete or reopens it.
func (s *SubtaskService) SetSubtaskCompleted(ctx context.Context, ownerID, subtaskID string, completed bool) (*domain.Subtask, error) {
	subtask, err := s.GetSubtask(ctx, ownerID, subtaskID)
	if err != nil {
		return nil, err
	}

	subtask.SetCompleted(completed)
	subtask.Touch()

	if err := s.store.UpdateSubtask(ctx, subtask); err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}

	return subtask, nil
}

// DeleteSubtask removes a subtask and detaches it from its parent task.
func (s *SubtaskService) DeleteSubtask(ctx context.Context, ownerID, subtaskID string) error {
	if _, err := s.GetSubtask(ctx, ownerID, subtaskID); err != nil {
		return err
	}

	if err := s.store.DeleteEntity(ctx, "subtask", subtaskID); err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Subtask deleted", "subtask_id", subtaskID, "owner_id", ownerID)
	}

	return nil
}
