package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	domainerrors "github.com/taskboxapp/taskbox-server/internal/errors"
	"github.com/taskboxapp/taskbox-server/internal/id"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

// TaskService handles task operations, always scoped to the calling user.
type TaskService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(store *store.Store, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

// CreateTaskRequest contains the data for a new task.
// An empty ListID creates the task outside any list.
type CreateTaskRequest struct {
	ListID      string     `json:"list_id,omitempty"`
	Title       string     `json:"title" validate:"required,min=1,max=255"`
	Description string     `json:"description,omitempty" validate:"max=4096"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// UpdateTaskRequest contains updatable task fields.
// ListID moves the task to another list the user owns; an explicit empty
// string detaches it from its current list. Nil leaves the list untouched.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4096"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	ClearDueAt  bool       `json:"clear_due_at,omitempty"`
	IsCompleted *bool      `json:"is_completed,omitempty"`
	ListID      *string    `json:"list_id,omitempty"`
}

// CreateTask creates a task, in a list the user owns or unlisted.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, req CreateTaskRequest) (*domain.Task, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	taskID, err := id.Generate("task")
	if err != nil {
		return nil, fmt.Errorf("generate task ID: %w", err)
	}

	task := &domain.Task{
		Syncable: domain.Syncable{
			ID: taskID,
		},
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
		OwnerID:     ownerID,
		ListID:      req.ListID,
		Subtasks:    []string{},
	}
	task.InitTimestamps()

	if err := s.store.CreateTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return nil, domainerrors.NotFound("list not found")
		}
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Task created", "task_id", taskID, "list_id", req.ListID)
	}

	return task, nil
}

// GetTask returns a single task the user owns.
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	task, err := s.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, domainerrors.NotFound("task not found")
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetTasks returns all tasks of a list the user owns.
func (s *TaskService) GetTasks(ctx context.Context, ownerID, listID string) ([]*domain.Task, error) {
	tasks, err := s.store.ListTasksByList(ctx, ownerID, listID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return nil, domainerrors.NotFound("list not found")
		}
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies the given changes to a task the user owns.
// Changing list_id moves the task: the target list's ownership is
// re-validated and both lists' task arrays are updated atomically.
// Setting list_id to the empty string detaches the task from its list.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, req UpdateTaskRequest) (*domain.Task, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	// Move first so the remaining field updates land on the moved record.
	if req.ListID != nil && *req.ListID != task.ListID {
		task, err = s.store.MoveTask(ctx, ownerID, taskID, *req.ListID)
		if err != nil {
			if errors.Is(err, store.ErrListNotFound) {
				return nil, domainerrors.NotFound("list not found")
			}
			if errors.Is(err, store.ErrTaskNotFound) {
				return nil, domainerrors.NotFound("task not found")
			}
			return nil, fmt.Errorf("move task: %w", err)
		}
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.ClearDueAt {
		task.DueAt = nil
	} else if req.DueAt != nil {
		task.DueAt = req.DueAt
	}
	if req.IsCompleted != nil {
		task.SetCompleted(*req.IsCompleted)
	}
	task.Touch()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	return task, nil
}

// GetAllTasks returns every task the user owns, listed or not.
func (s *TaskService) GetAllTasks(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	tasks, err := s.store.ListTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// SetTaskCompleted marks a task complete or reopens it.
func (s *TaskService) SetTaskCompleted(ctx context.Context, ownerID, taskID string, completed bool) (*domain.Task, error) {
	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	task.SetCompleted(completed)
	task.Touch()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	return task, nil
}

// DeleteTask removes a task and cascades to its subtasks.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if _, err := s.GetTask(ctx, ownerID, taskID); err != nil {
		return err
	}

	if err := domain.CascadeTaskDelete(ctx, s.store, taskID); err != nil {
		return fmt.Errorf("cascade delete task: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Task deleted", "task_id", taskID, "owner_id", ownerID)
	}

	return nil
}
