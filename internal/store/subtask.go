package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/taskboxapp/taskbox-server/internal/domain"
)

const subtaskPrefix = "subtask:"

// ErrSubtaskNotFound is returned when a subtask cannot be found or is owned
// by someone else.
var ErrSubtaskNotFound = errors.New("subtask not found")

// CreateSubtask creates a subtask and appends its ID to the parent task's
// subtask set. The parent must exist and belong to the subtask's owner.
func (s *Store) CreateSubtask(_ context.Context, subtask *domain.Subtask) error {
	subtaskKey := buildKey(subtaskPrefix, subtask.ID)
	defer releaseKey(subtaskKey)
	taskKey := buildKey(taskPrefix, subtask.TaskID)
	defer releaseKey(taskKey)

	return s.db.Update(func(txn *badger.Txn) error {
		var task domain.Task
		if err := getJSON(txn, taskKey, &task); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("load task: %w", err)
		}
		if task.IsDeleted() || task.OwnerID != subtask.OwnerID {
			return ErrTaskNotFound
		}

		if _, err := txn.Get(subtaskKey); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check subtask exists: %w", err)
		}

		task.Subtasks = append(task.Subtasks, subtask.ID)
		task.Touch()

		if err := setJSON(txn, subtaskKey, subtask); err != nil {
			return err
		}
		return setJSON(txn, taskKey, &task)
	})
}

// GetSubtask retrieves a subtask scoped to its owner.
func (s *Store) GetSubtask(_ context.Context, ownerID, subtaskID string) (*domain.Subtask, error) {
	key := buildKey(subtaskPrefix, subtaskID)
	defer releaseKey(key)

	var subtask domain.Subtask
	if err := s.get(key, &subtask); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("get subtask: %w", err)
	}

	if subtask.IsDeleted() || subtask.OwnerID != ownerID {
		return nil, ErrSubtaskNotFound
	}

	return &subtask, nil
}

// ListSubtasksByTask returns the subtasks of a task, in task order, scoped
// to the owner.
func (s *Store) ListSubtasksByTask(_ context.Context, ownerID, taskID string) ([]*domain.Subtask, error) {
	taskKey := buildKey(taskPrefix, taskID)
	defer releaseKey(taskKey)

	var subtasks []*domain.Subtask
	err := s.db.View(func(txn *badger.Txn) error {
		var task domain.Task
		if err := getJSON(txn, taskKey, &task); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("load task: %w", err)
		}
		if task.IsDeleted() || task.OwnerID != ownerID {
			return ErrTaskNotFound
		}

		subtasks = make([]*domain.Subtask, 0, len(task.Subtasks))
		for _, subtaskID := range task.Subtasks {
			subtaskKey := buildKey(subtaskPrefix, subtaskID)
			var subtask domain.Subtask
			err := getJSON(txn, subtaskKey, &subtask)
			releaseKey(subtaskKey)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // Stale reference, skip
			}
			if err != nil {
				return fmt.Errorf("load subtask %s: %w", subtaskID, err)
			}
			if subtask.IsDeleted() {
				continue
			}
			subtasks = append(subtasks, &subtask)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return subtasks, nil
}

// UpdateSubtask persists in-place changes to a subtask.
func (s *Store) UpdateSubtask(_ context.Context, subtask *domain.Subtask) error {
	key := buildKey(subtaskPrefix, subtask.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check subtask exists: %w", err)
	}
	if !exists {
		return ErrSubtaskNotFound
	}

	subtask.Touch()
	if err := s.set(key, subtask); err != nil {
		return fmt.Errorf("update subtask: %w", err)
	}
	return nil
}

// deleteSubtaskRecord removes the subtask and detaches it from its task's
// subtask set in one transaction.
func (s *Store) deleteSubtaskRecord(_ context.Context, subtaskID string) error {
	subtaskKey := buildKey(subtaskPrefix, subtaskID)
	defer releaseKey(subtaskKey)

	return s.db.Update(func(txn *badger.Txn) error {
		var subtask domain.Subtask
		if err := getJSON(txn, subtaskKey, &subtask); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil // Already gone
			}
			return fmt.Errorf("load subtask for deletion: %w", err)
		}

		taskKey := []byte(taskPrefix + subtask.TaskID)

		var task domain.Task
		err := getJSON(txn, taskKey, &task)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// Parent task already deleted (task cascade); nothing to detach.
		case err != nil:
			return fmt.Errorf("load task: %w", err)
		default:
			if task.RemoveSubtask(subtaskID) {
				task.Touch()
				if err := setJSON(txn, taskKey, &task); err != nil {
					return err
				}
			}
		}

		return txn.Delete(subtaskKey)
	})
}
