package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/taskboxapp/taskbox-server/internal/domain"
)

const taskPrefix = "task:"

// ErrTaskNotFound is returned when a task cannot be found or is owned by
// someone else. Indistinguishable on purpose, see ErrListNotFound.
var ErrTaskNotFound = errors.New("task not found")

// CreateTask creates a task. With a list ID set, the parent list must exist
// and belong to the task's owner, and the task ID is appended to its task
// set; the lookup and both writes share one transaction. With an empty list
// ID the task hangs directly off its owner.
func (s *Store) CreateTask(_ context.Context, task *domain.Task) error {
	taskKey := buildKey(taskPrefix, task.ID)
	defer releaseKey(taskKey)

	err := s.db.Update(func(txn *badger.Txn) error {
		if task.ListID == "" {
			userKey := []byte(userPrefix + task.OwnerID)

			var owner domain.User
			if err := getJSON(txn, userKey, &owner); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return ErrUserNotFound
				}
				return fmt.Errorf("load owner: %w", err)
			}
			if owner.IsDeleted() {
				return ErrUserNotFound
			}

			if _, err := txn.Get(taskKey); err == nil {
				return ErrAlreadyExists
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check task exists: %w", err)
			}

			return setJSON(txn, taskKey, task)
		}

		listKey := []byte(listPrefix + task.ListID)

		var list domain.List
		if err := getJSON(txn, listKey, &list); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrListNotFound
			}
			return fmt.Errorf("load list: %w", err)
		}
		if list.IsDeleted() || list.OwnerID != task.OwnerID {
			return ErrListNotFound
		}

		if _, err := txn.Get(taskKey); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check task exists: %w", err)
		}

		list.Tasks = append(list.Tasks, task.ID)
		list.Touch()

		if err := setJSON(txn, taskKey, task); err != nil {
			return err
		}
		return setJSON(txn, listKey, &list)
	})
	if err != nil {
		return err
	}

	s.indexTask(task)
	return nil
}

// GetTask retrieves a task scoped to its owner.
func (s *Store) GetTask(_ context.Context, ownerID, taskID string) (*domain.Task, error) {
	key := buildKey(taskPrefix, taskID)
	defer releaseKey(key)

	var task domain.Task
	if err := s.get(key, &task); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	if task.IsDeleted() || task.OwnerID != ownerID {
		return nil, ErrTaskNotFound
	}

	return &task, nil
}

// ListTasksByList returns the tasks of a list, in list order, scoped to the
// owner. The list lookup and the task reads share a read transaction so the
// task set can't shift underneath the scan.
func (s *Store) ListTasksByList(_ context.Context, ownerID, listID string) ([]*domain.Task, error) {
	listKey := buildKey(listPrefix, listID)
	defer releaseKey(listKey)

	var tasks []*domain.Task
	err := s.db.View(func(txn *badger.Txn) error {
		var list domain.List
		if err := getJSON(txn, listKey, &list); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrListNotFound
			}
			return fmt.Errorf("load list: %w", err)
		}
		if list.IsDeleted() || list.OwnerID != ownerID {
			return ErrListNotFound
		}

		tasks = make([]*domain.Task, 0, len(list.Tasks))
		for _, taskID := range list.Tasks {
			taskKey := buildKey(taskPrefix, taskID)
			var task domain.Task
			err := getJSON(txn, taskKey, &task)
			releaseKey(taskKey)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // Stale reference, skip
			}
			if err != nil {
				return fmt.Errorf("load task %s: %w", taskID, err)
			}
			if task.IsDeleted() {
				continue
			}
			tasks = append(tasks, &task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListTasksByOwner returns every task owned by the given user, listed or
// not. Ownership is part of the scan predicate, not a post-filter in
// callers.
func (s *Store) ListTasksByOwner(_ context.Context, ownerID string) ([]*domain.Task, error) {
	prefix := []byte(taskPrefix)
	var tasks []*domain.Task

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var task domain.Task
				if unmarshalErr := json.Unmarshal(val, &task); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				if task.IsDeleted() || task.OwnerID != ownerID {
					return nil
				}
				tasks = append(tasks, &task)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks by owner: %w", err)
	}

	return tasks, nil
}

// ListAllTasks returns every live task regardless of owner.
// Used by full reindex; API reads go through ListTasksByList.
func (s *Store) ListAllTasks(_ context.Context) ([]*domain.Task, error) {
	prefix := []byte(taskPrefix)
	var tasks []*domain.Task

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var task domain.Task
				if unmarshalErr := json.Unmarshal(val, &task); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				if task.IsDeleted() {
					return nil
				}
				tasks = append(tasks, &task)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask persists in-place changes to a task (title, description,
// completion, due date). Moving between lists goes through MoveTask.
func (s *Store) UpdateTask(_ context.Context, task *domain.Task) error {
	key := buildKey(taskPrefix, task.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check task exists: %w", err)
	}
	if !exists {
		return ErrTaskNotFound
	}

	task.Touch()
	if err := s.set(key, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	s.indexTask(task)
	return nil
}

// MoveTask reattaches a task to another list owned by the same user, or
// detaches it entirely when newListID is empty. The task and both affected
// task sets are rewritten in a single transaction: the task ID never
// appears in two lists, or lingers in a list it left, mid-move.
func (s *Store) MoveTask(_ context.Context, ownerID, taskID, newListID string) (*domain.Task, error) {
	taskKey := buildKey(taskPrefix, taskID)
	defer releaseKey(taskKey)

	var moved domain.Task
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, taskKey, &moved); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("load task: %w", err)
		}
		if moved.IsDeleted() || moved.OwnerID != ownerID {
			return ErrTaskNotFound
		}
		if moved.ListID == newListID {
			return nil // Already there
		}

		// Validate the target before touching anything.
		var newList domain.List
		if newListID != "" {
			newListKey := []byte(listPrefix + newListID)
			if err := getJSON(txn, newListKey, &newList); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return ErrListNotFound
				}
				return fmt.Errorf("load target list: %w", err)
			}
			if newList.IsDeleted() || newList.OwnerID != ownerID {
				return ErrListNotFound
			}
		}

		if moved.ListID != "" {
			oldListKey := []byte(listPrefix + moved.ListID)

			var oldList domain.List
			err := getJSON(txn, oldListKey, &oldList)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				// Source list already gone; nothing to detach.
			case err != nil:
				return fmt.Errorf("load source list: %w", err)
			default:
				if oldList.RemoveTask(taskID) {
					oldList.Touch()
					if err := setJSON(txn, oldListKey, &oldList); err != nil {
						return err
					}
				}
			}
		}

		if newListID != "" {
			newList.Tasks = append(newList.Tasks, taskID)
			newList.Touch()
			newListKey := []byte(listPrefix + newListID)
			if err := setJSON(txn, newListKey, &newList); err != nil {
				return err
			}
		}

		moved.ListID = newListID
		moved.Touch()
		return setJSON(txn, taskKey, &moved)
	})
	if err != nil {
		return nil, err
	}

	s.indexTask(&moved)
	return &moved, nil
}

// deleteTaskRecord removes the task and detaches it from its list's task
// set in one transaction. Subtasks are deleted by cascade rules first.
func (s *Store) deleteTaskRecord(_ context.Context, taskID string) error {
	taskKey := buildKey(taskPrefix, taskID)
	defer releaseKey(taskKey)

	err := s.db.Update(func(txn *badger.Txn) error {
		var task domain.Task
		if err := getJSON(txn, taskKey, &task); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil // Already gone
			}
			return fmt.Errorf("load task for deletion: %w", err)
		}

		if task.ListID != "" {
			listKey := []byte(listPrefix + task.ListID)

			var list domain.List
			err := getJSON(txn, listKey, &list)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				// Parent list already deleted (list cascade); nothing to detach.
			case err != nil:
				return fmt.Errorf("load list: %w", err)
			default:
				if list.RemoveTask(taskID) {
					list.Touch()
					if err := setJSON(txn, listKey, &list); err != nil {
						return err
					}
				}
			}
		}

		return txn.Delete(taskKey)
	})
	if err != nil {
		return err
	}

	s.unindexTask(taskID)
	return nil
}

// indexTask pushes a task into the search index, best effort.
func (s *Store) indexTask(task *domain.Task) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexTask(context.Background(), task); err != nil && s.logger != nil {
		s.logger.Warn("failed to index task", "task_id", task.ID, "error", err)
	}
}

// unindexTask removes a task from the search index, best effort.
func (s *Store) unindexTask(taskID string) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.DeleteTask(context.Background(), taskID); err != nil && s.logger != nil {
		s.logger.Warn("failed to unindex task", "task_id", taskID, "error", err)
	}
}
