package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// The store implements domain.CascadeDeleter so cascade rules can walk the
// ownership graph by ID without loading full entities into services.

// GetUserListIDs returns the IDs of lists owned by a user.
func (s *Store) GetUserListIDs(ctx context.Context, userID string) ([]string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user.Lists, nil
}

// GetUserUnlistedTaskIDs returns the IDs of tasks the user owns outside any
// list. Tasks held by a list are reached through that list instead.
func (s *Store) GetUserUnlistedTaskIDs(_ context.Context, userID string) ([]string, error) {
	prefix := []byte(taskPrefix)
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var task struct {
					ID      string `json:"id"`
					OwnerID string `json:"owner_id"`
					ListID  string `json:"list_id"`
				}
				if unmarshalErr := json.Unmarshal(val, &task); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				if task.OwnerID == userID && task.ListID == "" {
					ids = append(ids, task.ID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list unlisted tasks: %w", err)
	}

	return ids, nil
}

// GetListTaskIDs returns the IDs of tasks in a list.
func (s *Store) GetListTaskIDs(_ context.Context, listID string) ([]string, error) {
	key := buildKey(listPrefix, listID)
	defer releaseKey(key)

	var list struct {
		Tasks []string `json:"tasks"`
	}
	if err := s.get(key, &list); err != nil {
		return nil, nil //nolint:nilerr // missing list has no tasks to cascade
	}
	return list.Tasks, nil
}

// GetTaskSubtaskIDs returns the IDs of subtasks of a task.
func (s *Store) GetTaskSubtaskIDs(_ context.Context, taskID string) ([]string, error) {
	key := buildKey(taskPrefix, taskID)
	defer releaseKey(key)

	var task struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := s.get(key, &task); err != nil {
		return nil, nil //nolint:nilerr // missing task has no subtasks to cascade
	}
	return task.Subtasks, nil
}

// DeleteEntity removes a single entity by type and ID, detaching it from
// its parent's reference set in the same transaction.
func (s *Store) DeleteEntity(ctx context.Context, entityType, id string) error {
	switch entityType {
	case "subtask":
		return s.deleteSubtaskRecord(ctx, id)
	case "task":
		return s.deleteTaskRecord(ctx, id)
	case "list":
		return s.deleteListRecord(ctx, id)
	case "user":
		return s.deleteUserRecord(ctx, id)
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}
}

// deleteUserRecord removes the user, its email index, and all its sessions.
// Owned lists are expected to be cascade-deleted before this runs.
func (s *Store) deleteUserRecord(ctx context.Context, userID string) error {
	if err := s.DeleteAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return s.Users.Delete(ctx, userID)
}
