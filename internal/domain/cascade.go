package domain

import (
	"context"
)

// CascadeDeleter is implemented by the store so cascade rules can walk
// the ownership graph without loading full entities.
type CascadeDeleter interface {
	// GetUserListIDs retrieves list IDs owned by a user.
	GetUserListIDs(ctx context.Context, userID string) ([]string, error)
	// GetUserUnlistedTaskIDs retrieves IDs of tasks the user owns directly,
	// outside any list. List-held tasks are reached through their list.
	GetUserUnlistedTaskIDs(ctx context.Context, userID string) ([]string, error)
	// GetListTaskIDs retrieves task IDs in a list without loading full task data.
	GetListTaskIDs(ctx context.Context, listID string) ([]string, error)
	// GetTaskSubtaskIDs retrieves subtask IDs of a task.
	GetTaskSubtaskIDs(ctx context.Context, taskID string) ([]string, error)
	// DeleteEntity removes a single entity by type and ID.
	DeleteEntity(ctx context.Context, entityType string, id string) error
}

// CascadeTaskDelete deletes a task and every subtask under it.
// Deletes bottom-up so a partial failure never strands orphaned children
// behind an already-removed parent.
func CascadeTaskDelete(ctx context.Context, deleter CascadeDeleter, taskID string) error {
	subtaskIDs, err := deleter.GetTaskSubtaskIDs(ctx, taskID)
	if err != nil {
		return err
	}

	for _, subtaskID := range subtaskIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := deleter.DeleteEntity(ctx, "subtask", subtaskID); err != nil {
			return err
		}
	}

	return deleter.DeleteEntity(ctx, "task", taskID)
}

// CascadeListDelete deletes a list, its tasks, and their subtasks.
func CascadeListDelete(ctx context.Context, deleter CascadeDeleter, listID string) error {
	taskIDs, err := deleter.GetListTaskIDs(ctx, listID)
	if err != nil {
		return err
	}

	for _, taskID := range taskIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := CascadeTaskDelete(ctx, deleter, taskID); err != nil {
			return err
		}
	}

	return deleter.DeleteEntity(ctx, "list", listID)
}

// CascadeUserDelete deletes everything a user owns, then the user itself.
func CascadeUserDelete(ctx context.Context, deleter CascadeDeleter, userID string) error {
	listIDs, err := deleter.GetUserListIDs(ctx, userID)
	if err != nil {
		return err
	}

	for _, listID := range listIDs {
		if err := CascadeListDelete(ctx, deleter, listID); err != nil {
			return err
		}
	}

	// Unlisted tasks have no list to cascade through.
	taskIDs, err := deleter.GetUserUnlistedTaskIDs(ctx, userID)
	if err != nil {
		return err
	}

	for _, taskID := range taskIDs {
		if err := CascadeTaskDelete(ctx, deleter, taskID); err != nil {
			return err
		}
	}

	return deleter.DeleteEntity(ctx, "user", userID)
}
