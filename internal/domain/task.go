package domain

import "time"

// Task is a single to-do item. ListID names the list holding it; an empty
// ListID means the task hangs directly off its owner, outside any list.
// Subtasks holds the IDs of its subtasks; each subtask points back via
// Subtask.TaskID. When listed, OwnerID matches the owning list's OwnerID.
type Task struct {
	Syncable
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	OwnerID     string     `json:"owner_id"`
	ListID      string     `json:"list_id,omitempty"`
	Subtasks    []string   `json:"subtasks"`
}

// SetCompleted toggles completion and keeps CompletedAt consistent:
// it is non-nil exactly when IsCompleted is true.
func (t *Task) SetCompleted(completed bool) {
	t.IsCompleted = completed
	if completed {
		now := time.Now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

// HasSubtask reports whether the given subtask ID appears in the task's set.
func (t *Task) HasSubtask(subtaskID string) bool {
	for _, id := range t.Subtasks {
		if id == subtaskID {
			return true
		}
	}
	return false
}

// RemoveSubtask removes the given subtask ID from the task's subtask set.
// Returns true if the ID was present.
func (t *Task) RemoveSubtask(subtaskID string) bool {
	for i, id := range t.Subtasks {
		if id == subtaskID {
			t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
			return true
		}
	}
	return false
}
