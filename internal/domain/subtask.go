package domain

import "time"

// Subtask is a checklist item belonging to a task.
// OwnerID always matches the parent task's OwnerID.
type Subtask struct {
	Syncable
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OwnerID     string     `json:"owner_id"`
	TaskID      string     `json:"task_id"`
}

// SetCompleted toggles completion and keeps CompletedAt consistent:
// it is non-nil exactly when IsCompleted is true.
func (s *Subtask) SetCompleted(completed bool) {
	s.IsCompleted = completed
	if completed {
		now := time.Now()
		s.CompletedAt = &now
	} else {
		s.CompletedAt = nil
	}
}
