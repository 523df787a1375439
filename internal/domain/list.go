package domain

// List is a named collection of tasks owned by a single user.
// Tasks holds the IDs of every task in the list; each task points back
// via Task.ListID. Both sides are updated in the same store transaction.
type List struct {
	Syncable
	Title   string   `json:"title"`
	OwnerID string   `json:"owner_id"`
	Tasks   []string `json:"tasks"`
}

// HasTask reports whether the given task ID appears in the list's task set.
func (l *List) HasTask(taskID string) bool {
	for _, id := range l.Tasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// RemoveTask removes the given task ID from the list's task set.
// Returns true if the ID was present.
func (l *List) RemoveTask(taskID string) bool {
	for i, id := range l.Tasks {
		if id == taskID {
			l.Tasks = append(l.Tasks[:i], l.Tasks[i+1:]...)
			return true
		}
	}
	return false
}
