package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	"github.com/taskboxapp/taskbox-server/internal/service"
)

func (s *Server) registerTaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List all tasks",
		Description: "Returns every task owned by the current user, listed or not",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetAllTasks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTask",
		Method:      http.MethodGet,
		Path:        "/tasks/{taskId}",
		Summary:     "Get task",
		Description: "Returns a single task owned by the current user",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "getListTasks",
		Method:      http.MethodGet,
		Path:        "/lists/{listId}/tasks",
		Summary:     "List tasks",
		Description: "Returns the tasks of a list owned by the current user",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetListTasks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTask",
		Method:        http.MethodPost,
		Path:          "/tasks/create",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create task",
		Description:   "Creates a task, optionally inside a list owned by the current user",
		Tags:          []string{"Tasks"},
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTask",
		Method:      http.MethodPatch,
		Path:        "/tasks/update/{taskId}",
		Summary:     "Update task",
		Description: "Updates task fields. Supplying list_id moves the task; an empty list_id detaches it.",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "completeTask",
		Method:      http.MethodPatch,
		Path:        "/tasks/complete/{taskId}",
		Summary:     "Complete task",
		Description: "Sets or clears task completion",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCompleteTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTask",
		Method:      http.MethodDelete,
		Path:        "/tasks/delete/{taskId}",
		Summary:     "Delete task",
		Description: "Deletes a task and its subtasks",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTask)
}

// === DTOs ===

// TaskResponse contains task data in API responses.
type TaskResponse struct {
	ID          string     `json:"id" doc:"Task ID"`
	Title       string     `json:"title" doc:"Task title"`
	Description string     `json:"description,omitempty" doc:"Task description"`
	IsCompleted bool       `json:"is_completed" doc:"Completion state"`
	CompletedAt *time.Time `json:"completed_at,omitempty" doc:"When the task was completed"`
	DueAt       *time.Time `json:"due_at,omitempty" doc:"Due date"`
	OwnerID     string     `json:"owner_id" doc:"Owning user ID"`
	ListID      string     `json:"list_id,omitempty" doc:"Parent list ID, empty for unlisted tasks"`
	Subtasks    []string   `json:"subtasks" doc:"IDs of subtasks"`
	CreatedAt   time.Time  `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time  `json:"updated_at" doc:"Last update timestamp"`
}

// TasksResponse contains a set of tasks.
type TasksResponse struct {
	Tasks []TaskResponse `json:"tasks" doc:"Tasks in the list"`
}

// TasksOutput wraps the tasks response for Huma.
type TasksOutput struct {
	Body TasksResponse
}

// TaskOutput wraps a single task response for Huma.
type TaskOutput struct {
	Body TaskResponse
}

// TaskIDInput contains parameters for operations on a single task.
type TaskIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	TaskID        string `path:"taskId" doc:"Task ID"`
}

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	ListID      string     `json:"list_id,omitempty" doc:"Parent list ID; omit for an unlisted task"`
	Title       string     `json:"title" doc:"Task title"`
	Description string     `json:"description,omitempty" doc:"Task description"`
	DueAt       *time.Time `json:"due_at,omitempty" doc:"Due date"`
}

// CreateTaskInput wraps the create task request for Huma.
type CreateTaskInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	Body          CreateTaskRequest
}

// UpdateTaskRequest is the request body for updating a task.
// Omitted fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty" doc:"New title"`
	Description *string    `json:"description,omitempty" doc:"New description"`
	DueAt       *time.Time `json:"due_at,omitempty" doc:"New due date"`
	ClearDueAt  bool       `json:"clear_due_at,omitempty" doc:"Remove the due date"`
	IsCompleted *bool      `json:"is_completed,omitempty" doc:"New completion state"`
	ListID      *string    `json:"list_id,omitempty" doc:"Move the task to this list; empty string detaches it"`
}

// UpdateTaskInput wraps the update task request for Huma.
type UpdateTaskInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	TaskID        string `path:"taskId" doc:"Task ID"`
	Body          UpdateTaskRequest
}

// CompleteTaskRequest is the request body for toggling completion.
type CompleteTaskRequest struct {
	IsCompleted bool `json:"is_completed" doc:"Desired completion state"`
}

// CompleteTaskInput wraps the complete task request for Huma.
type CompleteTaskInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	TaskID        string `path:"taskId" doc:"Task ID"`
	Body          CompleteTaskRequest
}

// === Handlers ===

func (s *Server) handleGetTask(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.GetTask(ctx, userID, input.TaskID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: mapTaskResponse(task)}, nil
}

func (s *Server) handleGetAllTasks(ctx context.Context, input *AuthenticatedInput) (*TasksOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	tasks, err := s.services.Task.GetAllTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = mapTaskResponse(t)
	}

	return &TasksOutput{Body: TasksResponse{Tasks: resp}}, nil
}

func (s *Server) handleGetListTasks(ctx context.Context, input *ListIDInput) (*TasksOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	tasks, err := s.services.Task.GetTasks(ctx, userID, input.ListID)
	if err != nil {
		return nil, err
	}

	resp := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = mapTaskResponse(t)
	}

	return &TasksOutput{Body: TasksResponse{Tasks: resp}}, nil
}

func (s *Server) handleCreateTask(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.CreateTask(ctx, userID, service.CreateTaskRequest{
		ListID:      input.Body.ListID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		DueAt:       input.Body.DueAt,
	})
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: mapTaskResponse(task)}, nil
}

func (s *Server) handleUpdateTask(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.UpdateTask(ctx, userID, input.TaskID, service.UpdateTaskRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		DueAt:       input.Body.DueAt,
		ClearDueAt:  input.Body.ClearDueAt,
		IsCompleted: input.Body.IsCompleted,
		ListID:      input.Body.ListID,
	})
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: mapTaskResponse(task)}, nil
}

func (s *Server) handleCompleteTask(ctx context.Context, input *CompleteTaskInput) (*TaskOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.SetTaskCompleted(ctx, userID, input.TaskID, input.Body.IsCompleted)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: mapTaskResponse(task)}, nil
}

func (s *Server) handleDeleteTask(ctx context.Context, input *TaskIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	if err := s.services.Task.DeleteTask(ctx, userID, input.TaskID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Task deleted"}}, nil
}

// === Helpers ===

func mapTaskResponse(task *domain.Task) TaskResponse {
	subtasks := task.Subtasks
	if subtasks == nil {
		subtasks = []string{}
	}

	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		IsCompleted: task.IsCompleted,
		CompletedAt: task.CompletedAt,
		DueAt:       task.DueAt,
		OwnerID:     task.OwnerID,
		ListID:      task.ListID,
		Subtasks:    subtasks,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
