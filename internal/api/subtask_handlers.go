package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	"github.com/taskboxapp/taskbox-server/internal/service"
)

func (s *Server) registerSubtaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTaskSubtasks",
		Method:      http.MethodGet,
		Path:        "/tasks/{taskId}/subtasks",
		Summary:     "List subtasks",
		Description: "Returns the subtasks of a task owned by the current user",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTaskSubtasks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSubtask",
		Method:        http.MethodPost,
		Path:          "/subtasks/create/{taskId}",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create subtask",
		Description:   "Creates a subtask in a task owned by the current user",
		Tags:          []string{"Subtasks"},
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateSubtask)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSubtask",
		Method:      http.MethodPatch,
		Path:        "/subtasks/update/{subtaskId}",
		Summary:     "Update subtask",
		Description: "Updates subtask fields",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSubtask)

	huma.Register(s.api, huma.Operation{
		OperationID: "completeSubtask",
		Method:      http.MethodPatch,
		Path:        "/subtasks/complete/{subtaskId}",
		Summary:     "Complete subtask",
		Description: "Sets or clears subtask completion",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCompleteSubtask)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSubtask",
		Method:      http.MethodDelete,
		Path:        "/subtasks/delete/{subtaskId}",
		Summary:     "Delete subtask",
		Description: "Deletes a subtask and detaches it from its task",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSubtask)
}

// === DTOs ===

// SubtaskResponse contains subtask data in API responses.
type SubtaskResponse struct {
	ID          string     `json:"id" doc:"Subtask ID"`
	Title       string     `json:"title" doc:"Subtask title"`
	Description string     `json:"description,omitempty" doc:"Subtask description"`
	IsCompleted bool       `json:"is_completed" doc:"Completion state"`
	CompletedAt *time.Time `json:"completed_at,omitempty" doc:"When the subtask was completed"`
	OwnerID     string     `json:"owner_id" doc:"Owning user ID"`
	TaskID      string     `json:"task_id" doc:"Parent task ID"`
	CreatedAt   time.Time  `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time  `json:"updated_at" doc:"Last update timestamp"`
}

// SubtasksResponse contains a set of subtasks.
type SubtasksResponse struct {
	Subtasks []SubtaskResponse `json:"subtasks" doc:"Subtasks of the task"`
}

// SubtasksOutput wraps the subtasks response for Huma.
type SubtasksOutput struct {
	Body SubtasksResponse
}

// SubtaskOutput wraps a single subtask response for Huma.
type SubtaskOutput struct {
	Body SubtaskResponse
}

// SubtaskIDInput contains parameters for operations on a single subtask.
type SubtaskIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	SubtaskID     string `path:"subtaskId" doc:"Subtask ID"`
}

// CreateSubtaskRequest is the request body for creating a subtask.
// The parent task comes from the path.
type CreateSubtaskRequest struct {
	Title       string `json:"title" doc:"Subtask title"`
	Description string `json:"description,omitempty" doc:"Subtask description"`
}

// CreateSubtaskInput wraps the create subtask request for Huma.
type CreateSubtaskInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	TaskID        string `path:"taskId" doc:"Parent task ID"`
	Body          CreateSubtaskRequest
}

// UpdateSubtaskRequest is the request body for updating a subtask.
type UpdateSubtaskRequest struct {
	Title       *string `json:"title,omitempty" doc:"New title"`
	Description *string `json:"description,omitempty" doc:"New description"`
	IsCompleted *bool   `json:"is_completed,omitempty" doc:"New completion state"`
}

// UpdateSubtaskInput wraps the update subtask request for Huma.
type UpdateSubtaskInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	SubtaskID     string `path:"subtaskId" doc:"Subtask ID"`
	Body          UpdateSubtaskRequest
}

// CompleteSubtaskInput wraps the complete subtask request for Huma.
type CompleteSubtaskInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	SubtaskID     string `path:"subtaskId" doc:"Subtask ID"`
	Body          CompleteTaskRequest
}

// === Handlers ===

func (s *Server) handleGetTaskSubtasks(ctx context.Context, input *TaskIDInput) (*SubtasksOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	subtasks, err := s.services.Subtask.GetSubtasks(ctx, userID, input.TaskID)
	if err != nil {
		return nil, err
	}

	resp := make([]SubtaskResponse, len(subtasks))
	for i, st := range subtasks {
		resp[i] = mapSubtaskResponse(st)
	}

	return &SubtasksOutput{Body: SubtasksResponse{Subtasks: resp}}, nil
}

func (s *Server) handleCreateSubtask(ctx context.Context, input *CreateSubtaskInput) (*SubtaskOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	subtask, err := s.services.Subtask.CreateSubtask(ctx, userID, service.CreateSubtaskRequest{
		TaskID:      input.TaskID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}

	return &SubtaskOutput{Body: mapSubtaskResponse(subtask)}, nil
}

func (s *Server) handleUpdateSubtask(ctx context.Context, input *UpdateSubtaskInput) (*SubtaskOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	subtask, err := s.services.Subtask.UpdateSubtask(ctx, userID, input.SubtaskID, service.UpdateSubtaskRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		IsCompleted: input.Body.IsCompleted,
	})
	if err != nil {
		return nil, err
	}

	return &SubtaskOutput{Body: mapSubtaskResponse(subtask)}, nil
}

func (s *Server) handleCompleteSubtask(ctx context.Context, input *CompleteSubtaskInput) (*SubtaskOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	subtask, err := s.services.Subtask.SetSubtaskCompleted(ctx, userID, input.SubtaskID, input.Body.IsCompleted)
	if err != nil {
		return nil, err
	}

	return &SubtaskOutput{Body: mapSubtaskResponse(subtask)}, nil
}

func (s *Server) handleDeleteSubtask(ctx context.Context, input *SubtaskIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	if err := s.services.Subtask.DeleteSubtask(ctx, userID, input.SubtaskID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Subtask deleted"}}, nil
}

// === Helpers ===

func mapSubtaskResponse(subtask *domain.Subtask) SubtaskResponse {
	return SubtaskResponse{
		ID:          subtask.ID,
		Title:       subtask.Title,
		Description: subtask.Description,
		IsCompleted: subtask.IsCompleted,
		CompletedAt: subtask.CompletedAt,
		OwnerID:     subtask.OwnerID,
		TaskID:      subtask.TaskID,
		CreatedAt:   subtask.CreatedAt,
		UpdatedAt:   subtask.UpdatedAt,
	}
}
