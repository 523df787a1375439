package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	"github.com/taskboxapp/taskbox-server/internal/service"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLists",
		Method:      http.MethodGet,
		Path:        "/lists",
		Summary:     "List lists",
		Description: "Returns every list owned by the current user",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/lists/{listId}",
		Summary:     "Get list",
		Description: "Returns a single list owned by the current user",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/lists/create",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create list",
		Description:   "Creates a new list for the current user",
		Tags:          []string{"Lists"},
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateList",
		Method:      http.MethodPatch,
		Path:        "/lists/update/{listId}",
		Summary:     "Update list",
		Description: "Updates a list owned by the current user",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteList",
		Method:      http.MethodDelete,
		Path:        "/lists/delete/{listId}",
		Summary:     "Delete list",
		Description: "Deletes a list and every task and subtask in it",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteList)
}

// === DTOs ===

// ListResponse contains list data in API responses.
type ListResponse struct {
	ID        string    `json:"id" doc:"List ID"`
	Title     string    `json:"title" doc:"List title"`
	OwnerID   string    `json:"owner_id" doc:"Owning user ID"`
	Tasks     []string  `json:"tasks" doc:"IDs of tasks in the list"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// ListsResponse contains a set of lists.
type ListsResponse struct {
	Lists []ListResponse `json:"lists" doc:"Lists owned by the user"`
}

// ListsOutput wraps the lists response for Huma.
type ListsOutput struct {
	Body ListsResponse
}

// ListOutput wraps a single list response for Huma.
type ListOutput struct {
	Body ListResponse
}

// ListIDInput contains parameters for operations on a single list.
type ListIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	ListID        string `path:"listId" doc:"List ID"`
}

// CreateListRequest is the request body for creating a list.
type CreateListRequest struct {
	Title string `json:"title" doc:"List title"`
}

// CreateListInput wraps the create list request for Huma.
type CreateListInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	Body          CreateListRequest
}

// UpdateListRequest is the request body for updating a list.
type UpdateListRequest struct {
	Title *string `json:"title,omitempty" doc:"New list title"`
}

// UpdateListInput wraps the update list request for Huma.
type UpdateListInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	ListID        string `path:"listId" doc:"List ID"`
	Body          UpdateListRequest
}

// === Handlers ===

func (s *Server) handleGetLists(ctx context.Context, input *AuthenticatedInput) (*ListsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	lists, err := s.services.List.GetLists(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]ListResponse, len(lists))
	for i, l := range lists {
		resp[i] = mapListResponse(l)
	}

	return &ListsOutput{Body: ListsResponse{Lists: resp}}, nil
}

func (s *Server) handleGetList(ctx context.Context, input *ListIDInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	list, err := s.services.List.GetList(ctx, userID, input.ListID)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(list)}, nil
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	list, err := s.services.List.CreateList(ctx, userID, service.CreateListRequest{
		Title: input.Body.Title,
	})
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(list)}, nil
}

func (s *Server) handleUpdateList(ctx context.Context, input *UpdateListInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	list, err := s.services.List.UpdateList(ctx, userID, input.ListID, service.UpdateListRequest{
		Title: input.Body.Title,
	})
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(list)}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	if err := s.services.List.DeleteList(ctx, userID, input.ListID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "List deleted"}}, nil
}

// === Helpers ===

func mapListResponse(list *domain.List) ListResponse {
	tasks := list.Tasks
	if tasks == nil {
		tasks = []string{}
	}

	return ListResponse{
		ID:        list.ID,
		Title:     list.Title,
		OwnerID:   list.OwnerID,
		Tasks:     tasks,
		CreatedAt: list.CreatedAt,
		UpdatedAt: list.UpdatedAt,
	}
}
