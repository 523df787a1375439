package api

import (
	"github.com/taskboxapp/taskbox-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Instance *service.InstanceService
	Auth     *service.AuthService
	User     *service.UserService
	List     *service.ListService
	Task     *service.TaskService
	Subtask  *service.SubtaskService
	Search   *service.SearchService
}
