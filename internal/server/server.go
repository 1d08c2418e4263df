package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/viktor-siropol/taskhub/internal/auth"
	"github.com/viktor-siropol/taskhub/internal/config"
	"github.com/viktor-siropol/taskhub/internal/project"
)

// ProjectStore is the workspace/project/task surface the handlers depend on,
// implemented by project.Repository.
type ProjectStore interface {
	CreateWorkspace(ctx context.Context, name string, description *string, color, ownerID string) (*project.Workspace, error)
	ListWorkspacesForUser(ctx context.Context, userID string) ([]project.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (*project.Workspace, error)
	ListMembers(ctx context.Context, workspaceID string) ([]project.Member, error)
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)

	CreateProject(ctx context.Context, workspaceID, title string, description *string, status string, startDate, dueDate *time.Time) (*project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	ListWorkspaceProjects(ctx context.Context, workspaceID string) ([]project.Project, error)
	CanAccessProject(ctx context.Context, projectID, userID string) (bool, error)

	CreateTask(ctx context.Context, t *project.Task) (*project.Task, error)
	GetTask(ctx context.Context, id string) (*project.Task, error)
	CanAccessTask(ctx context.Context, taskID, userID string) (bool, error)
	ListProjectTasks(ctx context.Context, projectID string) ([]project.Task, error)
	ListUserTasks(ctx context.Context, userID string) ([]project.Task, error)
	UpdateTaskField(ctx context.Context, taskID, column, value string) (*project.Task, error)
	UpdateTaskAssignees(ctx context.Context, taskID string, assignees []string) (*project.Task, error)
	ToggleWatch(ctx context.Context, taskID, userID string) (*project.Task, error)
	ToggleArchive(ctx context.Context, taskID string) (*project.Task, error)
	AddSubtask(ctx context.Context, taskID, title string) (*project.Subtask, error)
	UpdateSubtask(ctx context.Context, taskID, subtaskID string, completed bool) (*project.Subtask, error)
	ListSubtasks(ctx context.Context, taskID string) ([]project.Subtask, error)
	AddComment(ctx context.Context, taskID, authorID, text string) (*project.Comment, error)
	ListComments(ctx context.Context, taskID string) ([]project.Comment, error)
	RecordActivity(ctx context.Context, userID, resourceType, resourceID, action string, details *string) error
	ListActivity(ctx context.Context, resourceID string) ([]project.Activity, error)
}

type Server struct {
	Auth     *auth.Service
	Users    *auth.UserRepository
	Projects ProjectStore
	Config   config.Config
}

func NewServer(cfg config.Config, authSvc *auth.Service, users *auth.UserRepository, projects ProjectStore) *Server {
	return &Server{
		Auth:     authSvc,
		Users:    users,
		Projects: projects,
		Config:   cfg,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	formatter := &middleware.DefaultLogFormatter{
		Logger:  log.New(log.Writer(), "", log.Flags()),
		NoColor: true,
	}
	r.Use(middleware.RequestLogger(formatter))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)
	r.Use(s.cors)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.handleRegister)
		api.Post("/auth/login", s.handleLogin)
		api.Post("/auth/verify-email", s.handleVerifyEmail)
		api.Post("/auth/reset-password-request", s.handleResetPasswordRequest)
		api.Post("/auth/reset-password", s.handleResetPassword)

		api.Group(func(pr chi.Router) {
			pr.Use(s.requireAuth)

			pr.Get("/users/profile", s.handleGetProfile)
			pr.Put("/users/profile", s.handleUpdateProfile)
			pr.Put("/users/change-password", s.handleChangePassword)

			pr.Post("/workspaces", s.handleCreateWorkspace)
			pr.Get("/workspaces", s.handleListWorkspaces)
			pr.Get("/workspaces/{workspaceID}", s.handleGetWorkspace)
			pr.Get("/workspaces/{workspaceID}/projects", s.handleListWorkspaceProjects)

			pr.Post("/projects/{workspaceID}/create-project", s.handleCreateProject)
			pr.Get("/projects/{projectID}", s.handleGetProject)
			pr.Get("/projects/{projectID}/tasks", s.handleGetProjectTasks)

			pr.Post("/tasks/{projectID}/create-task", s.handleCreateTask)
			pr.Get("/tasks/my-tasks", s.handleMyTasks)
			pr.Get("/tasks/{taskID}", s.handleGetTask)
			pr.Put("/tasks/{taskID}/title", s.handleUpdateTaskTitle)
			pr.Put("/tasks/{taskID}/description", s.handleUpdateTaskDescription)
			pr.Put("/tasks/{taskID}/status", s.handleUpdateTaskStatus)
			pr.Put("/tasks/{taskID}/priority", s.handleUpdateTaskPriority)
			pr.Put("/tasks/{taskID}/assignees", s.handleUpdateTaskAssignees)
			pr.Post("/tasks/{taskID}/add-subtask", s.handleAddSubtask)
			pr.Put("/tasks/{taskID}/update-subtask/{subTaskID}", s.handleUpdateSubtask)
			pr.Post("/tasks/{taskID}/add-comment", s.handleAddComment)
			pr.Get("/tasks/{taskID}/comments", s.handleGetComments)
			pr.Post("/tasks/{taskID}/watch", s.handleWatchTask)
			pr.Post("/tasks/{taskID}/achieved", s.handleArchiveTask)
			pr.Get("/tasks/{taskID}/activity", s.handleGetActivity)
		})
	})

	return r
}
