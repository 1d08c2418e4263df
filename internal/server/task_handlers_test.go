package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/viktor-siropol/taskhub/internal/auth"
	"github.com/viktor-siropol/taskhub/internal/project"
)

// stubProjectStore serves the handler tests; only the task access path and
// the activity feed are configurable, everything else returns zero values.
type stubProjectStore struct {
	member     bool
	task       *project.Task
	activities []project.Activity
}

func (s *stubProjectStore) CreateWorkspace(context.Context, string, *string, string, string) (*project.Workspace, error) {
	return nil, nil
}
func (s *stubProjectStore) ListWorkspacesForUser(context.Context, string) ([]project.Workspace, error) {
	return nil, nil
}
func (s *stubProjectStore) GetWorkspace(context.Context, string) (*project.Workspace, error) {
	return nil, nil
}
func (s *stubProjectStore) ListMembers(context.Context, string) ([]project.Member, error) {
	return nil, nil
}
func (s *stubProjectStore) IsMember(context.Context, string, string) (bool, error) {
	return s.member, nil
}
func (s *stubProjectStore) CreateProject(context.Context, string, string, *string, string, *time.Time, *time.Time) (*project.Project, error) {
	return nil, nil
}
func (s *stubProjectStore) GetProject(context.Context, string) (*project.Project, error) {
	return nil, nil
}
func (s *stubProjectStore) ListWorkspaceProjects(context.Context, string) ([]project.Project, error) {
	return nil, nil
}
func (s *stubProjectStore) CanAccessProject(context.Context, string, string) (bool, error) {
	return s.member, nil
}
func (s *stubProjectStore) CreateTask(context.Context, *project.Task) (*project.Task, error) {
	return nil, nil
}
func (s *stubProjectStore) GetTask(_ context.Context, id string) (*project.Task, error) {
	if s.task != nil && s.task.ID == id {
		out := *s.task
		return &out, nil
	}
	return nil, nil
}
func (s *stubProjectStore) CanAccessTask(context.Context, string, string) (bool, error) {
	return s.member, nil
}
func (s *stubProjectStore) ListProjectTasks(context.Context, string) ([]project.Task, error) {
	return nil, nil
}
func (s *stubProjectStore) ListUserTasks(context.Context, string) ([]project.Task, error) {
	return nil, nil
}
func (s *stubProjectStore) UpdateTaskField(context.Context, string, string, string) (*project.Task, error) {
	return nil, nil
}
func (s *stubProjectStore) UpdateTaskAssignees(context.Context, string, []string) (*project.Task, error) {
	return nil, nil
}
func (s *stubProjectStore) ToggleWatch(context.Context, string, string) (*project.Task, error) {
	return nil, nil
}
func (s *stubProjectStore) ToggleArchive(context.Context, string) (*project.Task, error) {
	return nil, nil
}
func (s *stubProjectStore) AddSubtask(context.Context, string, string) (*project.Subtask, error) {
	return nil, nil
}
func (s *stubProjectStore) UpdateSubtask(context.Context, string, string, bool) (*project.Subtask, error) {
	return nil, nil
}
func (s *stubProjectStore) ListSubtasks(context.Context, string) ([]project.Subtask, error) {
	return nil, nil
}
func (s *stubProjectStore) AddComment(context.Context, string, string, string) (*project.Comment, error) {
	return nil, nil
}
func (s *stubProjectStore) ListComments(context.Context, string) ([]project.Comment, error) {
	return nil, nil
}
func (s *stubProjectStore) RecordActivity(context.Context, string, string, string, string, *string) error {
	return nil
}
func (s *stubProjectStore) ListActivity(context.Context, string) ([]project.Activity, error) {
	return s.activities, nil
}

func taskRequest(t *testing.T, taskID string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+taskID+"/activity", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("taskID", taskID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, userContextKey, &auth.User{ID: "user-1"})
	return req.WithContext(ctx)
}

func TestGetActivityRefusesNonMember(t *testing.T) {
	srv := &Server{Projects: &stubProjectStore{
		member: false,
		task:   &project.Task{ID: "task-1"},
	}}

	rec := httptest.NewRecorder()
	srv.handleGetActivity(rec, taskRequest(t, "task-1"))

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetActivityForMember(t *testing.T) {
	srv := &Server{Projects: &stubProjectStore{
		member: true,
		task:   &project.Task{ID: "task-1"},
		activities: []project.Activity{
			{ID: "act-1", UserID: "user-1", ResourceType: "task", ResourceID: "task-1", Action: "created_task"},
		},
	}}

	rec := httptest.NewRecorder()
	srv.handleGetActivity(rec, taskRequest(t, "task-1"))

	require.Equal(t, http.StatusOK, rec.Code)

	var activities []project.Activity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&activities))
	require.Len(t, activities, 1)
	require.Equal(t, "task-1", activities[0].ResourceID)
}

func TestGetActivityUnknownTask(t *testing.T) {
	srv := &Server{Projects: &stubProjectStore{member: true}}

	rec := httptest.NewRecorder()
	srv.handleGetActivity(rec, taskRequest(t, "task-9"))

	require.Equal(t, http.StatusNotFound, rec.Code)
}
