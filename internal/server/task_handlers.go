package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viktor-siropol/taskhub/internal/project"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Assignees   []string   `json:"assignees"`
	DueDate     *time.Time `json:"dueDate"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}
	if req.Status != "" && !project.ValidTaskStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Invalid task status")
		return
	}
	if req.Priority != "" && !project.ValidPriority(req.Priority) {
		writeError(w, http.StatusBadRequest, "Invalid task priority")
		return
	}

	allowed, err := s.Projects.CanAccessProject(r.Context(), projectID, user.ID)
	if err != nil {
		log.Printf("project access: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		return
	}

	task, err := s.Projects.CreateTask(r.Context(), &project.Task{
		ProjectID:   projectID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Assignees:   req.Assignees,
		CreatedBy:   user.ID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		log.Printf("create task: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	s.recordTaskActivity(r, task.ID, "created_task", nil)
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	subtasks, err := s.Projects.ListSubtasks(r.Context(), task.ID)
	if err != nil {
		log.Printf("list subtasks: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task":     task,
		"subtasks": subtasks,
	})
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	tasks, err := s.Projects.ListUserTasks(r.Context(), user.ID)
	if err != nil {
		log.Printf("my tasks: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

type updateTaskTextRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

func (s *Server) handleUpdateTaskTitle(w http.ResponseWriter, r *http.Request) {
	var req updateTaskTextRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}
	s.updateTaskField(w, r, "title", strings.TrimSpace(req.Title), "updated_task_title")
}

func (s *Server) handleUpdateTaskDescription(w http.ResponseWriter, r *http.Request) {
	var req updateTaskTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.updateTaskField(w, r, "description", req.Description, "updated_task_description")
}

func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req updateTaskTextRequest
	if err := decodeJSON(r, &req); err != nil || !project.ValidTaskStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Invalid task status")
		return
	}
	s.updateTaskField(w, r, "status", req.Status, "updated_task_status")
}

func (s *Server) handleUpdateTaskPriority(w http.ResponseWriter, r *http.Request) {
	var req updateTaskTextRequest
	if err := decodeJSON(r, &req); err != nil || !project.ValidPriority(req.Priority) {
		writeError(w, http.StatusBadRequest, "Invalid task priority")
		return
	}
	s.updateTaskField(w, r, "priority", req.Priority, "updated_task_priority")
}

type updateAssigneesRequest struct {
	Assignees []string `json:"assignees"`
}

func (s *Server) handleUpdateTaskAssignees(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	var req updateAssigneesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.Projects.UpdateTaskAssignees(r.Context(), task.ID, req.Assignees)
	if err != nil {
		log.Printf("update assignees: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	s.recordTaskActivity(r, task.ID, "updated_task_assignees", nil)
	writeJSON(w, http.StatusOK, updated)
}

type addSubtaskRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	var req addSubtaskRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Subtask title is required")
		return
	}

	subtask, err := s.Projects.AddSubtask(r.Context(), task.ID, strings.TrimSpace(req.Title))
	if err != nil {
		log.Printf("add subtask: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add subtask")
		return
	}

	s.recordTaskActivity(r, task.ID, "added_subtask", nil)
	writeJSON(w, http.StatusCreated, subtask)
}

type updateSubtaskRequest struct {
	Completed bool `json:"completed"`
}

func (s *Server) handleUpdateSubtask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	subtaskID := chi.URLParam(r, "subTaskID")

	var req updateSubtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	subtask, err := s.Projects.UpdateSubtask(r.Context(), task.ID, subtaskID, req.Completed)
	if err != nil {
		log.Printf("update subtask: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update subtask")
		return
	}
	if subtask == nil {
		writeError(w, http.StatusNotFound, "Subtask not found")
		return
	}

	s.recordTaskActivity(r, task.ID, "updated_subtask", nil)
	writeJSON(w, http.StatusOK, subtask)
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	var req addCommentRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Comment text is required")
		return
	}

	comment, err := s.Projects.AddComment(r.Context(), task.ID, user.ID, strings.TrimSpace(req.Text))
	if err != nil {
		log.Printf("add comment: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	s.recordTaskActivity(r, task.ID, "added_comment", nil)
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleGetComments(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	comments, err := s.Projects.ListComments(r.Context(), task.ID)
	if err != nil {
		log.Printf("list comments: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleWatchTask(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	updated, err := s.Projects.ToggleWatch(r.Context(), task.ID, user.ID)
	if err != nil {
		log.Printf("watch task: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleArchiveTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	updated, err := s.Projects.ToggleArchive(r.Context(), task.ID)
	if err != nil {
		log.Printf("archive task: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	s.recordTaskActivity(r, task.ID, "archived_task", nil)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	activities, err := s.Projects.ListActivity(r.Context(), task.ID)
	if err != nil {
		log.Printf("list activity: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load activity")
		return
	}

	writeJSON(w, http.StatusOK, activities)
}

// loadTask fetches the task from the URL and enforces workspace membership.
// On failure the response is already written and ok is false.
func (s *Server) loadTask(w http.ResponseWriter, r *http.Request) (*project.Task, bool) {
	user := userFromContext(r.Context())
	taskID := chi.URLParam(r, "taskID")

	allowed, err := s.Projects.CanAccessTask(r.Context(), taskID, user.ID)
	if err != nil {
		log.Printf("task access: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return nil, false
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		return nil, false
	}

	task, err := s.Projects.GetTask(r.Context(), taskID)
	if err != nil {
		log.Printf("get task: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return nil, false
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return nil, false
	}
	return task, true
}

func (s *Server) updateTaskField(w http.ResponseWriter, r *http.Request, field, value, action string) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	updated, err := s.Projects.UpdateTaskField(r.Context(), task.ID, field, value)
	if err != nil {
		log.Printf("update task %s: %v", field, err)
		writeError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	s.recordTaskActivity(r, task.ID, action, &value)
	writeJSON(w, http.StatusOK, updated)
}

// recordTaskActivity is best effort: a failed activity insert never fails the
// request that caused it.
func (s *Server) recordTaskActivity(r *http.Request, taskID, action string, details *string) {
	user := userFromContext(r.Context())
	if user == nil {
		return
	}
	if err := s.Projects.RecordActivity(r.Context(), user.ID, "task", taskID, action, details); err != nil {
		log.Printf("record activity: %v", err)
	}
}
