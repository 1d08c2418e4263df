package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viktor-siropol/taskhub/internal/project"
)

type createProjectRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"startDate"`
	DueDate     *time.Time `json:"dueDate"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	workspaceID := chi.URLParam(r, "workspaceID")

	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Project title is required")
		return
	}
	status := req.Status
	if status == "" {
		status = project.StatusPlanning
	}
	if !project.ValidProjectStatus(status) {
		writeError(w, http.StatusBadRequest, "Invalid project status")
		return
	}

	member, err := s.Projects.IsMember(r.Context(), workspaceID, user.ID)
	if err != nil {
		log.Printf("workspace membership: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		return
	}

	p, err := s.Projects.CreateProject(r.Context(), workspaceID, strings.TrimSpace(req.Title), req.Description, status, req.StartDate, req.DueDate)
	if err != nil {
		log.Printf("create project: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	allowed, err := s.Projects.CanAccessProject(r.Context(), projectID, user.ID)
	if err != nil {
		log.Printf("project access: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load project")
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		return
	}

	p, err := s.Projects.GetProject(r.Context(), projectID)
	if err != nil {
		log.Printf("get project: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load project")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProjectTasks(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	allowed, err := s.Projects.CanAccessProject(r.Context(), projectID, user.ID)
	if err != nil {
		log.Printf("project access: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		return
	}

	tasks, err := s.Projects.ListProjectTasks(r.Context(), projectID)
	if err != nil {
		log.Printf("project tasks: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}
