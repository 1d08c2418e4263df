package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type createWorkspaceRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Workspace name is required")
		return
	}
	color := req.Color
	if color == "" {
		color = "#FF5733"
	}

	ws, err := s.Projects.CreateWorkspace(r.Context(), strings.TrimSpace(req.Name), req.Description, color, user.ID)
	if err != nil {
		log.Printf("create workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create workspace")
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	workspaces, err := s.Projects.ListWorkspacesForUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("list workspaces: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load workspaces")
		return
	}

	writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	workspaceID := chi.URLParam(r, "workspaceID")

	member, err := s.Projects.IsMember(r.Context(), workspaceID, user.ID)
	if err != nil {
		log.Printf("workspace membership: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load workspace")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		return
	}

	ws, err := s.Projects.GetWorkspace(r.Context(), workspaceID)
	if err != nil {
		log.Printf("get workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load workspace")
		return
	}
	if ws == nil {
		writeError(w, http.StatusNotFound, "Workspace not found")
		return
	}

	members, err := s.Projects.ListMembers(r.Context(), workspaceID)
	if err != nil {
		log.Printf("workspace members: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load workspace")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workspace": ws,
		"members":   members,
	})
}

func (s *Server) handleListWorkspaceProjects(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	workspaceID := chi.URLParam(r, "workspaceID")

	member, err := s.Projects.IsMember(r.Context(), workspaceID, user.ID)
	if err != nil {
		log.Printf("workspace membership: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load projects")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		return
	}

	projects, err := s.Projects.ListWorkspaceProjects(r.Context(), workspaceID)
	if err != nil {
		log.Printf("list projects: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load projects")
		return
	}

	writeJSON(w, http.StatusOK, projects)
}
