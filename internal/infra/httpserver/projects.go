package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calicode24/calicode/internal/middleware"
)

// GET /api/dashboard?q=
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req, "Unauthorized")
	if err != nil {
		return err
	}
	d, err := r.Projects.Dashboard(req.Context(), user.ID, user.Email, req.URL.Query().Get("q"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, d)
}

type createProjectRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// POST /api/projects
func (r *Router) handleCreateProject(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req, "Unauthorized")
	if err != nil {
		return err
	}
	var body createProjectRequest
	if err := middleware.DecodeJSON(w, req, &body); err != nil {
		return err
	}
	p, err := r.Projects.Create(req.Context(), user.ID, middleware.SanitizeString(body.Title), middleware.SanitizeString(body.Description))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, p)
}

// GET /api/projects/{id}
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req, "Unauthorized")
	if err != nil {
		return err
	}
	ws, err := r.Projects.Workspace(req.Context(), user.ID, chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, ws)
}
