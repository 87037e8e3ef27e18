package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/middleware"
	"github.com/calicode24/calicode/internal/web"
)

const msgAuthFailed = "Authentication failed. Please try again."

func (r *Router) page(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			r.log.Error("page failed", "path", req.URL.Path, "request_id", middleware.GetRequestID(req.Context()), "error", err)
			http.Error(w, msgUnexpected, http.StatusInternalServerError)
		}
	}
}

func viewUser(req *http.Request) *identity.User {
	if u, ok := middleware.UserFrom(req.Context()); ok {
		return &u
	}
	return nil
}

func (r *Router) handleHome(w http.ResponseWriter, req *http.Request) error {
	return r.Pages.Render(w, http.StatusOK, web.PageHome, web.View{User: viewUser(req)})
}

func (r *Router) handleLoginPage(w http.ResponseWriter, req *http.Request) error {
	return r.authPage(w, req, web.PageLogin, "Log In")
}

func (r *Router) handleSignupPage(w http.ResponseWriter, req *http.Request) error {
	return r.authPage(w, req, web.PageSignup, "Sign Up")
}

func (r *Router) authPage(w http.ResponseWriter, req *http.Request, name, title string) error {
	if _, ok := middleware.UserFrom(req.Context()); ok {
		http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
		return nil
	}
	v := web.View{Title: title}
	if req.URL.Query().Get("error") == "auth" {
		v.Flash = msgAuthFailed
	}
	return r.Pages.Render(w, http.StatusOK, name, v)
}

func (r *Router) handleDashboardPage(w http.ResponseWriter, req *http.Request) error {
	user := viewUser(req)
	q := req.URL.Query().Get("q")
	d, err := r.Projects.Dashboard(req.Context(), user.ID, user.Email, q)
	if err != nil {
		return err
	}
	return r.Pages.Render(w, http.StatusOK, web.PageDashboard, web.View{Title: "Dashboard", User: user, Query: q, Body: d})
}

func (r *Router) handleProjectPage(w http.ResponseWriter, req *http.Request) error {
	user := viewUser(req)
	ws, err := r.Projects.Workspace(req.Context(), user.ID, chi.URLParam(req, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
		return nil
	}
	if err != nil {
		return err
	}
	return r.Pages.Render(w, http.StatusOK, web.PageProject, web.View{
		Title: ws.Project.Title,
		User:  user,
		Body:  web.NewWorkspace(ws, r.MaxUpload),
	})
}

func (r *Router) handleUpgradeSuccessPage(w http.ResponseWriter, req *http.Request) error {
	return r.Pages.Render(w, http.StatusOK, web.PageUpgradeSuccess, web.View{Title: "Welcome to Pro", User: viewUser(req)})
}
