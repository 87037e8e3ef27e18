package httpserver

import (
	"net/http"

	"github.com/calicode24/calicode/internal/application/accounts"
	"github.com/calicode24/calicode/internal/middleware"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName" validate:"max=200"`
}

// POST /api/auth/signup
func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) error {
	var body signupRequest
	if err := middleware.DecodeJSON(w, req, &body); err != nil {
		return err
	}
	if _, err := r.Accounts.Signup(req.Context(), accounts.SignupInput{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
	}); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body loginRequest
	if err := middleware.DecodeJSON(w, req, &body); err != nil {
		return err
	}
	sess, err := r.Accounts.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, sess, r.CookieSecure)
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": sess.User})
}

// POST /api/auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	middleware.ClearSessionCookie(w, r.CookieSecure)
	return writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /auth/callback?code=|token_hash=&type=&next=
func (r *Router) handleCallback(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	in := accounts.CallbackInput{
		Code:      q.Get("code"),
		TokenHash: q.Get("token_hash"),
		Type:      q.Get("type"),
		Next:      q.Get("next"),
	}
	if c, err := req.Cookie(middleware.VerifierCookie); err == nil {
		in.Verifier = c.Value
	}

	sess, next, err := r.Accounts.Callback(req.Context(), in)
	if err != nil {
		http.Redirect(w, req, r.AppURL+"/login?error=auth", http.StatusTemporaryRedirect)
		return
	}
	middleware.SetSessionCookie(w, sess, r.CookieSecure)
	http.Redirect(w, req, r.AppURL+next, http.StatusTemporaryRedirect)
}
