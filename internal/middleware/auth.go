package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/calicode24/calicode/internal/domain/identity"
)

type contextKey string

const (
	UserKey      contextKey = "user"
	RequestIDKey contextKey = "request_id"
)

const (
	SessionCookie  = "calicode_session"
	VerifierCookie = "calicode_code_verifier"
)

// Authenticate resolves the session cookie or a Bearer token to a user and
// stores it in the request context. Requests without a valid session pass
// through unauthenticated; handlers decide how to refuse them.
func Authenticate(v identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := v.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequirePage redirects to /login when there is no session.
func RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// UserFrom extracts the authenticated user from context
func UserFrom(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(UserKey).(identity.User)
	return u, ok && u.ID != ""
}

// SetSessionCookie stores the access token as an HTTP-only cookie.
func SetSessionCookie(w http.ResponseWriter, s identity.Session, secure bool) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.ExpiresAt.IsZero() {
		c.Expires = s.ExpiresAt
		c.MaxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	http.SetCookie(w, c)
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
