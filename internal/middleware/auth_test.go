package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calicode24/calicode/internal/domain/identity"
)

type tokenVerifier map[string]identity.User

func (v tokenVerifier) Verify(token string) (identity.User, error) {
	if u, ok := v[token]; ok {
		return u, nil
	}
	return identity.User{}, errors.New("bad token")
}

func TestAuthenticate(t *testing.T) {
	v := tokenVerifier{"good": {ID: "u1", Email: "a@b.co"}}
	var got identity.User
	var authed bool
	h := Authenticate(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, authed = UserFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, authed)
	assert.Equal(t, "u1", got.ID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, authed)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, authed)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, authed)
}

func TestRequirePage(t *testing.T) {
	h := RequirePage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(WithUser(req.Context(), identity.User{ID: "u1"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, identity.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, true)
	c := rec.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, SessionCookie, c[0].Name)
	assert.Equal(t, "tok", c[0].Value)
	assert.True(t, c[0].HttpOnly)
	assert.True(t, c[0].Secure)

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, false)
	c = rec.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, -1, c[0].MaxAge)
}
