// Package gotrue adapts the hosted auth service to identity.Provider.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	authsdk "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/calicode24/calicode/internal/domain/identity"
)

const requestTimeout = 15 * time.Second

type Client struct {
	api        authsdk.Client
	admin      authsdk.Client
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewClient(baseURL, anonKey, serviceKey string) *Client {
	authURL := strings.TrimRight(baseURL, "/") + "/auth/v1"
	api := authsdk.New("", anonKey).
		WithCustomGoTrueURL(authURL).
		WithClient(http.Client{Timeout: requestTimeout})
	return &Client{
		api:        api,
		admin:      api.WithToken(serviceKey),
		baseURL:    authURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func userOf(u types.User) identity.User {
	name, _ := u.UserMetadata["full_name"].(string)
	return identity.User{ID: u.ID.String(), Email: u.Email, FullName: name}
}

func sessionOf(s types.Session) identity.Session {
	exp := time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	if s.ExpiresAt > 0 {
		exp = time.Unix(s.ExpiresAt, 0)
	}
	return identity.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    exp.UTC(),
		User:         userOf(s.User),
	}
}

// apiError covers the several error shapes the service returns
type apiError struct {
	status           int
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Err              string `json:"error"`
	ErrorCode        string `json:"error_code"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Err} {
		if s != "" {
			return s
		}
	}
	return http.StatusText(e.status)
}

func (e *apiError) Error() string { return fmt.Sprintf("auth api %d: %s", e.status, e.text()) }

func newAPIError(status int, body []byte) *apiError {
	e := &apiError{status: status}
	_ = json.Unmarshal(body, e)
	return e
}

// statusErr matches the error text the SDK builds from a non-2xx response
var statusErr = regexp.MustCompile(`(?s)^response status code (\d+)(?:: (.*))?$`)

// asAPIError recovers the status and body from an SDK or direct-call error
func asAPIError(err error) (*apiError, bool) {
	var e *apiError
	if errors.As(err, &e) {
		return e, true
	}
	m := statusErr.FindStringSubmatch(err.Error())
	if m == nil {
		return nil, false
	}
	status, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return nil, false
	}
	return newAPIError(status, []byte(m[2])), true
}

// CreateUser creates a pre-confirmed user through the admin API
func (c *Client) CreateUser(_ context.Context, req identity.SignupRequest) (identity.User, error) {
	password := req.Password
	resp, err := c.admin.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        req.Email,
		Password:     &password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"full_name": req.FullName},
	})
	if err != nil {
		return identity.User{}, classify(err)
	}
	return userOf(resp.User), nil
}

func (c *Client) SignIn(_ context.Context, email, password string) (identity.Session, error) {
	resp, err := c.api.SignInWithEmailPassword(email, password)
	if err != nil {
		return identity.Session{}, classify(err)
	}
	return sessionOf(resp.Session), nil
}

// ExchangeCode redeems a PKCE auth code. The server reads it from
// "auth_code", which the SDK's token request does not send, so this and
// VerifyTokenHash post directly.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (identity.Session, error) {
	var s types.Session
	err := c.post(ctx, "/token?grant_type=pkce", map[string]string{"auth_code": code, "code_verifier": verifier}, &s)
	if err != nil {
		return identity.Session{}, linkError(err)
	}
	return sessionOf(s), nil
}

func (c *Client) VerifyTokenHash(ctx context.Context, tokenHash, kind string) (identity.Session, error) {
	var s types.Session
	err := c.post(ctx, "/verify", map[string]string{"type": kind, "token_hash": tokenHash}, &s)
	if err != nil {
		return identity.Session{}, linkError(err)
	}
	return sessionOf(s), nil
}

// VerificationLink asks the admin API for a magic link and points it at
// redirectTo with the hashed token, so the callback can verify it server side.
func (c *Client) VerificationLink(_ context.Context, email, redirectTo string) (string, error) {
	resp, err := c.admin.AdminGenerateLink(types.AdminGenerateLinkRequest{
		Type:       types.LinkTypeMagicLink,
		Email:      email,
		RedirectTo: redirectTo,
	})
	if err != nil {
		return "", fmt.Errorf("generate link: %w", err)
	}
	if resp.HashedToken == "" {
		return "", errors.New("generate_link returned no hashed token")
	}
	return identity.CallbackLink(redirectTo, resp.HashedToken, "email"), nil
}

// Check calls the health endpoint
func (c *Client) Check(context.Context) error {
	_, err := c.api.HealthCheck()
	return err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth api request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}
	return json.Unmarshal(data, out)
}

func classify(err error) error {
	e, ok := asAPIError(err)
	if !ok {
		return err
	}
	msg := e.text()
	if strings.Contains(msg, "already been registered") || strings.Contains(msg, "already exists") || e.ErrorCode == "email_exists" {
		return identity.ErrEmailTaken
	}
	if e.status >= 400 && e.status < 500 {
		return &identity.RejectedError{Message: msg}
	}
	return err
}

func linkError(err error) error {
	if e, ok := asAPIError(err); ok && e.status < 500 {
		return fmt.Errorf("%w: %s", identity.ErrInvalidLink, e.text())
	}
	return err
}
