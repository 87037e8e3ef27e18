package identity

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidLink        = errors.New("invalid or expired link")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// RejectedError carries a provider-side rejection message meant for the user.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// User is an authenticated identity
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// Session is what a successful sign-in yields
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// SignupRequest creates a pre-confirmed identity
type SignupRequest struct {
	Email    string
	Password string
	FullName string
}

// Credential is a locally stored login, used when no hosted auth provider is configured.
type Credential struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FullName     *string    `db:"full_name"`
	ConfirmedAt  *time.Time `db:"confirmed_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

// KindSignup is the verification type carried by signup confirmation links
const KindSignup = "signup"

// CallbackLink builds the confirmation URL handled by the auth callback.
func CallbackLink(callbackURL, tokenHash, kind string) string {
	sep := "?"
	if strings.Contains(callbackURL, "?") {
		sep = "&"
	}
	q := url.Values{}
	q.Set("token_hash", tokenHash)
	q.Set("type", kind)
	return callbackURL + sep + q.Encode()
}
