// Package accounts handles signup, sign-in and the email confirmation callback.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/calicode24/calicode/internal/apperror"
	"github.com/calicode24/calicode/internal/application"
	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/domain/profiles"
	"github.com/calicode24/calicode/internal/domain/tiers"
	"github.com/calicode24/calicode/internal/logger"
)

const (
	MinPasswordLength = 6
	DefaultNext       = "/dashboard"
	CallbackPath      = "/auth/callback"
)

const (
	msgRequired     = "Email and password are required."
	msgShort        = "Password must be at least 6 characters."
	msgTaken        = "An account with this email already exists."
	msgUnexpected   = "Something went wrong. Please try again."
	msgInvalidLogin = "Invalid login credentials"
)

// Mailer delivers the verification email
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

type Service struct {
	Identity         identity.Provider
	Profiles         profiles.Repository
	Mailer           Mailer
	AppURL           string
	SendVerification bool
	Clock            application.Clock
	Log              logger.Interface
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// Signup creates a confirmed identity and its free profile. The returned
// error is always an *apperror.AppError carrying the message to show.
func (s *Service) Signup(ctx context.Context, in SignupInput) (identity.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return identity.User{}, apperror.Validation(msgRequired)
	}
	if len(in.Password) < MinPasswordLength {
		return identity.User{}, apperror.Validation(msgShort)
	}
	name := strings.TrimSpace(in.FullName)

	user, err := s.Identity.CreateUser(ctx, identity.SignupRequest{Email: email, Password: in.Password, FullName: name})
	if err != nil {
		var rejected *identity.RejectedError
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			return identity.User{}, apperror.Conflict(msgTaken)
		case errors.As(err, &rejected):
			return identity.User{}, apperror.BadRequest(rejected.Message)
		default:
			s.logger().Error("create user failed", "email", email, "error", err)
			return identity.User{}, apperror.Internal(msgUnexpected).Wrap(err)
		}
	}
	if user.FullName == "" {
		user.FullName = name
	}
	s.ensureProfile(ctx, user)
	s.logger().Info("user signed up", "user_id", user.ID)

	if s.SendVerification && s.Mailer != nil {
		s.sendVerification(ctx, user)
	}
	return user, nil
}

// sendVerification is best effort; the account is usable without it.
func (s *Service) sendVerification(ctx context.Context, user identity.User) {
	link, err := s.Identity.VerificationLink(ctx, user.Email, s.AppURL+CallbackPath)
	if err != nil {
		s.logger().Warn("verification link failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.Mailer.SendVerification(ctx, user.Email, user.FullName, link); err != nil {
		s.logger().Warn("verification email failed", "user_id", user.ID, "error", err)
		return
	}
	s.logger().Info("verification email sent", "user_id", user.ID)
}

// Login signs in with email and password.
func (s *Service) Login(ctx context.Context, email, password string) (identity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return identity.Session{}, apperror.Validation(msgRequired)
	}
	sess, err := s.Identity.SignIn(ctx, email, password)
	if err != nil {
		var rejected *identity.RejectedError
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			return identity.Session{}, apperror.BadRequest(msgInvalidLogin)
		case errors.As(err, &rejected):
			return identity.Session{}, apperror.BadRequest(rejected.Message)
		default:
			s.logger().Error("sign in failed", "error", err)
			return identity.Session{}, apperror.Internal(msgUnexpected).Wrap(err)
		}
	}
	s.ensureProfile(ctx, sess.User)
	return sess, nil
}

// CallbackInput is what the confirmation link or OAuth redirect carried.
// Verifier comes from the PKCE cookie set before the redirect.
type CallbackInput struct {
	Code      string
	Verifier  string
	TokenHash string
	Type      string
	Next      string
}

// Callback completes a code exchange, falling back to the token hash, and
// returns the session with the relative path to continue to. Failures are
// identity.ErrInvalidLink or the provider error.
func (s *Service) Callback(ctx context.Context, in CallbackInput) (identity.Session, string, error) {
	next := SafeNext(in.Next)
	err := identity.ErrInvalidLink
	var sess identity.Session
	if in.Code != "" {
		sess, err = s.Identity.ExchangeCode(ctx, in.Code, in.Verifier)
	}
	if err != nil && in.TokenHash != "" && in.Type != "" {
		sess, err = s.Identity.VerifyTokenHash(ctx, in.TokenHash, in.Type)
	}
	if err != nil {
		s.logger().Warn("auth callback failed", "error", err)
		return identity.Session{}, "", err
	}
	s.ensureProfile(ctx, sess.User)
	return sess, next, nil
}

// SafeNext accepts only same-site absolute paths, falling back to the dashboard.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return DefaultNext
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return DefaultNext
	}
	return next
}

// ensureProfile creates the free profile if it is missing. Profiles.Create
// ignores existing rows, so this is safe on every sign-in.
func (s *Service) ensureProfile(ctx context.Context, u identity.User) {
	if s.Profiles == nil || u.ID == "" {
		return
	}
	now := s.clock().Now()
	p := &profiles.Profile{
		ID:               u.ID,
		Email:            u.Email,
		SubscriptionTier: tiers.Free,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if u.FullName != "" {
		name := u.FullName
		p.FullName = &name
	}
	if err := s.Profiles.Create(ctx, p); err != nil {
		s.logger().Error("create profile failed", "user_id", u.ID, "error", err)
	}
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) logger() logger.Interface {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}
