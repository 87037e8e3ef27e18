// Package session signs and verifies the HS256 access tokens carried in the
// session cookie. Tokens use the hosted auth provider's claim layout so one
// verifier serves both providers.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calicode24/calicode/internal/domain/identity"
)

const (
	audience = "authenticated"
	// PurposeVerify marks single-use email verification tokens
	PurposeVerify = "email_verify"
)

// ErrNoSecret is returned by every operation of a Service built without a key.
var ErrNoSecret = errors.New("session signing secret not set")

type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
}

type Claims struct {
	Email        string       `json:"email"`
	Role         string       `json:"role,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	Purpose      string       `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService builds a signer for secret. An empty secret yields a Service that
// refuses to issue or accept any token.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Issue signs an access token for u
func (s *Service) Issue(u identity.User) (identity.Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	token, err := s.sign(u, "", now, exp)
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{AccessToken: token, ExpiresAt: exp, User: u}, nil
}

// IssuePurpose signs a token that Verify rejects and only VerifyPurpose accepts.
func (s *Service) IssuePurpose(u identity.User, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	return s.sign(u, purpose, now, now.Add(ttl))
}

func (s *Service) sign(u identity.User, purpose string, now, exp time.Time) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	claims := &Claims{
		Email:        u.Email,
		Role:         audience,
		UserMetadata: UserMetadata{FullName: u.FullName},
		Purpose:      purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("%w: %w", identity.ErrUnauthenticated, ErrNoSecret)
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithAudience(audience), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, identity.ErrUnauthenticated
	}
	return claims, nil
}

// Verify implements identity.Verifier for access tokens
func (s *Service) Verify(tokenString string) (identity.User, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return identity.User{}, err
	}
	if claims.Purpose != "" {
		return identity.User{}, errors.New("token is not an access token")
	}
	return userOf(claims), nil
}

// VerifyPurpose accepts only tokens issued for purpose
func (s *Service) VerifyPurpose(tokenString, purpose string) (identity.User, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return identity.User{}, err
	}
	if claims.Purpose != purpose {
		return identity.User{}, identity.ErrInvalidLink
	}
	return userOf(claims), nil
}

func userOf(c *Claims) identity.User {
	return identity.User{ID: c.Subject, Email: c.Email, FullName: c.UserMetadata.FullName}
}
