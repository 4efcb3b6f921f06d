// Package auth implements the login and logout flow: credential
// validation, the /login exchange and installing the resulting session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gatelink/gatelink/internal/backend"
	"github.com/gatelink/gatelink/internal/session"
)

// Validation errors, surfaced before any network call is made.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is not a valid address")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// ErrInvalidCredentials is returned when the backend rejects the login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// loginRequest is the /login request body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the /login success body.
type loginResponse struct {
	Token      string             `json:"token"`
	User       session.User       `json:"user"`
	Modules    []session.Module   `json:"modules"`
	ClientID   int64              `json:"id_client"`
	ClientUID  string             `json:"uid_client"`
	InstanceID int64              `json:"id_instance"`
	Version    session.APIVersion `json:"version"`
}

// Service performs login and logout against the backend.
type Service struct {
	api    *backend.Client
	store  *session.Store
	logger zerolog.Logger
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	// API is the backend client. Required.
	API *backend.Client

	// Store receives the session produced by a successful login. Required.
	Store *session.Store

	Logger zerolog.Logger
}

// NewService creates an auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		api:    cfg.API,
		store:  cfg.Store,
		logger: cfg.Logger,
	}
}

// ValidateCredentials checks the login input shape. It runs before any
// network call so malformed credentials fail synchronously.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrEmailInvalid
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Login validates the credentials, exchanges them at /login and installs
// the resulting session in the store. Email matching is case-insensitive:
// the address is lowercased before it goes out.
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return session.Session{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	var resp loginResponse
	err := s.api.Post(ctx, "/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return session.Session{}, fmt.Errorf("login: %w", ErrInvalidCredentials)
		}
		return session.Session{}, fmt.Errorf("login: %w", err)
	}

	sess := session.Session{
		Token:      resp.Token,
		User:       resp.User,
		Modules:    resp.Modules,
		ClientID:   resp.ClientID,
		ClientUID:  resp.ClientUID,
		InstanceID: resp.InstanceID,
		Version:    resp.Version,
	}
	s.store.SetAuthData(ctx, sess)
	s.logger.Info().
		Int64("user_id", sess.User.ID).
		Int64("client_id", sess.ClientID).
		Int("modules", len(sess.Modules)).
		Msg("logged in")
	return sess, nil
}

// Logout clears the session. Safe to call with no active session.
func (s *Service) Logout(ctx context.Context) {
	s.store.Logout(ctx)
	s.logger.Info().Msg("logged out")
}
