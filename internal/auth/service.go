package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/database"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a call needs a live token and has none.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// PublicUser is the part of a user record handed to the transport layers.
// The JSON API renders it without Email.
type PublicUser struct {
	ID       uint
	Username string
	Name     string
	Email    string
}

// NewPublicUser strips everything but the public fields from u.
func NewPublicUser(u *database.User) *PublicUser {
	return &PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
	}
}

// Service implements login, whoami and logout on top of the credential store and the token issuer.
type Service struct {
	users  database.UserDB
	tokens *Issuer
}

// NewService creates a new auth service.
func NewService(users database.UserDB, tokens *Issuer) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// Tokens returns the token issuer used by the service.
func (s *Service) Tokens() *Issuer {
	return s.tokens
}

// Login verifies the credentials and issues a new token named tokenName.
func (s *Service) Login(ctx context.Context, username, secret, tokenName string) (*PublicUser, string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			burnPasswordCheck(secret)
			log.Debug("login for unknown user", "username", username)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, secret) {
		log.Debug("login with wrong secret", "username", username)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.ID, tokenName)
	if err != nil {
		return nil, "", err
	}

	log.Info("user logged in", "username", user.Username)
	return NewPublicUser(user), token, nil
}

// Whoami returns the owner of token. A missing or dead token is ok=false, not an error.
func (s *Service) Whoami(ctx context.Context, token string) (*PublicUser, bool, error) {
	userID, ok, err := s.tokens.Validate(ctx, token)
	if err != nil || !ok {
		return nil, false, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	return NewPublicUser(user), true, nil
}

// Logout revokes the caller's own token.
func (s *Service) Logout(ctx context.Context, token string) error {
	userID, ok, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthenticated
	}

	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}

	log.Info("user logged out", "userID", userID)
	return nil
}
