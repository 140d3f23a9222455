// Package service provides business-logic services for authentication and
// owner-scoped notes, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/repository"
	"github.com/atinyakov/GophNotes/internal/security"
	"go.uber.org/zap"
)

// Client-facing messages.
const (
	MsgUserExists         = "User with this email or username already exists"
	MsgInvalidCredentials = "Invalid email or password"
	MsgUserNotFound       = "User not found"
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// ExistsByEmailOrUsername returns true if any user has the email or the username.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	// Create inserts the user and sets its ID and CreatedAt.
	// Returns repository.ErrDuplicate on a unique violation.
	Create(ctx context.Context, u *models.User) error
	// GetByEmail returns repository.ErrNotFound if no user has the email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID returns repository.ErrNotFound if no user has the id.
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns an error only for a malformed hash.
	Verify(password, hash string) (bool, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(id models.Identity) (string, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string             `json:"token"`
	User  *models.PublicUser `json:"user"`
}

// AuthService implements signup, login and profile lookup.
type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs a new AuthService. A nil log disables logging.
func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

// Signup registers a new user. It fails with a Conflict error if the email or
// the username is taken, including when a concurrent signup wins the insert.
// Passwords longer than security.MaxPasswordBytes are a Validation error.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*models.PublicUser, error) {
	if len(password) > security.MaxPasswordBytes {
		return nil, apperr.Validation("Validation failed", apperr.FieldError{Field: "password", Rule: "max"})
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, apperr.Internal("failed to check existing users", err)
	}
	if exists {
		return nil, apperr.Conflict(MsgUserExists)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	u := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(MsgUserExists)
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	s.log.Info("new user created", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u.Public(), nil
}

// Login verifies credentials and issues a token. An unknown email and a wrong
// password yield the same Authentication error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnVerify(password)
			return nil, apperr.Unauthenticated(MsgInvalidCredentials)
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, apperr.Internal("stored password hash is corrupt", err)
	}
	if !ok {
		return nil, apperr.Unauthenticated(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(models.Identity{ID: u.ID, Email: u.Email, Username: u.Username})
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}

	s.log.Info("user authenticated", zap.Int64("user_id", u.ID))
	return &LoginResult{Token: token, User: u.Public()}, nil
}

// Profile returns the user with id. The user may have been removed after the
// token was issued, which is reported as NotFound.
func (s *AuthService) Profile(ctx context.Context, id int64) (*models.PublicUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return u.Public(), nil
}

// burnVerify runs one hash comparison so that a login for an unknown email
// costs about as much as one with a wrong password.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("gophnotes-timing-placeholder")
		if err != nil {
			s.log.Warn("failed to prepare placeholder hash", zap.Error(err))
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}
