// Package auth issues and verifies the signed, time-limited identity tokens
// presented by clients as bearer credentials.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned for a well-formed, correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any other verification failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the JWT payload. The subject carries the user id as well.
type Claims struct {
	jwt.RegisteredClaims
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenManager signs and verifies HS256 tokens with a process-wide secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a TokenManager for secret whose tokens live for ttl.
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue returns a signed token for id expiring after the configured TTL.
func (m *TokenManager) Issue(id models.Identity) (string, error) {
	return m.IssueWithTTL(id, m.ttl)
}

// IssueWithTTL returns a signed token for id expiring after ttl.
// A ttl of zero or less yields a token that is already expired.
func (m *TokenManager) IssueWithTTL(id models.Identity, ttl time.Duration) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ID:       id.ID,
		Email:    id.Email,
		Username: id.Username,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// The error is ErrTokenExpired or ErrTokenInvalid; nothing from a token that
// fails verification is returned.
func (m *TokenManager) Verify(tokenString string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		// Signature is checked before claims, so an expired result implies a valid signature.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return models.Identity{}, ErrTokenExpired
		}
		return models.Identity{}, ErrTokenInvalid
	}
	if !token.Valid || claims.ID <= 0 || claims.Subject != strconv.FormatInt(claims.ID, 10) {
		return models.Identity{}, ErrTokenInvalid
	}

	return models.Identity{ID: claims.ID, Email: claims.Email, Username: claims.Username}, nil
}
