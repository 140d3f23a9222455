// Package middleware provides HTTP middlewares for authentication, request
// ids, logging, metrics and response headers.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/auth"
	"github.com/atinyakov/GophNotes/internal/models"
)

type ctxKey string

const (
	identityKey  ctxKey = "identity"
	requestIDKey ctxKey = "request_id"
)

// Guard failure messages.
const (
	MsgNotLoggedIn  = "You are not logged in. Please log in to access this resource."
	MsgInvalidToken = "Invalid token. Please log in again."
	MsgTokenExpired = "Your token has expired. Please log in again."
)

// TokenVerifier verifies bearer tokens. Errors are auth.ErrTokenExpired or
// auth.ErrTokenInvalid.
type TokenVerifier interface {
	Verify(token string) (models.Identity, error)
}

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerAuth is a middleware that requires a valid "Authorization: Bearer <token>" header.
//
// On success the decoded identity is stored in the request context and can be
// read downstream with IdentityFromContext. No database lookup is made; the
// token claims are trusted for the rest of the request.
func BearerAuth(verifier TokenVerifier, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, r, apperr.Unauthenticated(MsgNotLoggedIn))
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					writeError(w, r, apperr.Unauthenticated(MsgTokenExpired))
					return
				}
				writeError(w, r, apperr.Unauthenticated(MsgInvalidToken))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the caller identity stored by BearerAuth.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}
