// Package http provides the HTTP handlers and router of the notes API.
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/middleware"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/service"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// Signup registers a user and returns its public view.
	Signup(ctx context.Context, username, email, password string) (*models.PublicUser, error)
	// Login checks credentials and returns a token with the user.
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	// Profile returns the user with the given id.
	Profile(ctx context.Context, id int64) (*models.PublicUser, error)
}

// AuthHandler handles signup, login and profile requests.
type AuthHandler struct {
	AuthService AuthService
	Respond     *Responder
}

// NewAuthHandler returns an AuthHandler.
func NewAuthHandler(svc AuthService, respond *Responder) *AuthHandler {
	return &AuthHandler{AuthService: svc, Respond: respond}
}

// SignupRequest is the JSON payload for POST /api/auth/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the JSON payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup creates an account and answers 201 with the new user.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Respond.Error(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validateStruct(req); err != nil {
		h.Respond.Error(w, r, err)
		return
	}

	user, err := h.AuthService.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.Respond.Error(w, r, err)
		return
	}

	h.Respond.Success(w, http.StatusCreated, "User created successfully", map[string]any{"user": user})
}

// Login verifies credentials and answers with a bearer token and the user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Respond.Error(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		h.Respond.Error(w, r, err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Respond.Error(w, r, err)
		return
	}

	h.Respond.Success(w, http.StatusOK, "Login successful", res)
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Respond.Error(w, r, apperr.Unauthenticated(middleware.MsgNotLoggedIn))
		return
	}

	user, err := h.AuthService.Profile(r.Context(), id.ID)
	if err != nil {
		h.Respond.Error(w, r, err)
		return
	}

	h.Respond.Success(w, http.StatusOK, "", map[string]any{"user": user})
}
