package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MsgInternal replaces internal error messages outside development mode.
const MsgInternal = "Something went wrong"

type successBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorBody struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Responder writes JSON responses and is the single place where errors are
// turned into status codes.
type Responder struct {
	log         *zap.Logger
	development bool
}

// NewResponder returns a Responder. In development mode error responses carry
// the full cause chain.
func NewResponder(log *zap.Logger, development bool) *Responder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Responder{log: log, development: development}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a success envelope.
func (rs *Responder) Success(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successBody{Status: "success", Message: message, Data: data})
}

// List writes a success envelope with a results count.
func (rs *Responder) List(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, successBody{Status: "success", Results: &count, Data: data})
}

// Error maps err to a status code and writes the error envelope.
// Non-apperr errors are treated as internal.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(MsgInternal, err)
	}
	status := apperr.Status(ae.Kind)

	fields := []zap.Field{
		zap.String("kind", ae.Kind.String()),
		zap.Int("status", status),
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.Error(err),
	}
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		fields = append(fields, zap.Int64("user_id", id.ID))
	}
	if noteID := chi.URLParam(r, "id"); noteID != "" {
		fields = append(fields, zap.String("note_id", noteID))
	}
	if ae.Kind == apperr.KindInternal {
		rs.log.Error("request failed", fields...)
	} else {
		rs.log.Debug("request rejected", fields...)
	}

	body := errorBody{Status: "error", Message: ae.Message, Errors: ae.Fields}
	if ae.Kind == apperr.KindInternal && !rs.development {
		body.Message = MsgInternal
	}
	if rs.development && ae.Err != nil {
		body.Error = err.Error()
	}
	writeJSON(w, status, body)
}
