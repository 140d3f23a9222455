package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/middleware"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/service"
	"github.com/go-chi/chi/v5"
)

// NoteService defines the note operations required by the HTTP handlers.
// Every call is scoped to ownerID.
type NoteService interface {
	Create(ctx context.Context, ownerID int64, title string, content *string) (*models.Note, error)
	List(ctx context.Context, ownerID int64) ([]models.Note, error)
	Get(ctx context.Context, ownerID, noteID int64) (*models.Note, error)
	Update(ctx context.Context, ownerID, noteID int64, title string, content *string) (*models.Note, error)
	Delete(ctx context.Context, ownerID, noteID int64) error
}

// NoteHandler serves /api/notes for the authenticated caller.
type NoteHandler struct {
	NoteService NoteService
	Respond     *Responder
}

// NewNoteHandler returns a NoteHandler.
func NewNoteHandler(svc NoteService, respond *Responder) *NoteHandler {
	return &NoteHandler{NoteService: svc, Respond: respond}
}

// NoteRequest is the JSON payload for creating and replacing a note.
type NoteRequest struct {
	Title   string  `json:"title" validate:"required"`
	Content *string `json:"content"`
}

// Create stores a note for the caller and answers 201.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	req, ok := h.noteRequest(w, r)
	if !ok {
		return
	}

	note, err := h.NoteService.Create(r.Context(), owner, req.Title, req.Content)
	if err != nil {
		h.Respond.Error(w, r, err)
		return
	}
	h.Respond.Success(w, http.StatusCreated, "Note created successfully", map[string]any{"note": note})
}

// List returns the caller's notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	notes, err := h.NoteService.List(r.Context(), owner)
	if err != nil {
		h.Respond.Error(w, r, err)
		return
	}
	h.Respond.List(w, len(notes), map[string]any{"notes": notes})
}

// Get returns one note of the caller.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	note, err := h.NoteService.Get(r.Context(), owner, noteID)
	if err != nil {
		h.Respond.Error(w, r, err)
		return
	}
	h.Respond.Success(w, http.StatusOK, "", map[string]any{"note": note})
}

// Update replaces title and content of one note of the caller.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}
	req, ok := h.noteRequest(w, r)
	if !ok {
		return
	}

	note, err := h.NoteService.Update(r.Context(), owner, noteID, req.Title, req.Content)
	if err != nil {
		h.Respond.Error(w, r, err)
		return
	}
	h.Respond.Success(w, http.StatusOK, "Note updated successfully", map[string]any{"note": note})
}

// Delete removes one note of the caller.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	if err := h.NoteService.Delete(r.Context(), owner, noteID); err != nil {
		h.Respond.Error(w, r, err)
		return
	}
	h.Respond.Success(w, http.StatusOK, "Note deleted successfully", nil)
}

func (h *NoteHandler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Respond.Error(w, r, apperr.Unauthenticated(middleware.MsgNotLoggedIn))
		return 0, false
	}
	return id.ID, true
}

// noteID parses the {id} path parameter. Anything that is not a positive
// integer cannot name a note and is reported like a missing one.
func (h *NoteHandler) noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.Respond.Error(w, r, apperr.NotFound(service.MsgNoteNotFound))
		return 0, false
	}
	return id, true
}

func (h *NoteHandler) noteRequest(w http.ResponseWriter, r *http.Request) (NoteRequest, bool) {
	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Respond.Error(w, r, err)
		return req, false
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		h.Respond.Error(w, r, err)
		return req, false
	}
	return req, true
}
