package service

import (
	"context"
	"errors"
	"strings"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/repository"
	"go.uber.org/zap"
)

// MsgNoteNotFound is returned for a note that is missing or owned by someone else.
const MsgNoteNotFound = "Note not found"

// NoteRepository defines the owner-scoped persistence operations needed by the NoteService.
type NoteRepository interface {
	// Create inserts the note and sets its ID and timestamps.
	Create(ctx context.Context, n *models.Note) error
	// ListByOwner returns the owner's notes, most recently updated first.
	ListByOwner(ctx context.Context, userID int64) ([]models.Note, error)
	// GetByID returns repository.ErrNotFound unless the note exists and belongs to userID.
	GetByID(ctx context.Context, id, userID int64) (*models.Note, error)
	// Update returns repository.ErrNotFound if no row owned by userID was changed.
	Update(ctx context.Context, id, userID int64, title string, content *string) error
	// Delete returns repository.ErrNotFound if no row owned by userID was removed.
	Delete(ctx context.Context, id, userID int64) error
}

// NoteService implements note CRUD scoped to the calling user.
type NoteService struct {
	repo NoteRepository
	log  *zap.Logger
}

// NewNoteService constructs a NoteService with the provided NoteRepository.
func NewNoteService(repo NoteRepository, log *zap.Logger) *NoteService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoteService{repo: repo, log: log}
}

// Create stores a new note owned by ownerID.
func (s *NoteService) Create(ctx context.Context, ownerID int64, title string, content *string) (*models.Note, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	n := &models.Note{UserID: ownerID, Title: title, Content: content}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, apperr.Internal("failed to create note", err)
	}

	s.log.Info("note created", zap.Int64("user_id", ownerID), zap.Int64("note_id", n.ID))
	return n, nil
}

// List returns the notes of ownerID, most recently updated first.
func (s *NoteService) List(ctx context.Context, ownerID int64) ([]models.Note, error) {
	notes, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to list notes", err)
	}
	s.log.Debug("notes retrieved", zap.Int64("user_id", ownerID), zap.Int("count", len(notes)))
	return notes, nil
}

// Get returns note noteID if ownerID owns it.
func (s *NoteService) Get(ctx context.Context, ownerID, noteID int64) (*models.Note, error) {
	n, err := s.repo.GetByID(ctx, noteID, ownerID)
	if err != nil {
		return nil, notFoundOrInternal(err, "failed to load note")
	}
	return n, nil
}

// Update replaces title and content of note noteID if ownerID owns it and
// returns the stored result. Absent content clears the stored content.
func (s *NoteService) Update(ctx context.Context, ownerID, noteID int64, title string, content *string) (*models.Note, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, ownerID, noteID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, noteID, ownerID, title, content); err != nil {
		return nil, notFoundOrInternal(err, "failed to update note")
	}

	updated, err := s.Get(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}

	s.log.Info("note updated", zap.Int64("user_id", ownerID), zap.Int64("note_id", noteID))
	return updated, nil
}

// Delete removes note noteID if ownerID owns it.
func (s *NoteService) Delete(ctx context.Context, ownerID, noteID int64) error {
	if _, err := s.Get(ctx, ownerID, noteID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, noteID, ownerID); err != nil {
		return notFoundOrInternal(err, "failed to delete note")
	}

	s.log.Info("note deleted", zap.Int64("user_id", ownerID), zap.Int64("note_id", noteID))
	return nil
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("Validation failed", apperr.FieldError{Field: "title", Rule: "required"})
	}
	return title, nil
}

func notFoundOrInternal(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(MsgNoteNotFound)
	}
	return apperr.Internal(msg, err)
}
