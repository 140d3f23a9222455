package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GophNotes/internal/models"
)

// PostgresNoteRepository implements owner-scoped note storage against a PostgreSQL database.
// Every query that addresses a single note filters by both note id and owner id.
type PostgresNoteRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresNoteRepository creates a new PostgresNoteRepository using the provided *sql.DB.
func NewPostgresNoteRepository(db *sql.DB) *PostgresNoteRepository {
	return &PostgresNoteRepository{DB: db}
}

// Create inserts n and fills in its ID, CreatedAt and UpdatedAt.
func (r *PostgresNoteRepository) Create(ctx context.Context, n *models.Note) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO notes (user_id, title, content) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, n.UserID, n.Title, n.Content).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create note: %w", err)
	}
	return nil
}

// ListByOwner returns all notes of userID, most recently updated first.
//
//	ctx:    context for cancellation and deadlines
//	userID: identifier of the owner
func (r *PostgresNoteRepository) ListByOwner(ctx context.Context, userID int64) ([]models.Note, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, title, content, created_at, updated_at FROM notes
		WHERE user_id = $1 ORDER BY updated_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOwner rows: %w", err)
	}
	return notes, nil
}

// GetByID returns the note with id owned by userID, or ErrNotFound.
// A note owned by someone else is indistinguishable from a missing one.
func (r *PostgresNoteRepository) GetByID(ctx context.Context, id, userID int64) (*models.Note, error) {
	var n models.Note
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, title, content, created_at, updated_at FROM notes
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID note: %w", err)
	}
	return &n, nil
}

// Update overwrites title and content of the note with id owned by userID and
// advances updated_at. It returns ErrNotFound when no row matched, which also
// covers losing a race against a concurrent delete.
func (r *PostgresNoteRepository) Update(ctx context.Context, id, userID int64, title string, content *string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE notes
		   SET title = $1,
		       content = $2,
		       updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
		 WHERE id = $3 AND user_id = $4
	`, title, content, id, userID)
	if err != nil {
		return fmt.Errorf("Update note: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes the note with id owned by userID, or returns ErrNotFound.
func (r *PostgresNoteRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("Delete note: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
