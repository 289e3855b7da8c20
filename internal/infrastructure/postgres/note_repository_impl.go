package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	"github.com/oksasatya/go-ddd-notes/internal/domain/repository"
)

type NoteRepository struct {
	db DBTX
}

func NewNoteRepository(db DBTX) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, n *entity.Note) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO notes (title, content, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, n.Title, n.Content, n.UserID)

	err := mapErr(row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt))
	if errors.Is(err, repository.ErrNotFound) {
		// malformed user_id
		return repository.ErrInvalidReference
	}
	return err
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*entity.Note, error) {
	n := &entity.Note{}

	row := r.db.QueryRow(ctx, `
		SELECT id, title, content, user_id, created_at, updated_at
		FROM notes
		WHERE id = $1
	`, id)

	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.UserID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}

	return n, nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Note, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, content, user_id, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]*entity.Note, 0)
	for rows.Next() {
		n := &entity.Note{}
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.UserID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}

	return out, nil
}

func (r *NoteRepository) Update(ctx context.Context, n *entity.Note) error {
	n.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE notes
		SET title = $1, content = $2, user_id = $3, updated_at = $4
		WHERE id = $5
	`, n.Title, n.Content, n.UserID, n.UpdatedAt, n.ID)
	if err != nil {
		err = mapErr(err)
		if errors.Is(err, repository.ErrNotFound) {
			// malformed id or user_id; a well-formed note id means user_id was the bad one
			if _, perr := uuid.Parse(n.ID); perr == nil {
				return repository.ErrInvalidReference
			}
		}
		return err
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes the note row. The users table is never touched.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ repository.NoteRepository = (*NoteRepository)(nil)
