package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/classkit/api/internal/domain"
)

// StreamRepo provides typed Postgres operations for posts and comments.
type StreamRepo struct {
	db *sqlx.DB
}

func NewStreamRepo(db *sqlx.DB) *StreamRepo {
	return &StreamRepo{db: db}
}

func (r *StreamRepo) CreatePost(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	const q = `
		INSERT INTO posts (course_id, user_id, text, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp`
	if err := r.db.QueryRowxContext(ctx, q, p.CourseID, p.UserID, p.Text, p.Type).Scan(&p.ID, &p.Timestamp); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

func (r *StreamRepo) GetPost(ctx context.Context, postID int64) (*domain.Post, error) {
	var p domain.Post
	err := r.db.GetContext(ctx, &p, `SELECT * FROM posts WHERE id = $1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", postID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *StreamRepo) DeletePost(ctx context.Context, postID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	return err
}

func (r *StreamRepo) ListPosts(ctx context.Context, courseID int64) ([]domain.Post, error) {
	var out []domain.Post
	const q = `SELECT * FROM posts WHERE course_id = $1 ORDER BY timestamp DESC`
	if err := r.db.SelectContext(ctx, &out, q, courseID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *StreamRepo) CreateComment(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	const q = `
		INSERT INTO comments (post_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp`
	if err := r.db.QueryRowxContext(ctx, q, c.PostID, c.UserID, c.Text).Scan(&c.ID, &c.Timestamp); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (r *StreamRepo) ListComments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	var out []domain.Comment
	const q = `SELECT * FROM comments WHERE post_id = $1 ORDER BY timestamp`
	if err := r.db.SelectContext(ctx, &out, q, postID); err != nil {
		return nil, err
	}
	return out, nil
}

// AttachmentRepo provides typed Postgres operations for attachment metadata.
// The bytes themselves live in the object store.
type AttachmentRepo struct {
	db *sqlx.DB
}

func NewAttachmentRepo(db *sqlx.DB) *AttachmentRepo {
	return &AttachmentRepo{db: db}
}

func (r *AttachmentRepo) Insert(ctx context.Context, a *domain.Attachment) (*domain.Attachment, error) {
	const q = `
		INSERT INTO attachments (owner_id, kind, key, filename)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, q, a.OwnerID, a.Kind, a.Key, a.Filename).Scan(&a.ID); err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	return a, nil
}

func (r *AttachmentRepo) Get(ctx context.Context, attachmentID int64) (*domain.Attachment, error) {
	var a domain.Attachment
	err := r.db.GetContext(ctx, &a, `SELECT * FROM attachments WHERE id = $1`, attachmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d: %w", attachmentID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepo) ListByOwner(ctx context.Context, kind string, ownerID int64) ([]domain.Attachment, error) {
	var out []domain.Attachment
	const q = `SELECT * FROM attachments WHERE kind = $1 AND owner_id = $2 ORDER BY id`
	if err := r.db.SelectContext(ctx, &out, q, kind, ownerID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AttachmentRepo) Delete(ctx context.Context, attachmentID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, attachmentID)
	return err
}
