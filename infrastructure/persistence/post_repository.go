package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
)

// PostRepository stores posts in PostgreSQL
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository { return &PostRepository{db: db} }

var _ repository.IPost = (*PostRepository)(nil)

func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	j, err := encodePost(p)
	if err != nil {
		return err
	}
	q := `INSERT INTO posts (` + postColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
	_, err = r.db.ExecContext(ctx, q, p.ID, p.UserID, p.Content, j.media, j.platforms, nullTime(p.ScheduledAt), p.Title, j.tags, p.Visibility, p.CategoryID,
		string(p.Status), p.Attempts, nullString(p.LastError), j.result, nullTime(p.PublishedAt), nullTime(p.QueuedAt), nullTime(p.CancelledAt), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	return p, err
}

func (r *PostRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepository) Update(ctx context.Context, p *model.Post, expected model.PostStatus) error {
	j, err := encodePost(p)
	if err != nil {
		return err
	}
	q := `UPDATE posts SET content=$2, media=$3, platforms=$4, scheduled_at=$5, title=$6, tags=$7, visibility=$8, category_id=$9,
		  status=$10, attempts=$11, last_error=$12, publish_result=$13, published_at=$14, queued_at=$15, cancelled_at=$16, updated_at=$17
		  WHERE id=$1 AND status=$18`
	res, err := r.db.ExecContext(ctx, q, p.ID, p.Content, j.media, j.platforms, nullTime(p.ScheduledAt), p.Title, j.tags, p.Visibility, p.CategoryID,
		string(p.Status), p.Attempts, nullString(p.LastError), j.result, nullTime(p.PublishedAt), nullTime(p.QueuedAt), nullTime(p.CancelledAt), p.UpdatedAt,
		string(expected))
	if err != nil {
		return err
	}
	return staleIfNoRows(res, p.ID, expected)
}

func (r *PostRepository) FindDue(ctx context.Context, now time.Time) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE status='scheduled' AND scheduled_at <= $1 ORDER BY scheduled_at ASC`, now)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepository) FindQueued(ctx context.Context, limit int) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE status='queued' ORDER BY scheduled_at ASC NULLS LAST, created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()
	var list []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func staleIfNoRows(res sql.Result, id string, expected model.PostStatus) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: post %s is no longer %s", model.ErrStaleStatus, id, expected)
	}
	return nil
}
