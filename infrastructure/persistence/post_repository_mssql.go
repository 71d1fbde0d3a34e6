package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
)

// PostRepositoryMSSQL stores posts in SQL Server / Azure SQL
type PostRepositoryMSSQL struct {
	db *sql.DB
}

func NewPostRepositoryMSSQL(db *sql.DB) *PostRepositoryMSSQL { return &PostRepositoryMSSQL{db: db} }

var _ repository.IPost = (*PostRepositoryMSSQL)(nil)

func (r *PostRepositoryMSSQL) Create(ctx context.Context, p *model.Post) error {
	j, err := encodePost(p)
	if err != nil {
		return err
	}
	q := `INSERT INTO dbo.[posts] (` + postColumns + `)
VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12,@p13,@p14,@p15,@p16,@p17,@p18,@p19)`
	_, err = r.db.ExecContext(ctx, q, p.ID, p.UserID, p.Content, j.media, j.platforms, nullTime(p.ScheduledAt), p.Title, j.tags, p.Visibility, p.CategoryID,
		string(p.Status), p.Attempts, nullString(p.LastError), j.result, nullTime(p.PublishedAt), nullTime(p.QueuedAt), nullTime(p.CancelledAt), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostRepositoryMSSQL) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM dbo.[posts] WHERE id=@p1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	return p, err
}

func (r *PostRepositoryMSSQL) ListByUser(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p2) `+postColumns+` FROM dbo.[posts] WHERE user_id=@p1 ORDER BY created_at DESC`, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepositoryMSSQL) Update(ctx context.Context, p *model.Post, expected model.PostStatus) error {
	j, err := encodePost(p)
	if err != nil {
		return err
	}
	q := `UPDATE dbo.[posts] SET content=@p2, media=@p3, platforms=@p4, scheduled_at=@p5, title=@p6, tags=@p7, visibility=@p8, category_id=@p9,
    status=@p10, attempts=@p11, last_error=@p12, publish_result=@p13, published_at=@p14, queued_at=@p15, cancelled_at=@p16, updated_at=@p17
WHERE id=@p1 AND status=@p18`
	res, err := r.db.ExecContext(ctx, q, p.ID, p.Content, j.media, j.platforms, nullTime(p.ScheduledAt), p.Title, j.tags, p.Visibility, p.CategoryID,
		string(p.Status), p.Attempts, nullString(p.LastError), j.result, nullTime(p.PublishedAt), nullTime(p.QueuedAt), nullTime(p.CancelledAt), p.UpdatedAt,
		string(expected))
	if err != nil {
		return err
	}
	return staleIfNoRows(res, p.ID, expected)
}

func (r *PostRepositoryMSSQL) FindDue(ctx context.Context, now time.Time) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM dbo.[posts] WHERE status='scheduled' AND scheduled_at <= @p1 ORDER BY scheduled_at ASC`, now)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepositoryMSSQL) FindQueued(ctx context.Context, limit int) ([]model.Post, error) {
	// SQL Server sorts NULL first, so push unscheduled posts to the end explicitly
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p1) `+postColumns+` FROM dbo.[posts] WHERE status='queued'
ORDER BY CASE WHEN scheduled_at IS NULL THEN 1 ELSE 0 END, scheduled_at ASC, created_at ASC`, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}
