package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
	"github.com/truemediaorg/tiktokpost/database/db"
	"github.com/truemediaorg/tiktokpost/model"
)

// ErrPostNotFound is returned when updating a post that isn't in the log.
var ErrPostNotFound = errors.New("post not found")

const schema = `
CREATE TABLE IF NOT EXISTS post_log (
	id            TEXT PRIMARY KEY,
	video_url     TEXT NOT NULL,
	caption       TEXT NOT NULL DEFAULT '',
	hashtags      TEXT[] NOT NULL DEFAULT '{}',
	publish_id    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	error_code    TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	post_url      TEXT NOT NULL DEFAULT '',
	attempts      INTEGER NOT NULL DEFAULT 0,
	created       TIMESTAMPTZ NOT NULL,
	updated       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS post_log_status_idx ON post_log (status);`

type Database struct {
	connString string
	pool       *pgxpool.Pool
}

func NewDatabase(connString string) *Database {
	return &Database{
		connString: connString,
	}
}

func (d *Database) Connect(ctx context.Context) error {
	var err error
	d.pool, err = pgxpool.New(ctx, d.connString)
	if err != nil {
		return err
	}
	return nil
}

// Disconnect closes the pool. It is safe on a nil or unconnected Database.
func (d *Database) Disconnect() {
	if d == nil || d.pool == nil {
		return
	}
	d.pool.Close()
}

// Migrate creates the publish log table if it doesn't exist yet.
func (d *Database) Migrate(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, schema)
	return err
}

func (d *Database) AddPost(ctx context.Context, post model.Post) error {
	id := post.ID
	if id == "" {
		id = cuid.New()
	}
	hashtags := post.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	now := time.Now().UTC() // the DB stores timezones and assumes UTC
	created := post.Created
	if created.IsZero() {
		created = now
	}
	// don't really care about the result, as long as this succeeds
	_, err := d.pool.Exec(ctx, `
	INSERT INTO post_log (id, video_url, caption, hashtags, publish_id, status, error_code, error_message, post_url, attempts, created, updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id,
		post.VideoURL,
		post.Caption,
		hashtags,
		post.PublishID,
		post.Status,
		post.ErrorCode,
		post.ErrorMessage,
		post.PostURL,
		post.Attempts,
		created.UTC(),
		now,
	)
	if err != nil {
		return err
	}
	return nil
}

// GetPendingPosts returns posts TikTok is still processing, oldest first.
func (d *Database) GetPendingPosts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	rows, err := d.pool.Query(ctx, `
	SELECT
		id,
		video_url,
		caption,
		hashtags,
		publish_id,
		status,
		error_code,
		error_message,
		post_url,
		attempts,
		created,
		updated
	FROM post_log
	WHERE
		publish_id <> ''
		AND status NOT IN ($1, $2, $3)
	ORDER BY created ASC`,
		model.PublishStatusComplete,
		model.PublishStatusFailed,
		model.PublishStatusSentToInbox,
	)
	if err != nil {
		return nil, err
	}

	raws, err := pgx.CollectRows(rows, pgx.RowToStructByName[db.PostLog])
	if err != nil {
		return nil, err
	}

	for _, raw := range raws {
		post, err := model.PostFromPostLog(raw)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	return posts, nil
}

// UpdatePostStatus stores the latest publish status of a logged post.
func (d *Database) UpdatePostStatus(ctx context.Context, id string, status model.PublishStatus, failReason string, postURL string) error {
	tag, err := d.pool.Exec(ctx, `
	UPDATE post_log
	SET status = $2, error_message = $3, post_url = $4, updated = $5
	WHERE id = $1`,
		id,
		status,
		failReason,
		postURL,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}
