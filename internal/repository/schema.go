package repository

import (
	"context"
	"database/sql"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	media TEXT[] NOT NULL DEFAULT '{}',
	scheduled_date TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
	team TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	platforms TEXT[] NOT NULL DEFAULT '{}',
	post_links JSONB NOT NULL DEFAULT '{}',
	fail_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_posts_status_scheduled ON posts (status, scheduled_date);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC);
`

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, createPostsTable)
	return err
}
