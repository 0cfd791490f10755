package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Skyfz/skypoint-social/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit, offset int, status models.Status) ([]*models.Post, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateDispatchResult(ctx context.Context, id string, status models.Status, links map[string]string, failReason string) error
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
	ListDue(ctx context.Context, until time.Time) ([]*models.Post, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, content, media, scheduled_date, team, notes, status, platforms, post_links, fail_reason, created_at, updated_at`

// textArray renders a nil slice as an empty SQL array. pq.Array would send
// NULL, which the NOT NULL columns reject, and drafts legitimately carry nil
// platform and media slices.
func textArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, content, media, scheduled_date, team, notes, status, platforms, post_links, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	links, err := json.Marshal(post.PostLinks)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		post.ID, post.Content, textArray(post.Media), post.ScheduledDate,
		post.Team, post.Notes, string(post.Status), textArray(post.Platforms),
		links, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int, status models.Status) ([]*models.Post, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = r.db.QueryContext(ctx, query, string(status), limit, offset)
	} else {
		query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = r.db.QueryContext(ctx, query, limit, offset)
	}
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM posts GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1,
			media = $2,
			scheduled_date = $3,
			team = $4,
			notes = $5,
			status = $6,
			platforms = $7,
			post_links = $8,
			fail_reason = $9,
			updated_at = $10
		WHERE id = $11
	`

	links, err := json.Marshal(post.PostLinks)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		post.Content, textArray(post.Media), post.ScheduledDate, post.Team,
		post.Notes, string(post.Status), textArray(post.Platforms), links,
		post.FailReason, time.Now(), post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateDispatchResult(ctx context.Context, id string, status models.Status, links map[string]string, failReason string) error {
	query := `
		UPDATE posts
		SET status = $1,
			post_links = $2,
			fail_reason = $3,
			updated_at = $4
		WHERE id = $5
	`

	linksJSON, err := json.Marshal(links)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, string(status), linksJSON, failReason, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Claim atomically flips a pending post to in_flight. It reports false when
// the row was not pending anymore, which is how overlapping trigger runs are
// kept from publishing the same post twice.
func (r *postRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, string(models.StatusInFlight), time.Now(), id, string(models.StatusPending))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postRepository) Release(ctx context.Context, id string) error {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	_, err := r.db.ExecContext(ctx, query, string(models.StatusPending), time.Now(), id, string(models.StatusInFlight))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) ListDue(ctx context.Context, until time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_date <= $2 ORDER BY scheduled_date`
	rows, err := r.db.QueryContext(ctx, query, string(models.StatusPending), until)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Remove(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM posts WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var status string
	var linksJSON []byte

	err := row.Scan(&post.ID, &post.Content, pq.Array(&post.Media),
		&post.ScheduledDate, &post.Team, &post.Notes, &status,
		pq.Array(&post.Platforms), &linksJSON, &post.FailReason,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post.Status = models.Status(status)

	if len(linksJSON) > 0 {
		if err := json.Unmarshal(linksJSON, &post.PostLinks); err != nil {
			return nil, err
		}
	}
	return &post, nil
}
