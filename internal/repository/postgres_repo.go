package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/models"
	"github.com/lib/pq"
)

const postColumns = `id, slug, title, content, author, date, category, image_url`

// postgresRepo is the PostBackend for the hosted database
type postgresRepo struct {
	db *database.DB
}

// NewPostgresRepo creates a new postgres-backed post repository
func NewPostgresRepo(db *database.DB) PostBackend {
	return &postgresRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var contentJSON []byte
	var category string

	err := row.Scan(
		&post.ID, &post.Slug, &post.Title, &contentJSON,
		&post.Author, &post.Date, &category, &post.ImageURL,
	)
	if err != nil {
		return nil, err
	}

	// Stored rows are loosely typed, decoding normalizes them
	if err := json.Unmarshal(contentJSON, &post.Content); err != nil {
		return nil, fmt.Errorf("decode content of post %s: %w", post.ID, err)
	}
	post.Category = models.Category(category)
	post.Date = post.Date.UTC()

	return &post, nil
}

func contentJSON(post *models.Post) (string, error) {
	data, err := json.Marshal(post.Content)
	if err != nil {
		return "", fmt.Errorf("encode content of post %s: %w", post.ID, err)
	}
	return string(data), nil
}

// FetchAll returns every post, newest first
func (r *postgresRepo) FetchAll(ctx context.Context) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// FetchBySlug returns the newest post with the given slug
func (r *postgresRepo) FetchBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = $1 ORDER BY date DESC LIMIT 1`, slug)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch post by slug: %w", err)
	}
	return post, nil
}

// Insert stores a new post and returns the stored row
func (r *postgresRepo) Insert(ctx context.Context, post *models.Post) (*models.Post, error) {
	body, err := contentJSON(post)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO posts (` + postColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + postColumns

	stored, err := scanPost(r.db.QueryRowContext(ctx, query,
		post.ID, post.Slug, post.Title, body,
		post.Author, post.Date, string(post.Category), post.ImageURL,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("insert post %s: %w", post.ID, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return stored, nil
}

// UpdateByID replaces every field of an existing post
func (r *postgresRepo) UpdateByID(ctx context.Context, post *models.Post) (*models.Post, error) {
	body, err := contentJSON(post)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE posts
		SET slug = $2, title = $3, content = $4, author = $5, date = $6,
		    category = $7, image_url = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + postColumns

	stored, err := scanPost(r.db.QueryRowContext(ctx, query,
		post.ID, post.Slug, post.Title, body,
		post.Author, post.Date, string(post.Category), post.ImageURL,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("update post %s: %w", post.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return stored, nil
}

// BulkUpsert writes posts in one transaction: rows are streamed into a staging table with
// COPY and merged into posts by id.
func (r *postgresRepo) BulkUpsert(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`CREATE TEMP TABLE posts_staging (LIKE posts INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("posts_staging",
		"id", "slug", "title", "content", "author", "date", "category", "image_url",
	))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, post := range posts {
		body, err := contentJSON(post)
		if err != nil {
			stmt.Close()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			post.ID, post.Slug, post.Title, body,
			post.Author, post.Date, string(post.Category), post.ImageURL,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("copy post %s: %w", post.ID, err)
		}
	}

	// Flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}

	merge := `
		INSERT INTO posts (` + postColumns + `, updated_at)
		SELECT ` + postColumns + `, NOW() FROM posts_staging
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			author = EXCLUDED.author,
			date = EXCLUDED.date,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()`
	if _, err := tx.ExecContext(ctx, merge); err != nil {
		return fmt.Errorf("merge staged posts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk upsert: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *postgresRepo) Close() error {
	if err := r.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
