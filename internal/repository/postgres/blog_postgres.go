package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"blogapi/internal/model"
	"blogapi/internal/repository"
)

const postColumns = `id, title, content, image, tags, created_at, updated_at`

var newID = uuid.NewString

// BlogPostgres is a PostgreSQL implementation of repository.BlogRepository.
// Title and content are JSONB objects keyed by language; tags is a JSONB array.
type BlogPostgres struct {
	db *sql.DB
}

// NewBlogPostgres creates a new BlogPostgres repository.
func NewBlogPostgres(db *sql.DB) *BlogPostgres {
	return &BlogPostgres{db: db}
}

var _ repository.BlogRepository = (*BlogPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.BlogPost, error) {
	var (
		p                    model.BlogPost
		title, content, tags []byte
		image                sql.NullString
	)
	if err := row.Scan(&p.ID, &title, &content, &image, &tags, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(title, &p.Title); err != nil {
		return nil, fmt.Errorf("decode title: %w", err)
	}
	if err := json.Unmarshal(content, &p.Content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	p.Tags = model.NormalizeTags(p.Tags)
	if image.Valid {
		p.Image = &image.String
	}
	return &p, nil
}

// encodedPost holds the JSONB parameters shared by insert and update.
type encodedPost struct {
	title, content, tags string
	image                sql.NullString
}

func encodePost(p *model.BlogPost) (encodedPost, error) {
	var out encodedPost
	title, err := json.Marshal(p.Title.Clone())
	if err != nil {
		return out, fmt.Errorf("encode title: %w", err)
	}
	content, err := json.Marshal(p.Content.Clone())
	if err != nil {
		return out, fmt.Errorf("encode content: %w", err)
	}
	tags, err := json.Marshal(model.NormalizeTags(p.Tags))
	if err != nil {
		return out, fmt.Errorf("encode tags: %w", err)
	}
	out.title, out.content, out.tags = string(title), string(content), string(tags)
	if p.Image != nil {
		out.image = sql.NullString{String: *p.Image, Valid: true}
	}
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create inserts a new row with a fresh UUID and returns the stored record.
func (r *BlogPostgres) Create(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error) {
	const q = `
		INSERT INTO blog_posts (id, title, content, image, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + postColumns

	enc, err := encodePost(post)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, q, newID(), enc.title, enc.content, enc.image, enc.tags)
	return scanPost(row)
}

// FindByID fetches a single post by its ID.
func (r *BlogPostgres) FindByID(ctx context.Context, id string) (*model.BlogPost, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const q = `SELECT ` + postColumns + ` FROM blog_posts WHERE id = $1`

	p, err := scanPost(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// FindByTitle returns the oldest post whose title in lang matches exactly.
func (r *BlogPostgres) FindByTitle(ctx context.Context, lang, title string) (*model.BlogPost, error) {
	const q = `
		SELECT ` + postColumns + `
		FROM blog_posts
		WHERE title->>$1 = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1`

	p, err := scanPost(r.db.QueryRowContext(ctx, q, lang, title))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// List returns every post, newest first.
func (r *BlogPostgres) List(ctx context.Context) ([]model.BlogPost, error) {
	const q = `SELECT ` + postColumns + ` FROM blog_posts ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.BlogPost, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update replaces the editable fields. COALESCE keeps the stored image when none is given.
func (r *BlogPostgres) Update(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error) {
	if !validID(post.ID) {
		return nil, repository.ErrNotFound
	}
	const q = `
		UPDATE blog_posts
		SET title = $2, content = $3, tags = $4, image = COALESCE($5, image), updated_at = now()
		WHERE id = $1
		RETURNING ` + postColumns

	enc, err := encodePost(post)
	if err != nil {
		return nil, err
	}
	p, err := scanPost(r.db.QueryRowContext(ctx, q, post.ID, enc.title, enc.content, enc.tags, enc.image))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Delete removes a post by ID and reports ErrNotFound when nothing was deleted.
func (r *BlogPostgres) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	const q = `DELETE FROM blog_posts WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
