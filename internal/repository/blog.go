package repository

import (
	"context"
	"errors"

	"blogapi/internal/model"
)

// ErrNotFound is returned when no post matches the given id or title.
// Malformed ids are reported as not found as well.
var ErrNotFound = errors.New("record not found")

// BlogRepository defines persistence for blog posts.
// No business logic here — strictly persistence operations.
type BlogRepository interface {
	// Create stores a new post. The store assigns ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error)

	// FindByID returns a post by its ID.
	FindByID(ctx context.Context, id string) (*model.BlogPost, error)

	// FindByTitle returns the oldest post whose title in lang equals title exactly.
	FindByTitle(ctx context.Context, lang, title string) (*model.BlogPost, error)

	// List returns every post, newest first.
	List(ctx context.Context) ([]model.BlogPost, error)

	// Update replaces title, content and tags of post.ID and bumps UpdatedAt.
	// A nil post.Image keeps the stored image.
	Update(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error)

	// Delete removes a post by ID.
	Delete(ctx context.Context, id string) error
}
