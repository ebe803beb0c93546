package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"blogapi/internal/media"
	"blogapi/internal/model"
	"blogapi/internal/repository"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("blog post not found")
	ErrUploadFailed = errors.New("image upload failed")
)

// ValidationError lists the request fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// PostInput carries the form fields of a create or update request. Title and Content are
// in the primary language; the *Eng fields are optional translations.
type PostInput struct {
	Title      string
	TitleEng   string
	Content    string
	ContentEng string
	Tags       []string
}

// Validate reports blank primary-language title or content.
func (in PostInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// BlogService defines the use cases for blog posts.
type BlogService interface {
	// Create validates in, uploads img when given, then stores the post. A failed store
	// write deletes the uploaded image again.
	Create(ctx context.Context, in PostInput, img *media.File) (*model.BlogPost, error)

	// List returns every post, newest first.
	List(ctx context.Context) ([]model.BlogPost, error)

	Get(ctx context.Context, id string) (*model.BlogPost, error)

	// GetByTitleSlug decodes a URL slug ("-" for spaces, then percent-decoding) and returns
	// the oldest post with that primary-language title.
	GetByTitleSlug(ctx context.Context, slug string) (*model.BlogPost, error)

	// Update replaces title, content and tags. The image changes only when img is non-nil.
	Update(ctx context.Context, id string, in PostInput, img *media.File) (*model.BlogPost, error)

	// Delete removes the post. The hosted image is left in place.
	Delete(ctx context.Context, id string) error
}

type blogService struct {
	repo     repository.BlogRepository
	uploader media.Uploader
	policy   media.Policy
	langs    model.Languages
}

// NewBlogService constructs a new BlogService.
func NewBlogService(repo repository.BlogRepository, uploader media.Uploader, policy media.Policy, langs model.Languages) BlogService {
	return &blogService{repo: repo, uploader: uploader, policy: policy, langs: langs}
}

func (s *blogService) toPost(in PostInput) *model.BlogPost {
	title := model.LocalizedText{s.langs.Primary: in.Title}
	content := model.LocalizedText{s.langs.Primary: in.Content}
	if in.TitleEng != "" {
		title[s.langs.Secondary] = in.TitleEng
	}
	if in.ContentEng != "" {
		content[s.langs.Secondary] = in.ContentEng
	}
	return &model.BlogPost{
		Title:   title.Clone(),
		Content: content.Clone(),
		Tags:    model.NormalizeTags(in.Tags),
	}
}

// upload returns a nil asset when img is nil.
func (s *blogService) upload(ctx context.Context, img *media.File) (*media.Asset, error) {
	if img == nil {
		return nil, nil
	}
	checked, _, err := s.policy.Check(*img)
	if err != nil {
		if errors.Is(err, media.ErrPayloadTooLarge) || errors.Is(err, media.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	asset, err := s.uploader.Upload(ctx, checked)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return &asset, nil
}

// rollback deletes an asset whose post was never stored.
func (s *blogService) rollback(ctx context.Context, asset *media.Asset, cause error) error {
	if asset == nil {
		return cause
	}
	if delErr := s.uploader.Delete(ctx, asset.ID); delErr != nil {
		return fmt.Errorf("%w; rollback delete %s failed: %v", cause, asset.ID, delErr)
	}
	return cause
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *blogService) Create(ctx context.Context, in PostInput, img *media.File) (*model.BlogPost, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	asset, err := s.upload(ctx, img)
	if err != nil {
		return nil, err
	}

	post := s.toPost(in)
	if asset != nil {
		post.Image = &asset.URL
	}
	stored, err := s.repo.Create(ctx, post)
	if err != nil {
		return nil, s.rollback(ctx, asset, fmt.Errorf("store post: %w", err))
	}
	return stored, nil
}

func (s *blogService) List(ctx context.Context) ([]model.BlogPost, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *blogService) Get(ctx context.Context, id string) (*model.BlogPost, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return post, nil
}

// DecodeSlug turns "my-post%3F" into "my post?". Literal hyphens in titles cannot be
// expressed in a slug.
func DecodeSlug(slug string) (string, error) {
	return url.PathUnescape(strings.ReplaceAll(slug, "-", " "))
}

func (s *blogService) GetByTitleSlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	title, err := DecodeSlug(slug)
	if err != nil || strings.TrimSpace(title) == "" {
		return nil, ErrNotFound
	}
	post, err := s.repo.FindByTitle(ctx, s.langs.Primary, title)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return post, nil
}

func (s *blogService) Update(ctx context.Context, id string, in PostInput, img *media.File) (*model.BlogPost, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	// Look the post up first so a missing id never costs an upload.
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, mapRepoErr(err)
	}
	asset, err := s.upload(ctx, img)
	if err != nil {
		return nil, err
	}

	post := s.toPost(in)
	post.ID = id
	if asset != nil {
		post.Image = &asset.URL
	}
	updated, err := s.repo.Update(ctx, post)
	if err != nil {
		return nil, s.rollback(ctx, asset, mapRepoErr(err))
	}
	return updated, nil
}

func (s *blogService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	return mapRepoErr(s.repo.Delete(ctx, id))
}
