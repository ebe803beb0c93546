package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"blogapi/internal/config"
)

// uploadAPI is the part of the Cloudinary upload API this package calls.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Cloudinary uploads images to a Cloudinary folder. Resizing happens on Cloudinary's side
// through an incoming "limit" transformation.
type Cloudinary struct {
	api    uploadAPI
	policy Policy
}

var _ Uploader = (*Cloudinary)(nil)

// NewCloudinary builds an uploader from account credentials.
func NewCloudinary(cfg config.CloudinaryConfig, policy Policy) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary cloud name, api key and api secret are required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &Cloudinary{api: &cld.Upload, policy: policy}, nil
}

func (c *Cloudinary) transformation() string {
	if c.policy.MaxWidth <= 0 || c.policy.MaxHeight <= 0 {
		return ""
	}
	return fmt.Sprintf("c_limit,w_%d,h_%d", c.policy.MaxWidth, c.policy.MaxHeight)
}

func (c *Cloudinary) Upload(ctx context.Context, f File) (Asset, error) {
	res, err := c.api.Upload(ctx, f.Body, uploader.UploadParams{
		Folder:         c.policy.Folder,
		AllowedFormats: api.CldAPIArray{"jpg", "jpeg", "png", "webp"},
		Transformation: c.transformation(),
	})
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Asset{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return Asset{}, errors.New("cloudinary upload: empty secure_url")
	}
	return Asset{ID: res.PublicID, URL: res.SecureURL}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, id string) error {
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", id, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", id, res.Error.Message)
	}
	return nil
}
