package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/config"
)

type fakeUploadAPI struct {
	params    uploader.UploadParams
	destroyed string
	result    *uploader.UploadResult
	destroy   *uploader.DestroyResult
	err       error
}

func (f *fakeUploadAPI) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = p
	return f.result, f.err
}

func (f *fakeUploadAPI) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = p.PublicID
	if f.destroy == nil {
		return &uploader.DestroyResult{Result: "ok"}, f.err
	}
	return f.destroy, f.err
}

func TestCloudinary_Upload(t *testing.T) {
	policy := Policy{MaxWidth: 800, MaxHeight: 600, Folder: "blogs"}

	t.Run("returns secure url", func(t *testing.T) {
		fake := &fakeUploadAPI{result: &uploader.UploadResult{
			PublicID:  "blogs/abc",
			SecureURL: "https://res.cloudinary.com/demo/image/upload/blogs/abc.jpg",
		}}
		c := &Cloudinary{api: fake, policy: policy}

		asset, err := c.Upload(context.Background(), File{Body: strings.NewReader("x")})

		require.NoError(t, err)
		assert.Equal(t, "blogs/abc", asset.ID)
		assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/blogs/abc.jpg", asset.URL)
		assert.Equal(t, "blogs", fake.params.Folder)
		assert.Equal(t, "c_limit,w_800,h_600", fake.params.Transformation)
		assert.Equal(t, api.CldAPIArray{"jpg", "jpeg", "png", "webp"}, fake.params.AllowedFormats)
	})

	t.Run("transport error", func(t *testing.T) {
		c := &Cloudinary{api: &fakeUploadAPI{err: errors.New("dial tcp: timeout")}, policy: policy}
		_, err := c.Upload(context.Background(), File{Body: strings.NewReader("x")})
		assert.ErrorContains(t, err, "dial tcp")
	})

	t.Run("api error in result", func(t *testing.T) {
		res := &uploader.UploadResult{}
		res.Error.Message = "Invalid image file"
		c := &Cloudinary{api: &fakeUploadAPI{result: res}, policy: policy}

		_, err := c.Upload(context.Background(), File{Body: strings.NewReader("x")})

		assert.ErrorContains(t, err, "Invalid image file")
	})
}

func TestCloudinary_Delete(t *testing.T) {
	fake := &fakeUploadAPI{}
	c := &Cloudinary{api: fake}

	require.NoError(t, c.Delete(context.Background(), "blogs/abc"))
	assert.Equal(t, "blogs/abc", fake.destroyed)
}

func TestNewCloudinary_RequiresCredentials(t *testing.T) {
	_, err := NewCloudinary(config.CloudinaryConfig{CloudName: "demo"}, Policy{})
	assert.Error(t, err)

	c, err := NewCloudinary(config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret"}, Policy{})
	require.NoError(t, err)
	assert.NotNil(t, c.api)
}
