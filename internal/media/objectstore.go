package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"blogapi/internal/storage"
)

const jpegQuality = 85

// ObjectStore resizes images locally and keeps them in an S3-compatible bucket.
// URLs point at baseURL, which the API serves from the same bucket.
type ObjectStore struct {
	store   storage.Storage
	policy  Policy
	baseURL string
	newKey  func() string
}

var _ Uploader = (*ObjectStore)(nil)

// NewObjectStore builds an uploader over store. baseURL must not end with a slash.
func NewObjectStore(store storage.Storage, policy Policy, baseURL string) *ObjectStore {
	return &ObjectStore{store: store, policy: policy, baseURL: baseURL, newKey: uuid.NewString}
}

// fit shrinks src to fit within maxW x maxH. It never enlarges.
func fit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return src
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// encode writes PNGs back as PNG to keep transparency; JPEG and WEBP become JPEG.
func encode(img image.Image, format string) ([]byte, string, string, error) {
	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), ".png", "image/png", nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), ".jpg", "image/jpeg", nil
}

func (o *ObjectStore) Upload(ctx context.Context, f File) (Asset, error) {
	img, format, err := image.Decode(f.Body)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	data, ext, contentType, err := encode(fit(img, o.policy.MaxWidth, o.policy.MaxHeight), format)
	if err != nil {
		return Asset{}, fmt.Errorf("encode image: %w", err)
	}

	key := path.Join(o.policy.Folder, o.newKey()+ext)
	if _, err := o.store.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata:    map[string]string{"original-name": f.Name},
	}); err != nil {
		return Asset{}, err
	}
	return Asset{ID: key, URL: o.baseURL + "/" + key}, nil
}

func (o *ObjectStore) Delete(ctx context.Context, id string) error {
	return o.store.Delete(ctx, id)
}
