// Package media uploads post images to the configured host and returns their public URL.
package media

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"

	"blogapi/internal/config"
)

var (
	// ErrPayloadTooLarge is returned when a file exceeds the policy's byte cap.
	ErrPayloadTooLarge = errors.New("image exceeds the upload size limit")
	// ErrUnsupportedFormat is returned when the bytes are not JPEG, PNG or WEBP.
	ErrUnsupportedFormat = errors.New("image must be jpeg, png or webp")
)

// Format is an accepted image encoding, detected from the file's leading bytes.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
)

var sniffed = map[string]Format{
	"image/jpeg": FormatJPEG,
	"image/png":  FormatPNG,
	"image/webp": FormatWEBP,
}

// File is an image received from a client. Size is the declared length in bytes.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Asset identifies an uploaded image: ID is what Delete takes, URL is stored on the post.
type Asset struct {
	ID  string
	URL string
}

// Uploader hosts images. Implementations must be safe for concurrent use.
type Uploader interface {
	Upload(ctx context.Context, f File) (Asset, error)
	Delete(ctx context.Context, id string) error
}

// Policy bounds what an upload may be. Images larger than MaxWidth x MaxHeight are
// shrunk to fit, keeping the aspect ratio; smaller ones are left alone.
type Policy struct {
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
	Folder    string
}

// PolicyFromConfig builds the upload policy from media settings.
func PolicyFromConfig(c config.MediaConfig) Policy {
	return Policy{
		MaxBytes:  c.MaxUploadBytes,
		MaxWidth:  c.MaxWidth,
		MaxHeight: c.MaxHeight,
		Folder:    c.Folder,
	}
}

// Check rejects files over the byte cap or in a format other than JPEG, PNG or WEBP.
// The returned File reads the same bytes as f; f.Body must not be used afterwards.
func (p Policy) Check(f File) (File, Format, error) {
	if p.MaxBytes > 0 && f.Size > p.MaxBytes {
		return f, "", ErrPayloadTooLarge
	}
	br := bufio.NewReaderSize(f.Body, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return f, "", err
	}
	format, ok := sniffed[http.DetectContentType(head)]
	if !ok {
		return f, "", ErrUnsupportedFormat
	}
	f.Body = br
	f.ContentType = "image/" + string(format)
	return f, format, nil
}
