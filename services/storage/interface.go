package storage

import (
	"context"
	"errors"
	"io"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

// ImageStore keeps public images such as costume references.
type ImageStore interface {
	// UploadImage stores the image and returns its public HTTPS URL.
	UploadImage(ctx context.Context, file io.Reader, filename string) (string, error)
	DeleteImage(ctx context.Context, publicID string) error
}
