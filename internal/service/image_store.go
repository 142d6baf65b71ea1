package service

import (
	"context"
	"io"
)

// ImageStore keeps doctor profile pictures in object storage and hands back
// their public URLs.
type ImageStore interface {
	Upload(ctx context.Context, key string, contentType string, size int64, body io.Reader) (string, error)
	// Delete removes the object behind a URL previously returned by Upload.
	// URLs that do not belong to the store are ignored.
	Delete(ctx context.Context, url string) error
}
