package policies

import (
	"context"
	"io"
)

type ImageUpload struct {
	ListingID   string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore keeps listing image bytes and hands back a public URL.
type ImageStore interface {
	Upload(ctx context.Context, img ImageUpload) (string, error)
	Delete(ctx context.Context, url string) error
}
