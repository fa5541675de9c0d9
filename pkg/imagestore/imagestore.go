package imagestore

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotConfigured = errors.New("image store not configured")
	ErrUpload        = errors.New("image upload failed")
)

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*Image, error)
}

// Disabled is used when no asset host is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader) (*Image, error) {
	return nil, ErrNotConfigured
}
