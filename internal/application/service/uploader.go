package service

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
)

// Uploader stores user images (avatars, template thumbnails).
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
	GetClient() *cloudinary.Cloudinary
}

// ArtifactStore keeps generated export files and returns their download URL.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
