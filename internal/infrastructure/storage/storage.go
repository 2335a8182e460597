package storage

import "context"

// AssetStore persists binary assets (proposal cover images).
// Save returns the stored object key; Delete is used as the
// compensation step when proposal creation fails after the upload.
type AssetStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
