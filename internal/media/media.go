// Package media stores pet photos and serves their public URLs.
package media

import "context"

// Store holds raw media objects. Delete takes the public URL previously
// returned by Upload.
type Store interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, publicURL string) error
}
