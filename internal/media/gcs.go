package media

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSStore keeps media in a Google Cloud Storage bucket behind public URLs.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore opens a client for the given bucket. credentialsFile may be
// empty to use application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Upload writes the object under a uuid-prefixed name and returns its public
// URL. Objects are made world-readable; the bucket serves app image traffic.
func (s *GCSStore) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	objectName := fmt.Sprintf("%s-%s", uuid.New().String(), filename)
	obj := s.client.Bucket(s.bucket).Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish object %s: %w", objectName, err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("make object %s public: %w", objectName, err)
	}
	return s.publicURL(objectName), nil
}

// Delete removes the object behind a public URL previously issued by Upload.
func (s *GCSStore) Delete(ctx context.Context, publicURL string) error {
	prefix := s.publicURL("")
	if !strings.HasPrefix(publicURL, prefix) {
		return fmt.Errorf("URL %q does not belong to bucket %s", publicURL, s.bucket)
	}
	objectName := strings.TrimPrefix(publicURL, prefix)
	if objectName == "" {
		return fmt.Errorf("URL %q has no object name", publicURL)
	}
	return s.client.Bucket(s.bucket).Object(objectName).Delete(ctx)
}

func (s *GCSStore) publicURL(objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName)
}
