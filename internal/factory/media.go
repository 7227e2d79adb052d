package factory

import (
	"context"
	"fmt"

	"github.com/reunipet/reunipet/internal/config"
	"github.com/reunipet/reunipet/internal/media"
)

// NewMediaStore returns the Cloud Storage backed media store.
func NewMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	if cfg.StorageBucket == "" {
		return nil, fmt.Errorf("REUNIPET_STORAGE_BUCKET is required")
	}
	return media.NewGCSStore(ctx, cfg.StorageBucket, cfg.FirebaseCredentialsFile)
}
