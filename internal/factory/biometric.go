package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/reunipet/reunipet/internal/biometric"
	"github.com/reunipet/reunipet/internal/biometric/rekognition"
	"github.com/reunipet/reunipet/internal/config"
)

// NewBiometricIndex creates the Rekognition-backed face index and label
// detector. Collection creation runs asynchronously; the client is returned
// immediately for fast startup.
func NewBiometricIndex(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*rekognition.Client, error) {
	client, err := rekognition.New(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	// Async collection bootstrap with configurable timeout; don't block startup
	go func() {
		bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()

		for _, coll := range []string{cfg.LostCollectionID, cfg.FoundCollectionID} {
			if err := client.EnsureCollection(bootstrapCtx, coll); err != nil {
				log.Warn().Err(err).Str("collection", coll).Msg("face collection bootstrap failed")
			} else {
				log.Debug().Str("collection", coll).Msg("face collection bootstrap completed")
			}
		}
	}()

	return client, nil
}

var _ biometric.Index = (*rekognition.Client)(nil)
var _ biometric.LabelDetector = (*rekognition.Client)(nil)
