// Package biometric defines the contract this service requires from an
// external image-biometric capability: index a photo into a named collection,
// search a collection for the closest match, and label an image.
package biometric

import (
	"context"
	"errors"

	"github.com/reunipet/reunipet/internal/model"
)

// DefaultSimilarityThreshold is the operating point (0-100) shared between
// index-time quality filtering and search-time acceptance.
const DefaultSimilarityThreshold float32 = 70

// ErrNoFaceDetected is returned by Index when the image carries no indexable
// feature set. The record stays un-indexed and is excluded from searches.
var ErrNoFaceDetected = errors.New("no face detected")

// Index stores and searches biometric entries partitioned by collection.
type Index interface {
	// IndexFace indexes the image into the collection keyed by recordID and
	// returns the provider's opaque face ID.
	IndexFace(ctx context.Context, collection, recordID string, image []byte) (string, error)

	// SearchByImage returns the best match above minSimilarity in the given
	// collection, or nil when nothing qualifies.
	SearchByImage(ctx context.Context, collection string, image []byte, minSimilarity float32) (*model.Match, error)

	// EnsureCollection creates the collection if it does not already exist.
	EnsureCollection(ctx context.Context, collection string) error
}

// Label is a confidence-scored tag produced by the feature extractor.
type Label struct {
	Name       string
	Confidence float32
}

// LabelDetector extracts confidence-scored labels from an image.
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte, minConfidence float32) ([]Label, error)
}
