// Package rekognition implements the biometric contract on AWS Rekognition
// face collections.
package rekognition

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	"github.com/reunipet/reunipet/internal/biometric"
	"github.com/reunipet/reunipet/internal/model"
)

// Client implements biometric.Index and biometric.LabelDetector.
type Client struct {
	rek *rekognition.Client
}

// New builds a Rekognition-backed client for the given region using the
// default AWS credential chain.
func New(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &Client{rek: rekognition.NewFromConfig(cfg)}, nil
}

// NewWithClient wraps an existing Rekognition client (used by tests and tools).
func NewWithClient(rek *rekognition.Client) *Client { return &Client{rek: rek} }

// IndexFace indexes the image into the collection keyed by recordID. At most
// one face is indexed; quality filtering uses the provider's AUTO setting so
// low-quality detections are rejected at index time, matching the search-side
// similarity floor.
func (c *Client) IndexFace(ctx context.Context, collection, recordID string, image []byte) (string, error) {
	out, err := c.rek.IndexFaces(ctx, &rekognition.IndexFacesInput{
		CollectionId:        aws.String(collection),
		Image:               &rektypes.Image{Bytes: image},
		ExternalImageId:     aws.String(recordID),
		MaxFaces:            aws.Int32(1),
		QualityFilter:       rektypes.QualityFilterAuto,
		DetectionAttributes: []rektypes.Attribute{rektypes.AttributeDefault},
	})
	if err != nil {
		return "", err
	}
	if len(out.FaceRecords) == 0 {
		if len(out.UnindexedFaces) > 0 {
			reasons := make([]string, 0, len(out.UnindexedFaces))
			for _, f := range out.UnindexedFaces {
				for _, r := range f.Reasons {
					reasons = append(reasons, string(r))
				}
			}
			log.Debug().Str("recordId", recordID).Strs("reasons", reasons).Msg("faces present but not indexed")
		}
		return "", biometric.ErrNoFaceDetected
	}
	face := out.FaceRecords[0].Face
	if face == nil || face.FaceId == nil {
		return "", biometric.ErrNoFaceDetected
	}
	return *face.FaceId, nil
}

// SearchByImage returns the closest match above minSimilarity, or nil.
func (c *Client) SearchByImage(ctx context.Context, collection string, image []byte, minSimilarity float32) (*model.Match, error) {
	out, err := c.rek.SearchFacesByImage(ctx, &rekognition.SearchFacesByImageInput{
		CollectionId:       aws.String(collection),
		Image:              &rektypes.Image{Bytes: image},
		FaceMatchThreshold: aws.Float32(minSimilarity),
		MaxFaces:           aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.FaceMatches) == 0 {
		return nil, nil
	}
	m := out.FaceMatches[0]
	if m.Similarity == nil || m.Face == nil || m.Face.ExternalImageId == nil {
		return nil, nil
	}
	return &model.Match{
		RecordID:   *m.Face.ExternalImageId,
		Similarity: float64(*m.Similarity),
	}, nil
}

// EnsureCollection creates the collection, treating an existing one as success.
func (c *Client) EnsureCollection(ctx context.Context, collection string) error {
	_, err := c.rek.CreateCollection(ctx, &rekognition.CreateCollectionInput{
		CollectionId: aws.String(collection),
	})
	if err != nil {
		var exists *rektypes.ResourceAlreadyExistsException
		if errors.As(err, &exists) {
			return nil
		}
		return err
	}
	return nil
}

// HealthPing implements health.HealthPinger: a minimal collection listing
// verifies API reachability and credentials.
func (c *Client) HealthPing(ctx context.Context) error {
	_, err := c.rek.ListCollections(ctx, &rekognition.ListCollectionsInput{
		MaxResults: aws.Int32(1),
	})
	return err
}

// DetectLabels returns all labels with confidence at or above minConfidence.
func (c *Client) DetectLabels(ctx context.Context, image []byte, minConfidence float32) ([]biometric.Label, error) {
	out, err := c.rek.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &rektypes.Image{Bytes: image},
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, err
	}
	labels := make([]biometric.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		lab := biometric.Label{Name: *l.Name}
		if l.Confidence != nil {
			lab.Confidence = *l.Confidence
		}
		labels = append(labels, lab)
	}
	return labels, nil
}
