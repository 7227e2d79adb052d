// Package vision validates uploaded photos and derives free-text
// characteristics from them using the label detector.
package vision

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/reunipet/reunipet/internal/biometric"
)

// minLabelConfidence is the floor applied to every label decision.
const minLabelConfidence float32 = 80

// animalIndicators are the labels that qualify an image as a pet photo.
var animalIndicators = map[string]bool{
	"Animal": true,
	"Dog":    true,
	"Cat":    true,
	"Pet":    true,
}

// ignoredLabels filters generic species/class, human and environment terms out
// of the characteristic set.
var ignoredLabels = map[string]bool{
	"Animal": true, "Pet": true, "Mammal": true, "Canine": true, "Feline": true,
	"Dog": true, "Cat": true, "Kitten": true, "Rat": true, "Rodent": true,
	"Person": true, "Human": true, "Boy": true, "Child": true, "Woman": true,
	"Adult": true, "Female": true, "Male": true,
	"Outdoors": true, "Nature": true, "Grass": true, "Plant": true, "Wildlife": true,
}

// Service answers pure label queries against the detector.
type Service struct {
	detector biometric.LabelDetector
}

func NewService(d biometric.LabelDetector) *Service { return &Service{detector: d} }

// ValidateIsPet reports whether the image contains an animal with acceptable
// confidence. Detector failures propagate to the caller.
func (s *Service) ValidateIsPet(ctx context.Context, image []byte) (bool, error) {
	labels, err := s.detector.DetectLabels(ctx, image, 0)
	if err != nil {
		return false, err
	}
	for _, l := range labels {
		if animalIndicators[l.Name] && l.Confidence > minLabelConfidence {
			return true, nil
		}
	}
	return false, nil
}

// ExtractCharacteristics returns the descriptive labels for the image: all
// labels above the confidence floor minus the stoplist. It degrades to an
// empty set on detector failure rather than propagating the error.
func (s *Service) ExtractCharacteristics(ctx context.Context, image []byte) []string {
	labels, err := s.detector.DetectLabels(ctx, image, minLabelConfidence)
	if err != nil {
		log.Warn().Err(err).Msg("characteristic extraction failed")
		return []string{}
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if ignoredLabels[l.Name] || l.Confidence <= minLabelConfidence {
			continue
		}
		out = append(out, l.Name)
	}
	return out
}
